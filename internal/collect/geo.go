package collect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shortontech/gosniff/internal/signal"
)

// HTTPGeoProvider resolves geolocation through an ordered chain of lookup
// services. Each endpoint is a printf template taking the client IP; the
// first endpoint that returns a usable record wins.
type HTTPGeoProvider struct {
	Endpoints []string
	Client    *http.Client
}

// Response shape shared by the common lookup services. ipapi-style responses
// carry a security block, ipinfo-style ones a privacy block, and some put the
// flags at the top level; all are folded into one GeoInfo.
type geoResponse struct {
	IP          string `json:"ip"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Region      string `json:"region"`
	City        string `json:"city"`
	Timezone    string `json:"timezone"`
	ASN         string `json:"asn"`
	Org         string `json:"org"`

	VPN     bool `json:"vpn"`
	Proxy   bool `json:"proxy"`
	Tor     bool `json:"tor"`
	Hosting bool `json:"hosting"`

	Security *geoFlags `json:"security"`
	Privacy  *geoFlags `json:"privacy"`
}

type geoFlags struct {
	VPN     bool `json:"vpn"`
	Proxy   bool `json:"proxy"`
	Tor     bool `json:"tor"`
	Hosting bool `json:"hosting"`
	Relay   bool `json:"relay"`
}

// "AS123 Some Org" organization strings fold into separate ASN and org.
var asnOrgRx = regexp.MustCompile(`^(AS\d+)\s+(.+)$`)

func (p *HTTPGeoProvider) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return &http.Client{Timeout: defaultGeoTimeout}
}

// Lookup walks the endpoint chain. Transient failures on an endpoint get one
// bounded retry before falling through to the next provider.
func (p *HTTPGeoProvider) Lookup(ctx context.Context, ip string) (signal.GeoInfo, error) {
	if len(p.Endpoints) == 0 {
		return signal.GeoInfo{}, errors.New("no geo endpoints configured")
	}

	var lastErr error
	for _, tmpl := range p.Endpoints {
		endpoint := fmt.Sprintf(tmpl, url.PathEscape(ip))

		var out signal.GeoInfo
		backoff := retry.WithMaxRetries(1, retry.NewConstant(150*time.Millisecond))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			info, err := p.fetch(ctx, endpoint)
			if err != nil {
				return retry.RetryableError(err)
			}
			out = info
			return nil
		})
		if err != nil {
			lastErr = err
			continue
		}
		if out.IP == "" {
			lastErr = fmt.Errorf("geo endpoint %s returned no ip", endpoint)
			continue
		}
		return out, nil
	}
	return signal.GeoInfo{}, lastErr
}

func (p *HTTPGeoProvider) fetch(ctx context.Context, endpoint string) (signal.GeoInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return signal.GeoInfo{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client().Do(req)
	if err != nil {
		return signal.GeoInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return signal.GeoInfo{}, fmt.Errorf("geo endpoint returned HTTP %d", resp.StatusCode)
	}

	var raw geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return signal.GeoInfo{}, fmt.Errorf("decode geo response: %w", err)
	}
	return raw.toGeoInfo(), nil
}

func (r geoResponse) toGeoInfo() signal.GeoInfo {
	info := signal.GeoInfo{
		IP:       r.IP,
		Country:  strings.ToUpper(firstNonEmpty(r.CountryCode, r.Country)),
		Region:   r.Region,
		City:     r.City,
		Timezone: r.Timezone,
		ASN:      r.ASN,
		Org:      r.Org,
		VPN:      r.VPN,
		Proxy:    r.Proxy,
		Tor:      r.Tor,
		Hosting:  r.Hosting,
	}
	if info.ASN == "" && info.Org != "" {
		if m := asnOrgRx.FindStringSubmatch(info.Org); m != nil {
			info.ASN = m[1]
			info.Org = m[2]
		}
	}
	for _, flags := range []*geoFlags{r.Security, r.Privacy} {
		if flags == nil {
			continue
		}
		info.VPN = info.VPN || flags.VPN || flags.Relay
		info.Proxy = info.Proxy || flags.Proxy
		info.Tor = info.Tor || flags.Tor
		info.Hosting = info.Hosting || flags.Hosting
	}
	return info
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
