package classify

import (
	"testing"

	"github.com/shortontech/gosniff/internal/signal"
)

func geoBag(geo signal.GeoInfo, mutate func(b *signal.Builder)) *signal.Bag {
	b := signal.NewBuilder().
		Set(signal.KeyPublicIPGeo, geo).
		Set(signal.KeyTimezone, "America/New_York").
		Set(signal.KeyLanguages, []string{"en-US"})
	if mutate != nil {
		mutate(b)
	}
	return b.Build()
}

func residentialGeo() signal.GeoInfo {
	return signal.GeoInfo{
		IP:       "203.0.113.9",
		Country:  "US",
		Timezone: "America/New_York",
		ASN:      "AS7922",
		Org:      "Comcast Cable Communications",
	}
}

func TestProxyVPNCleanResidential(t *testing.T) {
	res := ProxyVPN(geoBag(residentialGeo(), nil))
	if res.Label != ProxyNone {
		t.Errorf("label = %q, want %q", res.Label, ProxyNone)
	}
	if res.Score != 0 {
		t.Errorf("score = %d, want 0", res.Score)
	}
}

// Unresolved geolocation degrades every geo check; the verdict is still valid.
func TestProxyVPNAbsentGeo(t *testing.T) {
	bag := signal.NewBuilder().
		SetAbsent(signal.KeyPublicIPGeo).
		Set(signal.KeyTimezone, "Europe/Berlin").
		Set(signal.KeyLanguages, []string{"de-DE"}).
		Build()

	res := ProxyVPN(bag)
	if res.Label != ProxyNone {
		t.Errorf("label = %q, want %q", res.Label, ProxyNone)
	}
	if res.Score != 0 {
		t.Errorf("score = %d, want 0", res.Score)
	}
	if len(res.MatchedSignals) != 0 {
		t.Errorf("matched = %v, want none", res.MatchedSignals)
	}
}

func TestProxyVPNFlagWeights(t *testing.T) {
	tests := []struct {
		name      string
		geo       signal.GeoInfo
		wantLabel string
		wantScore int
	}{
		{
			name: "tor exit is probable",
			geo: func() signal.GeoInfo {
				g := residentialGeo()
				g.Tor = true
				return g
			}(),
			wantLabel: ProxyProbable,
			wantScore: 6,
		},
		{
			name: "vpn alone is suspected",
			geo: func() signal.GeoInfo {
				g := residentialGeo()
				g.VPN = true
				return g
			}(),
			wantLabel: ProxySuspected,
			wantScore: 5,
		},
		{
			name: "proxy alone is suspected",
			geo: func() signal.GeoInfo {
				g := residentialGeo()
				g.Proxy = true
				return g
			}(),
			wantLabel: ProxySuspected,
			wantScore: 4,
		},
		{
			name: "hosting network alone is suspected",
			geo: func() signal.GeoInfo {
				g := residentialGeo()
				g.Hosting = true
				return g
			}(),
			wantLabel: ProxySuspected,
			wantScore: 3,
		},
		{
			name: "vpn on hosting network is probable",
			geo: func() signal.GeoInfo {
				g := residentialGeo()
				g.VPN = true
				g.Hosting = true
				return g
			}(),
			wantLabel: ProxyProbable,
			wantScore: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ProxyVPN(geoBag(tt.geo, nil))
			if res.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", res.Label, tt.wantLabel)
			}
			if res.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", res.Score, tt.wantScore)
			}
		})
	}
}

func TestProxyVPNHostingOrg(t *testing.T) {
	geo := residentialGeo()
	geo.Org = "DigitalOcean LLC"

	res := ProxyVPN(geoBag(geo, nil))
	if !res.Details["network"]["hosting_org"] {
		t.Error("hosting_org should fire for a cloud provider org")
	}
	if res.Score != weightHostingOrg {
		t.Errorf("score = %d, want %d", res.Score, weightHostingOrg)
	}
}

func TestProxyVPNTimezoneMismatch(t *testing.T) {
	tests := []struct {
		name       string
		ipTZ       string
		declaredTZ string
		fired      bool
	}{
		{"exact match", "America/New_York", "America/New_York", false},
		{"substring tolerated", "Europe/Berlin", "Berlin", false},
		{"real mismatch", "Asia/Tokyo", "America/New_York", true},
		{"missing declared tz", "Asia/Tokyo", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo := residentialGeo()
			geo.Timezone = tt.ipTZ
			res := ProxyVPN(geoBag(geo, func(b *signal.Builder) {
				if tt.declaredTZ == "" {
					b.SetAbsent(signal.KeyTimezone)
				} else {
					b.Set(signal.KeyTimezone, tt.declaredTZ)
				}
			}))
			if got := res.Details["network"]["timezone_mismatch"]; got != tt.fired {
				t.Errorf("timezone_mismatch fired=%v, want %v", got, tt.fired)
			}
		})
	}
}

func TestProxyVPNLanguageGeoMismatch(t *testing.T) {
	tests := []struct {
		name      string
		languages []string
		country   string
		fired     bool
	}{
		{"region subtag matches", []string{"de-AT"}, "AT", false},
		{"region subtag mismatch", []string{"de-AT"}, "JP", true},
		{"primary subtag implies country", []string{"ja"}, "JP", false},
		{"primary subtag mismatch", []string{"ja"}, "BR", true},
		{"unknown language never fires", []string{"xx"}, "US", false},
		{"empty list never fires", []string{}, "US", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo := residentialGeo()
			geo.Country = tt.country
			res := ProxyVPN(geoBag(geo, func(b *signal.Builder) {
				b.Set(signal.KeyLanguages, tt.languages)
			}))
			if got := res.Details["network"]["language_geo_mismatch"]; got != tt.fired {
				t.Errorf("language_geo_mismatch fired=%v, want %v", got, tt.fired)
			}
		})
	}
}

func TestProxyVPNRelayOnlyICE(t *testing.T) {
	tests := []struct {
		name  string
		rtc   signal.WebRTCInfo
		fired bool
	}{
		{
			name:  "relay only",
			rtc:   signal.WebRTCInfo{Supported: true, CandidateTypes: []string{"relay"}},
			fired: true,
		},
		{
			name:  "host candidate present",
			rtc:   signal.WebRTCInfo{Supported: true, CandidateTypes: []string{"host", "relay"}},
			fired: false,
		},
		{
			name:  "srflx candidate present",
			rtc:   signal.WebRTCInfo{Supported: true, CandidateTypes: []string{"srflx"}},
			fired: false,
		},
		{
			name:  "no candidates at all",
			rtc:   signal.WebRTCInfo{Supported: true, CandidateTypes: []string{}},
			fired: false,
		},
		{
			name:  "webrtc unsupported",
			rtc:   signal.WebRTCInfo{Supported: false, CandidateTypes: []string{"relay"}},
			fired: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ProxyVPN(geoBag(residentialGeo(), func(b *signal.Builder) {
				b.Set(signal.KeyWebRTCCandidateTypes, tt.rtc)
			}))
			if got := res.Details["network"]["relay_only_webrtc"]; got != tt.fired {
				t.Errorf("relay_only_webrtc fired=%v, want %v", got, tt.fired)
			}
		})
	}
}

func TestProxyVPNConfidenceClamped(t *testing.T) {
	geo := residentialGeo()
	geo.VPN = true
	geo.Proxy = true
	geo.Tor = true
	geo.Hosting = true
	geo.Org = "Amazon AWS"
	geo.Timezone = "Asia/Tokyo"

	res := ProxyVPN(geoBag(geo, nil))
	if res.Confidence != 1.0 {
		t.Errorf("confidence = %v, want clamp at 1.0", res.Confidence)
	}
	if res.Label != ProxyProbable {
		t.Errorf("label = %q, want %q", res.Label, ProxyProbable)
	}
}
