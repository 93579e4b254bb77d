package classify

import (
	"strings"

	"github.com/shortontech/gosniff/internal/signal"
)

// ProxyVPN scores network and location signals into a proxy/VPN suspicion
// verdict. When geolocation could not be resolved, every geo-dependent check
// degrades to non-firing; the classifier still returns a valid "none" result.
func ProxyVPN(bag *signal.Bag) Result {
	details := newDetails("network")
	matched := map[string]bool{}
	score := 0

	record := func(name string, fired bool, weight int) {
		details["network"][name] = fired
		if fired {
			matched[name] = true
			score += weight
		}
	}

	geo, geoOK := bag.Geo()

	record("vpn_flag", geoOK && geo.VPN, weightGeoVPN)
	record("proxy_flag", geoOK && geo.Proxy, weightGeoProxy)
	record("tor_flag", geoOK && geo.Tor, weightGeoTor)
	record("hosting_flag", geoOK && geo.Hosting, weightGeoHosting)
	record("hosting_org", geoOK && isHostingOrg(geo.ASN, geo.Org), weightHostingOrg)
	record("timezone_mismatch",
		geoOK && timezonesDisagree(geo.Timezone, bag.Str(signal.KeyTimezone)),
		weightTimezoneMismatch)
	record("language_geo_mismatch",
		geoOK && languageGeoMismatch(bag.Strs(signal.KeyLanguages), geo.Country),
		weightLanguageGeo)

	rtc, rtcOK := bag.WebRTC()
	record("relay_only_webrtc", rtcOK && relayOnly(rtc), weightRelayOnlyICE)

	label := ProxyNone
	switch {
	case score >= proxyProbableThreshold:
		label = ProxyProbable
	case score >= proxySuspectedThreshold:
		label = ProxySuspected
	}

	return Result{
		Label:          label,
		Confidence:     clamp01(float64(score) / proxyConfidenceDivisor),
		Score:          score,
		MatchedSignals: sortedMatches(matched),
		Details:        details,
	}
}

func isHostingOrg(asn, org string) bool {
	haystack := strings.ToLower(asn + " " + org)
	for _, fragment := range hostingOrgFragments {
		if strings.Contains(haystack, fragment) {
			return true
		}
	}
	return false
}

// timezonesDisagree fires only when neither string is a substring of the
// other, so "Europe/Berlin" vs "Berlin" does not count as a mismatch.
func timezonesDisagree(ipTZ, declaredTZ string) bool {
	if ipTZ == "" || declaredTZ == "" {
		return false
	}
	if strings.Contains(ipTZ, declaredTZ) || strings.Contains(declaredTZ, ipTZ) {
		return false
	}
	return true
}

// languageGeoMismatch fires when the declared languages imply countries and
// none of them is the IP country. Region subtags ("de-AT" implies AT) beat
// the primary-subtag table.
func languageGeoMismatch(languages []string, ipCountry string) bool {
	country := strings.ToUpper(strings.TrimSpace(ipCountry))
	if country == "" || len(languages) == 0 {
		return false
	}
	implied := impliedCountries(languages)
	if len(implied) == 0 {
		return false
	}
	for _, c := range implied {
		if c == country {
			return false
		}
	}
	return true
}

func impliedCountries(languages []string) []string {
	var out []string
	for _, lang := range languages {
		tag := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
		if tag == "" {
			continue
		}
		parts := strings.Split(tag, "-")
		if len(parts) > 1 {
			// Last subtag of length 2 is a region code.
			region := parts[len(parts)-1]
			if len(region) == 2 {
				out = append(out, strings.ToUpper(region))
				continue
			}
		}
		for _, c := range languageCountries[strings.ToLower(parts[0])] {
			out = append(out, c)
		}
	}
	return out
}

// relayOnly: WebRTC works but the candidate set contains neither a host nor a
// server-reflexive address, which means all traffic rides a relay.
func relayOnly(rtc signal.WebRTCInfo) bool {
	if !rtc.Supported || len(rtc.CandidateTypes) == 0 {
		return false
	}
	for _, typ := range rtc.CandidateTypes {
		switch strings.ToLower(typ) {
		case "host", "srflx":
			return false
		}
	}
	return true
}
