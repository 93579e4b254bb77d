package classify

import (
	"strings"

	"github.com/shortontech/gosniff/internal/signal"
)

// Named automation frameworks and the global-object markers they leave
// behind. Marker matching is case-insensitive; the listed order is the
// labeling precedence when several frameworks are visible at once.
type frameworkSignature struct {
	Tool    string
	Weight  int
	Markers []string // matched against the reported global names
	Prefix  string   // alternatively, a marker name prefix
	UAToken string   // alternatively, a user-agent substring
}

var frameworkSignatures = []frameworkSignature{
	{Tool: "selenium", Weight: weightFrameworkMarker, Markers: []string{
		"__webdriver_evaluate", "__selenium_evaluate", "__driver_evaluate",
		"__webdriver_script_fn", "__fxdriver_evaluate", "_selenium_ide_recorder",
		"callselenium", "_selenium",
	}},
	{Tool: "chromedriver", Weight: weightFrameworkMarker, Prefix: "cdc_"},
	{Tool: "phantomjs", Weight: weightFrameworkMarker, Markers: []string{
		"_phantom", "callphantom", "phantom",
	}, UAToken: "phantomjs"},
	{Tool: "nightmare", Weight: weightFrameworkMarker, Markers: []string{"__nightmare"}},
	{Tool: "puppeteer", Weight: weightFrameworkMarker, Markers: []string{
		"__puppeteer_evaluation_script__", "__pptr_evaluation",
	}},
	{Tool: "playwright", Weight: weightFrameworkMarker, Markers: []string{
		"__playwright", "__pw_manual", "__pwinitscripts",
	}},
	{Tool: "cypress", Weight: weightFrameworkMarker, Markers: []string{"cypress"}},
	{Tool: "webdriverio", Weight: weightFrameworkMarker, Markers: []string{"wdio", "__wdio_script"}},
	{Tool: "domautomation", Weight: weightFrameworkMarker, Markers: []string{
		"domautomation", "domautomationcontroller",
	}},
	{Tool: "awesomium", Weight: weightEmbeddedShell, Markers: []string{"awesomium"}},
	{Tool: "cefsharp", Weight: weightEmbeddedShell, Markers: []string{"cefsharp", "cef"}},
	{Tool: "electron", Weight: weightEmbeddedShell, UAToken: "electron"},
	{Tool: "nwjs", Weight: weightEmbeddedShell, UAToken: "nwjs"},
	{Tool: "jsdom", Weight: weightFrameworkMarker, UAToken: "jsdom"},
	{Tool: "headless_chrome", Weight: weightHeadlessUA, UAToken: "headlesschrome"},
}

// UA substrings that indicate a headless or scripted browser regardless of
// any framework marker.
var headlessUATokens = []string{"headlesschrome", "headless", "phantomjs", "slimerjs"}

// Browser-identity brand tokens that legitimately appear in userAgentData.
var knownUABrands = []string{
	"chromium", "google chrome", "microsoft edge", "brave", "opera",
	"vivaldi", "samsung internet", "not",
}

// Bot estimates whether the session is automation-controlled at all,
// independent of which tool. Three weighted tiers feed a single score; a
// fixed precedence list of named-tool conditions can out-rank the aggregate
// buckets. Every individual probe degrades to non-matching when its signal is
// missing.
func Bot(bag *signal.Bag) Result {
	details := newDetails(string(signal.TierHard), string(signal.TierMedium), string(signal.TierSoft))
	matched := map[string]bool{}
	score := 0

	ua := strings.ToLower(bag.Str(signal.KeyUserAgent))
	markers := lowerAll(bag.Strs(signal.KeyAutomationMarkers))

	record := func(tier signal.Tier, name string, fired bool, weight int) {
		details[string(tier)][name] = fired
		if fired {
			matched[name] = true
			score += weight
		}
	}

	// Hard tier.
	record(signal.TierHard, "webdriver_flag", bag.Bool(signal.KeyWebdriver), weightWebdriverFlag)
	record(signal.TierHard, "headless_user_agent", containsAnyToken(ua, headlessUATokens), weightHeadlessUA)
	for _, sig := range frameworkSignatures {
		record(signal.TierHard, "framework_"+sig.Tool, sig.matches(markers, ua), sig.Weight)
	}

	// Medium tier.
	record(signal.TierMedium, "software_renderer",
		bag.Str(signal.KeyWebGLDriverType) == "software", 1)
	record(signal.TierMedium, "zero_plugins",
		bag.Present(signal.KeyPluginCount) && bag.Int(signal.KeyPluginCount) == 0, 1)
	record(signal.TierMedium, "empty_language_list",
		bag.Present(signal.KeyLanguages) && len(bag.Strs(signal.KeyLanguages)) == 0, 1)
	record(signal.TierMedium, "anomalous_ua_brands", hasAnomalousBrand(bag.Strs(signal.KeyUABrands)), 1)
	record(signal.TierMedium, "notifications_denied",
		bag.Str(signal.KeyNotificationPermission) == "denied", 1)

	// Soft tier: claims to be one browser family but misses a feature every
	// real member of that family has.
	record(signal.TierSoft, "family_feature_mismatch", familyFeatureMismatch(bag, ua), 1)

	label := botLabel(markers, ua, score)
	return Result{
		Label:          label,
		Confidence:     clamp01(float64(score) / botConfidenceDivisor),
		Score:          score,
		MatchedSignals: sortedMatches(matched),
		Details:        details,
	}
}

// botLabel walks the named-tool precedence list first; a specific, highly
// diagnostic marker out-ranks a merely elevated aggregate score. Only then
// does it bucket by score.
func botLabel(markers []string, ua string, score int) string {
	for _, sig := range frameworkSignatures {
		if sig.matches(markers, ua) {
			return sig.Tool
		}
	}
	switch {
	case score >= botLikelyThreshold:
		return BotLikelyAutomation
	case score >= botSuspectedThreshold:
		return BotSuspectedAutomation
	default:
		return BotHumanOrUnknown
	}
}

func (s frameworkSignature) matches(markers []string, ua string) bool {
	for _, want := range s.Markers {
		for _, got := range markers {
			if got == want {
				return true
			}
		}
	}
	if s.Prefix != "" {
		for _, got := range markers {
			if strings.HasPrefix(got, s.Prefix) {
				return true
			}
		}
	}
	if s.UAToken != "" && strings.Contains(ua, s.UAToken) {
		return true
	}
	return false
}

func hasAnomalousBrand(brands []string) bool {
	for _, brand := range brands {
		lower := strings.ToLower(strings.TrimSpace(brand))
		if lower == "" {
			continue
		}
		known := false
		for _, ok := range knownUABrands {
			if strings.Contains(lower, ok) {
				known = true
				break
			}
		}
		if !known {
			return true
		}
	}
	return false
}

// familyFeatureMismatch: a Chrome-family UA without push-notification support
// is not a real Chrome.
func familyFeatureMismatch(bag *signal.Bag, ua string) bool {
	if !strings.Contains(ua, "chrome") || strings.Contains(ua, "edg") {
		return false
	}
	return bag.Present(signal.KeyPushNotification) && !bag.Bool(signal.KeyPushNotification)
}

func containsAnyToken(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.ToLower(v)
	}
	return out
}
