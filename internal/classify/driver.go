package classify

import (
	"strings"

	"github.com/shortontech/gosniff/internal/signal"
)

// vetoRule is a signal condition that immediately fixes the driver label,
// bypassing the vote table. Rules are evaluated in declaration order and the
// first match wins.
type vetoRule struct {
	Name  string
	Label string
	Match func(bag *signal.Bag) bool
}

var driverVetoRules = []vetoRule{
	{
		Name:  "empty_font_list",
		Label: DriverSeleniumBase,
		Match: func(bag *signal.Bag) bool {
			return len(bag.Strs(signal.KeyFontList)) == 0
		},
	},
	{
		Name:  "multiple_probe_fonts",
		Label: DriverCamoufox,
		Match: func(bag *signal.Bag) bool {
			return len(bag.Strs(signal.KeyFontList)) > 1
		},
	},
	{
		Name:  "mozilla_webgl_vendor",
		Label: DriverCamoufox,
		Match: func(bag *signal.Bag) bool {
			return bag.Str(signal.KeyWebGLVendor) == "Mozilla"
		},
	},
	{
		Name:  "no_push_notification",
		Label: DriverCamoufox,
		Match: func(bag *signal.Bag) bool {
			return bag.Present(signal.KeyPushNotification) && !bag.Bool(signal.KeyPushNotification)
		},
	},
	{
		Name:  "do_not_track",
		Label: DriverCamoufox,
		Match: func(bag *signal.Bag) bool {
			return bag.Bool(signal.KeyDoNotTrack)
		},
	},
	{
		Name:  "oversized_font_bounding_box",
		Label: DriverCamoufox,
		Match: func(bag *signal.Bag) bool {
			return bag.Int(signal.KeyArialBoundingHeight) > arialBoundingHeightMax
		},
	},
}

// Driver guesses which automation-control tool is driving the session.
// Deterministic overrides run first, then ordered vetoes, then weighted
// voting with a canonical-order tie-break, then behavioral refinement within
// the driver-less family. Pure function of the bag.
func Driver(bag *signal.Bag) Result {
	details := newDetails("override", "veto", "vote", "refine")
	matched := map[string]bool{}

	// Exact canvas reference pair: unambiguous, cheaper to special-case than
	// to weigh.
	if bag.Str(signal.KeyUnstableCanvasGeometry) == camoufoxCanvasGeometry &&
		bag.Str(signal.KeyUnstableCanvasText) == camoufoxCanvasText {
		details["override"]["camoufox_canvas_pair"] = true
		matched["camoufox_canvas_pair"] = true
		return driverResult(DriverCamoufox, 1.0, 0, matched, details)
	}

	// The MacIntel platform is only ever seen from camoufox in this domain.
	platform := bag.Str(signal.KeyPlatform)
	if strings.Contains(platform, "MacIntel") {
		details["override"]["macintel_platform"] = true
		matched["macintel_platform"] = true
		return driverResult(DriverCamoufox, 1.0, 0, matched, details)
	}

	votes := make(map[string]int, len(driverCandidates))
	for _, c := range driverCandidates {
		votes[c] = 0
	}

	if strings.Contains(platform, "Linux") {
		for _, c := range linuxFamilyCandidates {
			votes[c]++
		}
		details["vote"]["linux_platform"] = true
		matched["linux_platform"] = true
	} else {
		votes[DriverCamoufox]++
		votes[DriverPuppeteerExtra]++
		details["vote"]["other_platform"] = true
		matched["other_platform"] = true
	}

	if !containsString(bag.Strs(signal.KeyLanguages), referenceLanguage) {
		votes[DriverPatchright]++
		details["vote"]["missing_reference_language"] = true
		matched["missing_reference_language"] = true
	}

	for _, rule := range driverVetoRules {
		if rule.Match(bag) {
			details["veto"][rule.Name] = true
			matched[rule.Name] = true
			return driverResult(rule.Label, 1.0, 0, matched, details)
		}
	}

	// Argmax with ties broken by the canonical candidate order, not by map
	// iteration or scoring order.
	best := driverCandidates[0]
	total := 0
	for _, c := range driverCandidates {
		total += votes[c]
		if votes[c] > votes[best] {
			best = c
		}
	}

	label := best
	if driverlessFamily[best] {
		switch {
		case bag.Int(signal.KeyMouseEventCount) > interactiveMouseEventMin:
			label = DriverSeleniumDriverless
			details["refine"]["interactive_mouse_activity"] = true
			matched["interactive_mouse_activity"] = true
		case bag.Present(signal.KeyFirstClickTimeMs) &&
			bag.Float(signal.KeyFirstClickTimeMs) < earlyClickThresholdMs:
			label = DriverNodriver
			details["refine"]["early_first_click"] = true
			matched["early_first_click"] = true
		default:
			label = DriverZendriver
			details["refine"]["no_early_interaction"] = true
			matched["no_early_interaction"] = true
		}
	}

	conf := 0.0
	if total > 0 {
		conf = clamp01(float64(votes[best]) / float64(total))
	}
	return driverResult(label, conf, votes[best], matched, details)
}

func driverResult(label string, conf float64, score int, matched map[string]bool, details map[string]map[string]bool) Result {
	return Result{
		Label:          label,
		Confidence:     conf,
		Score:          score,
		MatchedSignals: sortedMatches(matched),
		Details:        details,
	}
}

// containsString matches exact tags only. A session declaring en-US without a
// bare "en" entry still counts as missing the reference language.
func containsString(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
