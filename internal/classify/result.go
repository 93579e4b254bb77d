// Package classify maps a sealed signal bag to automation-driver, bot and
// proxy/VPN verdicts. All classifiers are pure functions of the bag: the same
// bag always produces the same result, and a missing signal degrades to a
// non-firing check rather than an error.
package classify

import "sort"

// Result is the common verdict shape produced by every classifier. Details is
// keyed by evaluation tier, then by the individual check name, recording
// whether it fired.
type Result struct {
	Label          string                     `json:"label"`
	Confidence     float64                    `json:"confidence"`
	Score          int                        `json:"score"`
	MatchedSignals []string                   `json:"matched_signals"`
	Details        map[string]map[string]bool `json:"details"`
}

func newDetails(tiers ...string) map[string]map[string]bool {
	d := make(map[string]map[string]bool, len(tiers))
	for _, t := range tiers {
		d[t] = map[string]bool{}
	}
	return d
}

// sortedMatches returns the matched-signal set as a sorted slice so results
// are comparable and serialization is stable.
func sortedMatches(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
