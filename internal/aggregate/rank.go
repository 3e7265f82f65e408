package aggregate

import "sort"

// FilterAndRank keeps candidates with a resolved reference amount inside the
// inclusive [minRef, maxRef] bounds (nil bound = open) and orders them ascending.
// Ties keep input order.
func FilterAndRank(cands []NormalizedCandidate, minRef, maxRef *float64) []NormalizedCandidate {
	out := []NormalizedCandidate{}
	for _, c := range cands {
		if c.ReferenceAmount == nil {
			continue
		}
		v := *c.ReferenceAmount
		if minRef != nil && v < *minRef {
			continue
		}
		if maxRef != nil && v > *maxRef {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].ReferenceAmount < *out[j].ReferenceAmount
	})
	return out
}
