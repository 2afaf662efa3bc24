package catalog

import (
	"sort"
	"time"
)

// CheapestLatest reduces price observations to the most recent one per
// offer and returns the lowest unit price among those. Ties go to the
// lowest offer id.
func CheapestLatest(prices []OfferPrice, asOf time.Time) (OfferPrice, bool) {
	latest := make(map[string]OfferPrice)
	for _, p := range prices {
		if !asOf.IsZero() && p.EffectiveDate.After(asOf) {
			continue
		}
		cur, ok := latest[p.OfferID]
		if !ok || p.EffectiveDate.After(cur.EffectiveDate) {
			latest[p.OfferID] = p
		}
	}

	if len(latest) == 0 {
		return OfferPrice{}, false
	}

	candidates := make([]OfferPrice, 0, len(latest))
	for _, p := range latest {
		candidates = append(candidates, p)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].UnitPrice != candidates[j].UnitPrice {
			return candidates[i].UnitPrice < candidates[j].UnitPrice
		}
		return candidates[i].OfferID < candidates[j].OfferID
	})

	return candidates[0], true
}
