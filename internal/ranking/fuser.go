// Package ranking merges the scorers' result sets into one ordered list.
package ranking

import (
	"sort"

	"github.com/clothify/backend/internal/search"
)

// appearanceBoost is added per extra result set a product shows up in,
// capped at a final score of 1.0.
const appearanceBoost = 0.1

// Fuse deduplicates by product id, boosts multi-set appearances, and sorts
// descending by final score. The sort is stable: ties keep the order in
// which products were first reported.
func Fuse(resultSets ...[]search.Result) []search.Result {
	merged := make(map[string]*search.Result)
	var order []string

	for _, set := range resultSets {
		for _, result := range set {
			id := result.Product.ID
			existing, ok := merged[id]
			if !ok {
				r := result
				merged[id] = &r
				order = append(order, id)
				continue
			}

			existing.Score += appearanceBoost
			if existing.Score > 1.0 {
				existing.Score = 1.0
			}
			existing.Reasons = append(existing.Reasons, result.Reasons...)

			if result.Semantic > existing.Semantic {
				existing.Semantic = result.Semantic
			}
			if result.Keyword > existing.Keyword {
				existing.Keyword = result.Keyword
			}
			if result.Personalization > existing.Personalization {
				existing.Personalization = result.Personalization
			}
		}
	}

	fused := make([]search.Result, 0, len(order))
	for _, id := range order {
		fused = append(fused, *merged[id])
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return fused
}
