// Package filters evaluates catalog products against structured constraint
// sets and produces per-filter match scores with human-readable reasons.
package filters

import "strings"

type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// FilterSet is a transient per-query constraint structure. Absent fields are
// skipped during evaluation, never penalized. Merging only appends/unions.
type FilterSet struct {
	Price        *PriceRange `json:"price,omitempty"`
	Colors       []string    `json:"colors,omitempty"`
	Sizes        []string    `json:"sizes,omitempty"`
	Styles       []string    `json:"styles,omitempty"`
	Occasions    []string    `json:"occasions,omitempty"`
	Brands       []string    `json:"brands,omitempty"`
	Materials    []string    `json:"materials,omitempty"`
	Seasons      []string    `json:"seasons,omitempty"`
	BodyType     string      `json:"body_type,omitempty"`
	PopularOnly  bool        `json:"popular_only,omitempty"`
	TrendingOnly bool        `json:"trending_only,omitempty"`
	MinRating    float64     `json:"min_rating,omitempty"`
}

// IsEmpty reports whether no filter field is populated. Callers must guard
// before ranking on relevance: a product with zero evaluated filters scores 0.
func (fs *FilterSet) IsEmpty() bool {
	return fs.Price == nil &&
		len(fs.Colors) == 0 && len(fs.Sizes) == 0 && len(fs.Styles) == 0 &&
		len(fs.Occasions) == 0 && len(fs.Brands) == 0 && len(fs.Materials) == 0 &&
		len(fs.Seasons) == 0 && fs.BodyType == "" &&
		!fs.PopularOnly && !fs.TrendingOnly && fs.MinRating == 0
}

// Match is one filter's verdict on a product. Score is always in [0,1].
type Match struct {
	Filter      string  `json:"filter"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// Union appends values not already present, case-insensitively. Existing
// entries are never removed; accumulation is monotonic.
func Union(dst []string, src ...string) []string {
	for _, v := range src {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		found := false
		for _, existing := range dst {
			if strings.EqualFold(existing, v) {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// Tighten narrows a price range, keeping the tighter of old and new bounds.
func (r *PriceRange) Tighten(min, max int64) {
	if min > 0 && (r.Min == 0 || min > r.Min) {
		r.Min = min
	}
	if max > 0 && (r.Max == 0 || max < r.Max) {
		r.Max = max
	}
}
