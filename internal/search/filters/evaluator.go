package filters

import (
	"fmt"
	"strings"

	"github.com/clothify/backend/internal/storage/models"
)

// Scoring constants. The price asymmetry is deliberate: a product under the
// requested budget is treated as closer to acceptable than one over it.
const (
	priceInRangeScore  = 1.0
	priceBelowMinScore = 0.3
	priceAboveMaxScore = 0.1

	popularitySoldCap = 1000
	trendingHighSold  = 100
	trendingMidSold   = 50
	trendingHighScore = 0.8
	trendingMidScore  = 0.6
	trendingLowScore  = 0.3

	bodyTypeDefaultScore = 0.5
)

type bodyTypeFit struct {
	score       float64
	description string
}

// bodyTypeMatrix maps body type x product fit to a compatibility verdict.
var bodyTypeMatrix = map[string]map[Fit]bodyTypeFit{
	"slim": {
		FitSlim:    {0.9, "Dáng ôm tôn dáng người gầy"},
		FitRegular: {0.8, "Form regular phù hợp người gầy"},
		FitLoose:   {0.6, "Form rộng có thể hơi thùng thình"},
	},
	"athletic": {
		FitSlim:    {0.8, "Dáng ôm khoe vóc dáng thể thao"},
		FitRegular: {0.9, "Form regular cân đối với người thể thao"},
		FitLoose:   {0.7, "Form rộng thoải mái vận động"},
	},
	"regular": {
		FitSlim:    {0.7, "Dáng ôm vừa vặn"},
		FitRegular: {0.9, "Form regular dễ mặc"},
		FitLoose:   {0.8, "Form rộng thoải mái"},
	},
	"plus": {
		FitSlim:    {0.3, "Dáng ôm không thoải mái cho người đầy đặn"},
		FitRegular: {0.7, "Form regular chấp nhận được"},
		FitLoose:   {0.9, "Form rộng che khuyết điểm tốt"},
	},
}

// Evaluate runs one independent check per populated filter field.
func Evaluate(p *models.Product, fs *FilterSet) []Match {
	var matches []Match

	if fs.Price != nil {
		matches = append(matches, evaluatePrice(p, fs.Price))
	}
	if len(fs.Colors) > 0 {
		matches = append(matches, evaluateOverlap("color", fs.Colors, ExtractColors(p), "màu sắc"))
	}
	if len(fs.Sizes) > 0 {
		matches = append(matches, evaluateOverlap("size", fs.Sizes, p.Sizes(), "size"))
	}
	if len(fs.Styles) > 0 {
		matches = append(matches, evaluateOverlap("style", fs.Styles, p.Styles, "phong cách"))
	}
	if len(fs.Occasions) > 0 {
		matches = append(matches, evaluateOverlap("occasion", fs.Occasions, p.Occasions, "dịp"))
	}
	if len(fs.Brands) > 0 {
		matches = append(matches, evaluateOverlap("brand", fs.Brands, []string{p.Brand}, "thương hiệu"))
	}
	if len(fs.Materials) > 0 {
		matches = append(matches, evaluateOverlap("material", fs.Materials, ExtractMaterials(p), "chất liệu"))
	}
	if len(fs.Seasons) > 0 {
		matches = append(matches, evaluateOverlap("season", fs.Seasons, ExtractSeasons(p), "mùa"))
	}
	if fs.BodyType != "" {
		matches = append(matches, evaluateBodyType(p, fs.BodyType))
	}
	if fs.PopularOnly {
		matches = append(matches, evaluatePopularity(p))
	}
	if fs.TrendingOnly {
		matches = append(matches, evaluateTrending(p))
	}
	if fs.MinRating > 0 {
		matches = append(matches, evaluateRating(p, fs.MinRating))
	}

	return matches
}

// Relevance is the arithmetic mean of match scores, 0 when none were
// evaluated.
func Relevance(matches []Match) float64 {
	if len(matches) == 0 {
		return 0
	}

	var total float64
	for _, m := range matches {
		total += m.Score
	}
	return total / float64(len(matches))
}

func evaluatePrice(p *models.Product, r *PriceRange) Match {
	max := r.Max
	if max == 0 {
		max = 1<<62 - 1
	}

	switch {
	case p.Price >= r.Min && p.Price <= max:
		return Match{
			Filter:      "price",
			Score:       priceInRangeScore,
			Description: fmt.Sprintf("Giá %dđ nằm trong ngân sách", p.Price),
		}
	case p.Price < r.Min:
		return Match{
			Filter:      "price",
			Score:       priceBelowMinScore,
			Description: fmt.Sprintf("Giá %dđ thấp hơn mức mong muốn", p.Price),
		}
	default:
		return Match{
			Filter:      "price",
			Score:       priceAboveMaxScore,
			Description: fmt.Sprintf("Giá %dđ vượt ngân sách", p.Price),
		}
	}
}

// evaluateOverlap scores matched/requested using case-insensitive substring
// containment in both directions.
func evaluateOverlap(filter string, requested, actual []string, label string) Match {
	matched := 0
	for _, want := range requested {
		for _, have := range actual {
			w := strings.ToLower(want)
			h := strings.ToLower(have)
			if strings.Contains(h, w) || strings.Contains(w, h) {
				matched++
				break
			}
		}
	}

	score := float64(matched) / float64(len(requested))
	return Match{
		Filter:      filter,
		Score:       score,
		Description: fmt.Sprintf("Khớp %d/%d %s yêu cầu", matched, len(requested), label),
	}
}

func evaluateBodyType(p *models.Product, bodyType string) Match {
	fit := ExtractFit(p)
	if row, ok := bodyTypeMatrix[strings.ToLower(bodyType)]; ok {
		if verdict, ok := row[fit]; ok {
			return Match{Filter: "body_type", Score: verdict.score, Description: verdict.description}
		}
	}
	return Match{Filter: "body_type", Score: bodyTypeDefaultScore, Description: "Chưa có dữ liệu dáng người phù hợp"}
}

func evaluatePopularity(p *models.Product) Match {
	score := float64(p.Sold) / popularitySoldCap
	if score > 1.0 {
		score = 1.0
	}
	return Match{
		Filter:      "popularity",
		Score:       score,
		Description: fmt.Sprintf("Đã bán %d sản phẩm", p.Sold),
	}
}

func evaluateTrending(p *models.Product) Match {
	score := trendingLowScore
	switch {
	case p.Sold > trendingHighSold:
		score = trendingHighScore
	case p.Sold > trendingMidSold:
		score = trendingMidScore
	}
	return Match{
		Filter:      "trending",
		Score:       score,
		Description: fmt.Sprintf("Mức độ thịnh hành theo %d lượt bán", p.Sold),
	}
}

func evaluateRating(p *models.Product, minRating float64) Match {
	score := 1.0
	if p.Rating < minRating {
		score = p.Rating / minRating
	}
	return Match{
		Filter:      "rating",
		Score:       score,
		Description: fmt.Sprintf("Đánh giá %.1f/5 từ %d lượt", p.Rating, p.ReviewCount),
	}
}
