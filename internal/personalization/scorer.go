// Package personalization estimates a 0-1 affinity between a user and a
// product from the profile's style personality, accumulated preferences,
// purchase history, and the current session context.
package personalization

import (
	"fmt"
	"math"
	"strings"

	"github.com/clothify/backend/internal/conversation"
	"github.com/clothify/backend/internal/search/filters"
	"github.com/clothify/backend/internal/storage/models"
)

// Weights are the hand-tuned sub-score weights. They sum to 1.0; they are
// named configuration, not inline literals, so they can be tuned and tested
// independently of the scoring logic.
type Weights struct {
	Style      float64
	Color      float64
	Price      float64
	Brand      float64
	Occasion   float64
	Behavioral float64
}

func DefaultWeights() Weights {
	return Weights{
		Style:      0.25,
		Color:      0.20,
		Price:      0.20,
		Brand:      0.15,
		Occasion:   0.10,
		Behavioral: 0.10,
	}
}

const (
	matchScore   = 0.9
	missScore    = 0.2
	styleMiss    = 0.3
	neutralPrior = 0.5

	reasonThreshold = 0.7

	behavioralBase       = 0.5
	behavioralClickBoost = 0.3
	ratingNeutral        = 3.0
	ratingAdjustPerUnit  = 0.1
)

// styleCompatibility maps a style personality to the product style tags it
// tolerates.
var styleCompatibility = map[models.StylePersonality][]string{
	models.StyleClassic:    {"classic", "formal", "elegant", "basic"},
	models.StyleCasual:     {"casual", "sport", "street"},
	models.StyleTrendy:     {"trendy", "street", "vintage", "y2k"},
	models.StyleMinimalist: {"minimalist", "basic", "classic"},
	models.StyleBold:       {"bold", "street", "sport", "vintage"},
}

type Score struct {
	Overall         float64  `json:"overall"`
	StyleMatch      float64  `json:"style_match"`
	ColorMatch      float64  `json:"color_match"`
	PriceMatch      float64  `json:"price_match"`
	BrandMatch      float64  `json:"brand_match"`
	OccasionMatch   float64  `json:"occasion_match"`
	BehavioralMatch float64  `json:"behavioral_match"`
	Reasons         []string `json:"reasons,omitempty"`
}

type Scorer struct {
	weights Weights
	lookup  func(id string) *models.Product
}

// NewScorer takes a catalog lookup used to resolve clicked/rated product ids
// when judging similarity. A nil lookup disables history-based signals.
func NewScorer(weights Weights, lookup func(id string) *models.Product) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights, lookup: lookup}
}

func (s *Scorer) Score(p *models.Product, profile *models.UserProfile, sessionCtx *conversation.Context) Score {
	if profile == nil {
		profile = &models.UserProfile{}
	}

	score := Score{
		StyleMatch:      s.styleMatch(p, profile),
		ColorMatch:      s.colorMatch(p, profile),
		PriceMatch:      s.priceMatch(p, profile, sessionCtx),
		BrandMatch:      s.brandMatch(p, profile),
		OccasionMatch:   s.occasionMatch(p, sessionCtx),
		BehavioralMatch: s.behavioralMatch(p, profile),
	}

	score.Overall = s.weights.Style*score.StyleMatch +
		s.weights.Color*score.ColorMatch +
		s.weights.Price*score.PriceMatch +
		s.weights.Brand*score.BrandMatch +
		s.weights.Occasion*score.OccasionMatch +
		s.weights.Behavioral*score.BehavioralMatch

	score.Reasons = collectReasons(score, profile)
	return score
}

func (s *Scorer) styleMatch(p *models.Product, profile *models.UserProfile) float64 {
	if profile.StylePersonality == "" {
		return neutralPrior
	}

	compatible := styleCompatibility[profile.StylePersonality]
	for _, tag := range p.Styles {
		for _, want := range compatible {
			if strings.EqualFold(tag, want) {
				return matchScore
			}
		}
	}
	return styleMiss
}

func (s *Scorer) colorMatch(p *models.Product, profile *models.UserProfile) float64 {
	if len(profile.ColorPreferences) == 0 {
		return neutralPrior
	}
	if overlaps(filters.ExtractColors(p), profile.ColorPreferences) {
		return matchScore
	}
	return missScore
}

// priceMatch prefers the session's current price range; without one it falls
// back to distance from the user's historical average purchase price.
func (s *Scorer) priceMatch(p *models.Product, profile *models.UserProfile, sessionCtx *conversation.Context) float64 {
	if sessionCtx != nil && sessionCtx.Preferences.Price != nil {
		r := sessionCtx.Preferences.Price
		max := r.Max
		if max == 0 {
			max = math.MaxInt64
		}
		if p.Price >= r.Min && p.Price <= max {
			return matchScore
		}
	}

	avg := profile.AveragePurchasePrice()
	if avg == 0 {
		return neutralPrior
	}

	deviation := math.Abs(float64(p.Price-avg)) / float64(avg)
	switch {
	case deviation <= 0.3:
		return 0.8
	case deviation <= 0.5:
		return 0.6
	default:
		return 0.3
	}
}

func (s *Scorer) brandMatch(p *models.Product, profile *models.UserProfile) float64 {
	if len(profile.BrandPreferences) == 0 {
		return neutralPrior
	}
	if overlaps([]string{p.Brand}, profile.BrandPreferences) {
		return matchScore
	}
	return missScore
}

func (s *Scorer) occasionMatch(p *models.Product, sessionCtx *conversation.Context) float64 {
	if sessionCtx == nil || len(sessionCtx.Preferences.Occasions) == 0 {
		return neutralPrior
	}
	if overlaps(p.Occasions, sessionCtx.Preferences.Occasions) {
		return matchScore
	}
	return missScore
}

// behavioralMatch starts neutral, rewards clicks on similar products, and
// nudges by how the user rated similar products relative to a neutral 3.
func (s *Scorer) behavioralMatch(p *models.Product, profile *models.UserProfile) float64 {
	score := behavioralBase

	if s.clickedSimilar(p, profile) {
		score += behavioralClickBoost
	}

	if avg, ok := s.averageSimilarRating(p, profile); ok {
		score += (avg - ratingNeutral) * ratingAdjustPerUnit
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func (s *Scorer) clickedSimilar(p *models.Product, profile *models.UserProfile) bool {
	for _, record := range profile.Searches {
		for _, id := range record.ClickedIDs {
			if id == p.ID {
				return true
			}
			if s.lookup == nil {
				continue
			}
			if clicked := s.lookup(id); clicked != nil && IsSimilar(p, clicked) {
				return true
			}
		}
	}
	return false
}

// averageSimilarRating averages the user's ratings on products similar to p.
func (s *Scorer) averageSimilarRating(p *models.Product, profile *models.UserProfile) (float64, bool) {
	if len(profile.Ratings) == 0 || s.lookup == nil {
		return 0, false
	}

	var total float64
	count := 0
	for _, rating := range profile.Ratings {
		rated := s.lookup(rating.ProductID)
		if rated == nil {
			continue
		}
		if rating.ProductID != p.ID && !IsSimilar(p, rated) {
			continue
		}
		total += float64(rating.Rating)
		count++
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

// IsSimilar: prices within 50% of each other and a shared style tag or color.
func IsSimilar(a, b *models.Product) bool {
	if a.Price == 0 || b.Price == 0 {
		return false
	}
	ratio := float64(a.Price) / float64(b.Price)
	if ratio < 0.5 || ratio > 1.5 {
		return false
	}
	return overlaps(a.Styles, b.Styles) || overlaps(filters.ExtractColors(a), filters.ExtractColors(b))
}

func collectReasons(score Score, profile *models.UserProfile) []string {
	var reasons []string
	if score.StyleMatch > reasonThreshold {
		reasons = append(reasons, fmt.Sprintf("Hợp phong cách %s của bạn", profile.StylePersonality))
	}
	if score.ColorMatch > reasonThreshold {
		reasons = append(reasons, "Có màu bạn yêu thích")
	}
	if score.PriceMatch > reasonThreshold {
		reasons = append(reasons, "Giá phù hợp với ngân sách của bạn")
	}
	if score.BrandMatch > reasonThreshold {
		reasons = append(reasons, "Thương hiệu bạn hay chọn")
	}
	if score.OccasionMatch > reasonThreshold {
		reasons = append(reasons, "Phù hợp dịp bạn đang tìm")
	}
	if score.BehavioralMatch > reasonThreshold {
		reasons = append(reasons, "Tương tự sản phẩm bạn từng quan tâm")
	}
	return reasons
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			lx := strings.ToLower(x)
			ly := strings.ToLower(y)
			if lx == "" || ly == "" {
				continue
			}
			if strings.Contains(lx, ly) || strings.Contains(ly, lx) {
				return true
			}
		}
	}
	return false
}
