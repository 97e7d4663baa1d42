package personalization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clothify/backend/internal/conversation"
	"github.com/clothify/backend/internal/search/filters"
	"github.com/clothify/backend/internal/storage/models"
)

func testScorerProduct() *models.Product {
	return &models.Product{
		ID:     "p1",
		Name:   "Áo sơ mi trắng",
		Price:  250000,
		Brand:  "Coolmate",
		Styles: []string{"casual"},
		Variants: []models.Variant{
			{SKU: "p1-trang-m", Color: "trắng", Size: "M"},
		},
	}
}

func testProfile() *models.UserProfile {
	return &models.UserProfile{
		ID:               "u1",
		StylePersonality: models.StyleCasual,
		ColorPreferences: []string{"trắng"},
	}
}

func sessionWithPrice(min, max int64) *conversation.Context {
	ctx := conversation.NewContext("s1", "u1")
	ctx.Preferences.Price = &filters.PriceRange{Min: min, Max: max}
	return ctx
}

func lookupFor(products ...*models.Product) func(id string) *models.Product {
	return func(id string) *models.Product {
		for _, p := range products {
			if p.ID == id {
				return p
			}
		}
		return nil
	}
}

func TestNewScorer_ZeroWeightsFallBackToDefaults(t *testing.T) {
	scorer := NewScorer(Weights{}, nil)

	score := scorer.Score(testScorerProduct(), testProfile(), sessionWithPrice(0, 300000))

	assert.InDelta(t, 0.735, score.Overall, 1e-9)
}

func TestScore_CompositeWeighting(t *testing.T) {
	// style, color and price all match; brand, occasion and behavioral
	// signals stay neutral at 0.5
	scorer := NewScorer(DefaultWeights(), nil)

	score := scorer.Score(testScorerProduct(), testProfile(), sessionWithPrice(0, 300000))

	assert.Equal(t, 0.9, score.StyleMatch)
	assert.Equal(t, 0.9, score.ColorMatch)
	assert.Equal(t, 0.9, score.PriceMatch)
	assert.Equal(t, 0.5, score.BrandMatch)
	assert.Equal(t, 0.5, score.OccasionMatch)
	assert.Equal(t, 0.5, score.BehavioralMatch)
	assert.InDelta(t, 0.735, score.Overall, 1e-9)
}

func TestScore_NilProfileStaysNeutral(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), nil)

	score := scorer.Score(testScorerProduct(), nil, conversation.NewContext("s1", ""))

	assert.Equal(t, 0.5, score.StyleMatch)
	assert.Equal(t, 0.5, score.ColorMatch)
	assert.Equal(t, 0.5, score.PriceMatch)
	assert.Equal(t, 0.5, score.BrandMatch)
	assert.InDelta(t, 0.5, score.Overall, 1e-9)
}

func TestScore_Misses(t *testing.T) {
	profile := testProfile()
	profile.ColorPreferences = []string{"đỏ"}
	profile.BrandPreferences = []string{"Nike"}

	product := testScorerProduct()
	product.Styles = []string{"formal"}

	scorer := NewScorer(DefaultWeights(), nil)
	score := scorer.Score(product, profile, conversation.NewContext("s1", "u1"))

	assert.Equal(t, 0.3, score.StyleMatch)
	assert.Equal(t, 0.2, score.ColorMatch)
	assert.Equal(t, 0.2, score.BrandMatch)
}

func TestPriceMatch_HistoricalFallback(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), nil)

	profile := testProfile()
	profile.Purchases = []models.Purchase{
		{ProductID: "old1", Price: 200000, CreatedAt: time.Now()},
		{ProductID: "old2", Price: 300000, CreatedAt: time.Now()},
	}

	tests := []struct {
		name     string
		price    int64
		expected float64
	}{
		{name: "close to average", price: 260000, expected: 0.8},
		{name: "moderate deviation", price: 350000, expected: 0.6},
		{name: "far from average", price: 900000, expected: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := testScorerProduct()
			product.Price = tt.price
			score := scorer.Score(product, profile, conversation.NewContext("s1", "u1"))
			assert.Equal(t, tt.expected, score.PriceMatch)
		})
	}
}

func TestBehavioralMatch(t *testing.T) {
	clicked := &models.Product{
		ID:     "c1",
		Price:  260000,
		Styles: []string{"casual"},
	}

	t.Run("click on similar product boosts", func(t *testing.T) {
		profile := testProfile()
		profile.Searches = []models.SearchRecord{
			{Query: "áo sơ mi", ClickedIDs: []string{"c1"}, CreatedAt: time.Now()},
		}

		scorer := NewScorer(DefaultWeights(), lookupFor(clicked))
		score := scorer.Score(testScorerProduct(), profile, conversation.NewContext("s1", "u1"))

		assert.Equal(t, 0.8, score.BehavioralMatch)
	})

	t.Run("high rating on similar product nudges up", func(t *testing.T) {
		profile := testProfile()
		profile.Ratings = []models.ProductRating{
			{ProductID: "c1", Rating: 5, CreatedAt: time.Now()},
		}

		scorer := NewScorer(DefaultWeights(), lookupFor(clicked))
		score := scorer.Score(testScorerProduct(), profile, conversation.NewContext("s1", "u1"))

		// 0.5 base + (5-3)*0.1
		assert.InDelta(t, 0.7, score.BehavioralMatch, 1e-9)
	})

	t.Run("low rating on similar product nudges down", func(t *testing.T) {
		profile := testProfile()
		profile.Ratings = []models.ProductRating{
			{ProductID: "c1", Rating: 1, CreatedAt: time.Now()},
		}

		scorer := NewScorer(DefaultWeights(), lookupFor(clicked))
		score := scorer.Score(testScorerProduct(), profile, conversation.NewContext("s1", "u1"))

		assert.InDelta(t, 0.3, score.BehavioralMatch, 1e-9)
	})

	t.Run("stays clamped to unit interval", func(t *testing.T) {
		profile := testProfile()
		profile.Searches = []models.SearchRecord{
			{Query: "áo sơ mi", ClickedIDs: []string{"c1"}, CreatedAt: time.Now()},
		}
		profile.Ratings = []models.ProductRating{
			{ProductID: "c1", Rating: 5, CreatedAt: time.Now()},
		}

		scorer := NewScorer(DefaultWeights(), lookupFor(clicked))
		score := scorer.Score(testScorerProduct(), profile, conversation.NewContext("s1", "u1"))

		assert.Equal(t, 1.0, score.BehavioralMatch)
	})
}

func TestIsSimilar(t *testing.T) {
	base := testScorerProduct()

	tests := []struct {
		name     string
		other    *models.Product
		expected bool
	}{
		{
			name:     "similar price and shared style",
			other:    &models.Product{ID: "o1", Price: 300000, Styles: []string{"casual"}},
			expected: true,
		},
		{
			name:     "similar price and shared color",
			other:    &models.Product{ID: "o2", Price: 200000, Variants: []models.Variant{{Color: "trắng"}}},
			expected: true,
		},
		{
			name:     "price too far apart",
			other:    &models.Product{ID: "o3", Price: 900000, Styles: []string{"casual"}},
			expected: false,
		},
		{
			name:     "nothing shared",
			other:    &models.Product{ID: "o4", Price: 250000, Styles: []string{"formal"}},
			expected: false,
		},
		{
			name:     "zero price never similar",
			other:    &models.Product{ID: "o5", Styles: []string{"casual"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSimilar(base, tt.other))
		})
	}
}

func TestScore_Reasons(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), nil)

	score := scorer.Score(testScorerProduct(), testProfile(), sessionWithPrice(0, 300000))

	assert.Contains(t, score.Reasons, "Có màu bạn yêu thích")
	assert.Contains(t, score.Reasons, "Giá phù hợp với ngân sách của bạn")
	assert.NotContains(t, score.Reasons, "Thương hiệu bạn hay chọn")
}
