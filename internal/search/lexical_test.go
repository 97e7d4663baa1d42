package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clothify/backend/internal/storage/models"
)

func testCatalog() []models.Product {
	return []models.Product{
		{ID: "p1", Name: "Áo khoác dù nam", Description: "Chống nước, phù hợp mùa mưa"},
		{ID: "p2", Name: "Áo thun cotton", Description: "Vải cotton thoáng mát"},
		{ID: "p3", Name: "Quần jean ống rộng", Description: "Phong cách street"},
	}
}

func TestLexicalScore(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		product  models.Product
		validate func(t *testing.T, score float64)
	}{
		{
			name:    "query contained in name is a full match",
			query:   "áo khoác",
			product: models.Product{Name: "Áo khoác dù nam"},
			validate: func(t *testing.T, score float64) {
				assert.Equal(t, 1.0, score)
			},
		},
		{
			name:    "name contained in query is a full match",
			query:   "tôi muốn mua áo thun cotton đẹp",
			product: models.Product{Name: "Áo thun cotton"},
			validate: func(t *testing.T, score float64) {
				assert.Equal(t, 1.0, score)
			},
		},
		{
			name:    "description hits weigh half",
			query:   "cotton",
			product: models.Product{Name: "Áo thun", Description: "vải cotton"},
			validate: func(t *testing.T, score float64) {
				assert.Equal(t, 0.5, score)
			},
		},
		{
			name:    "no overlap scores zero",
			query:   "giày sneaker",
			product: models.Product{Name: "Áo khoác", Description: "chống nước"},
			validate: func(t *testing.T, score float64) {
				assert.Zero(t, score)
			},
		},
		{
			name:    "empty query scores zero",
			query:   "   ",
			product: models.Product{Name: "Áo khoác"},
			validate: func(t *testing.T, score float64) {
				assert.Zero(t, score)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := LexicalScore(tt.query, &tt.product)
			tt.validate(t, score)
		})
	}
}

func TestLexical_RanksAndFilters(t *testing.T) {
	results := Lexical("áo khoác", testCatalog(), 10)

	require.NotEmpty(t, results)
	assert.Equal(t, "p1", results[0].Product.ID)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, results[0].Score, results[0].Keyword)

	for _, r := range results {
		assert.NotEqual(t, "p3", r.Product.ID)
		assert.Greater(t, r.Score, 0.0)
	}
}

func TestLexical_RespectsLimit(t *testing.T) {
	results := Lexical("áo", testCatalog(), 1)
	assert.Len(t, results, 1)
}

func TestSortByScore_StableOnTies(t *testing.T) {
	results := []Result{
		{Product: models.Product{ID: "a"}, Score: 0.5},
		{Product: models.Product{ID: "b"}, Score: 0.9},
		{Product: models.Product{ID: "c"}, Score: 0.5},
	}

	SortByScore(results)

	assert.Equal(t, "b", results[0].Product.ID)
	assert.Equal(t, "a", results[1].Product.ID)
	assert.Equal(t, "c", results[2].Product.ID)
}
