package semantic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clothify/backend/internal/storage/models"
)

func searcherCatalog() []models.Product {
	return []models.Product{
		{ID: "p1", Name: "áo khoác dù nam", Description: "chống nước"},
		{ID: "p2", Name: "áo thun cotton", Description: "thoáng mát"},
		{ID: "p3", Name: "giày sneaker trắng", Description: "đế cao su"},
	}
}

type fakeIndex struct {
	hits []IndexHit
	err  error
}

func (f *fakeIndex) SearchVector(_ context.Context, _ []float32, _ int) ([]IndexHit, error) {
	return f.hits, f.err
}

func TestSearch_ScanRanksByOverlap(t *testing.T) {
	searcher := NewSearcher(nil)

	results := searcher.Search(context.Background(), "áo khoác chống nước", searcherCatalog(), 10)

	require.NotEmpty(t, results)
	assert.Equal(t, "p1", results[0].Product.ID)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, minSimilarity)
		assert.LessOrEqual(t, r.Score, 1.0)
		assert.Equal(t, r.Score, r.Semantic)
	}
}

func TestSearch_ScanRespectsLimit(t *testing.T) {
	searcher := NewSearcher(nil)

	results := searcher.Search(context.Background(), "áo", searcherCatalog(), 1)
	assert.Len(t, results, 1)
}

func TestSearch_IndexHitsResolveProducts(t *testing.T) {
	searcher := NewSearcher(&fakeIndex{hits: []IndexHit{
		{ProductID: "p2", Score: 0.8},
		{ProductID: "unknown", Score: 0.9},
		{ProductID: "p1", Score: 0.01},
	}})

	results := searcher.Search(context.Background(), "áo thun", searcherCatalog(), 10)

	// unknown ids and sub-threshold scores are dropped
	require.Len(t, results, 1)
	assert.Equal(t, "p2", results[0].Product.ID)
	assert.InDelta(t, 0.8, results[0].Score, 1e-6)
}

func TestSearch_IndexErrorFallsBackToScan(t *testing.T) {
	searcher := NewSearcher(&fakeIndex{err: errors.New("index unavailable")})

	results := searcher.Search(context.Background(), "áo khoác", searcherCatalog(), 10)

	require.NotEmpty(t, results)
	assert.Equal(t, "p1", results[0].Product.ID)
}

func TestProductText_IncludesTags(t *testing.T) {
	p := &models.Product{
		Name:      "Áo sơ mi",
		Brand:     "Coolmate",
		Styles:    []string{"formal"},
		Occasions: []string{"đi làm"},
	}

	text := ProductText(p)
	assert.Contains(t, text, "Áo sơ mi")
	assert.Contains(t, text, "Coolmate")
	assert.Contains(t, text, "formal")
	assert.Contains(t, text, "đi làm")
}
