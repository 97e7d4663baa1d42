package semantic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/clothify/backend/internal/search"
	"github.com/clothify/backend/internal/storage/models"
	"github.com/clothify/backend/pkg/logger"
)

// minSimilarity drops products whose vocabulary barely overlaps the query.
const minSimilarity = 0.05

// IndexHit is one match from an external vector index.
type IndexHit struct {
	ProductID string
	Score     float32
}

// Index is an optional ANN backend for product vectors. The brute-force
// scan over the catalog snapshot is the fallback.
type Index interface {
	SearchVector(ctx context.Context, embedding []float32, topK int) ([]IndexHit, error)
}

type Searcher struct {
	index Index
}

// NewSearcher accepts a nil index; searches then scan in memory.
func NewSearcher(index Index) *Searcher {
	return &Searcher{index: index}
}

// ProductText is the text a product is embedded from.
func ProductText(p *models.Product) string {
	parts := []string{p.Name, p.Description, p.Brand}
	parts = append(parts, p.Styles...)
	parts = append(parts, p.Occasions...)
	return strings.Join(parts, " ")
}

func (s *Searcher) Search(ctx context.Context, query string, products []models.Product, limit int) []search.Result {
	queryVec := Embed(query)

	if s.index != nil {
		if results, err := s.searchIndex(ctx, queryVec, products, limit); err == nil {
			return results
		} else {
			logger.Warn("Vector index search failed, falling back to scan", zap.Error(err))
		}
	}

	return s.scan(query, queryVec, products, limit)
}

func (s *Searcher) searchIndex(ctx context.Context, queryVec []float64, products []models.Product, limit int) ([]search.Result, error) {
	hits, err := s.index.SearchVector(ctx, toFloat32(queryVec), limit)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	var results []search.Result
	for _, hit := range hits {
		p, ok := byID[hit.ProductID]
		if !ok {
			continue
		}
		score := clamp01(float64(hit.Score))
		if score < minSimilarity {
			continue
		}
		results = append(results, search.Result{
			Product:  *p,
			Score:    score,
			Semantic: score,
			Reasons:  []string{fmt.Sprintf("Tương đồng nội dung %.0f%%", score*100)},
		})
	}

	return results, nil
}

func (s *Searcher) scan(query string, queryVec []float64, products []models.Product, limit int) []search.Result {
	var results []search.Result
	for i := range products {
		sim := Cosine(queryVec, Embed(ProductText(&products[i])))
		if sim < minSimilarity {
			continue
		}
		results = append(results, search.Result{
			Product:  products[i],
			Score:    sim,
			Semantic: sim,
			Reasons:  []string{fmt.Sprintf("Tương đồng nội dung %.0f%%", sim*100)},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	logger.Debug("Semantic scan completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)

	return results
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
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
