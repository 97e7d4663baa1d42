package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clothify/backend/internal/storage/models"
)

// LexicalScore rates a product against a free-text query using substring
// containment and token overlap over name and description.
func LexicalScore(query string, p *models.Product) (float64, []string) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0, nil
	}

	name := strings.ToLower(p.Name)
	description := strings.ToLower(p.Description)

	if strings.Contains(name, q) || strings.Contains(q, name) {
		return 1.0, []string{fmt.Sprintf("Tên sản phẩm khớp với '%s'", query)}
	}

	tokens := strings.Fields(q)
	if len(tokens) == 0 {
		return 0, nil
	}

	nameHits := 0
	descHits := 0
	for _, token := range tokens {
		if strings.Contains(name, token) {
			nameHits++
		} else if strings.Contains(description, token) {
			descHits++
		}
	}

	score := (float64(nameHits) + 0.5*float64(descHits)) / float64(len(tokens))
	if score > 1.0 {
		score = 1.0
	}

	var reasons []string
	if score > 0 {
		reasons = append(reasons, fmt.Sprintf("Khớp %d/%d từ khóa", nameHits+descHits, len(tokens)))
	}

	return score, reasons
}

// Lexical runs LexicalScore over a catalog snapshot and keeps non-zero hits.
func Lexical(query string, products []models.Product, limit int) []Result {
	var results []Result
	for i := range products {
		score, reasons := LexicalScore(query, &products[i])
		if score <= 0 {
			continue
		}
		results = append(results, Result{
			Product: products[i],
			Score:   score,
			Keyword: score,
			Reasons: reasons,
		})
	}

	SortByScore(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// SortByScore orders descending by score; stable so equal scores keep
// catalog order.
func SortByScore(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
