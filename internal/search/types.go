// Package search holds the result contract shared by the scoring stages.
package search

import "github.com/clothify/backend/internal/storage/models"

// Result pairs a product with one stage's relevance estimate. All score
// components are in [0,1].
type Result struct {
	Product         models.Product `json:"product"`
	Score           float64        `json:"score"`
	Reasons         []string       `json:"reasons,omitempty"`
	Semantic        float64        `json:"semantic_score"`
	Keyword         float64        `json:"keyword_score"`
	Personalization float64        `json:"personalization_score"`
}
