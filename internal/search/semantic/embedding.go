// Package semantic implements retrieval over hashed bag-of-words vectors.
// The embedding is a deterministic stand-in for a trained model: any real
// embedding service can replace Embed as long as vectors stay L2-normalized
// and Cosine keeps its zero-vector guard.
package semantic

import (
	"hash/fnv"
	"math"
	"strings"
)

// VectorDim is the fixed embedding length.
const VectorDim = 384

// Embed tokenizes on whitespace, buckets each token by hash, and
// L2-normalizes the counts. Empty text yields the zero vector.
func Embed(text string) []float64 {
	vec := make([]float64, VectorDim)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%VectorDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}

	return vec
}

// Cosine returns 0 when either vector is all-zero.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
