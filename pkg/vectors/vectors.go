// Package vectors provides utilities for embedding vectors (L2 normalization
// and cosine similarity).
package vectors

import (
	"math"
)

// NormalizeL2 takes a raw embedding vector and normalizes it to a length of 1.
// It modifies the slice in-place to save allocations on bulk recompute paths.
func NormalizeL2(vector []float32) {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	// Avoid division by zero (though a valid embedding will never be all zeros)
	if sumSquares == 0 {
		return
	}

	magnitude := math.Sqrt(sumSquares)

	for i := range vector {
		vector[i] = float32(float64(vector[i]) / magnitude)
	}
}

// CosineSimilarity returns the cosine similarity of a and b in [-1, 1].
// Returns 0 for empty, mismatched, or zero-norm inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CosineScore maps cosine similarity to a bounded score in [0, 1].
// Similarities below zero clamp to 0 so callers can treat the score as a
// ranking weight without sign handling.
func CosineScore(a, b []float32) float64 {
	sim := CosineSimilarity(a, b)
	if sim < 0 {
		return 0
	}

	if sim > 1 {
		return 1
	}

	return sim
}
