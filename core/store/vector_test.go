package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("Identical vector has similarity 1", func(t *testing.T) {
		a := []float32{0.3, -0.7, 0.2}
		assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-9, "cosine of a vector with itself should be 1")
	})

	t.Run("Zero vector has similarity 0", func(t *testing.T) {
		a := []float32{0.3, -0.7, 0.2}
		zero := []float32{0, 0, 0}
		assert.Equal(t, 0.0, CosineSimilarity(a, zero), "zero norm should yield 0, not NaN")
		assert.Equal(t, 0.0, CosineSimilarity(zero, zero), "two zero vectors should yield 0")
	})

	t.Run("Orthogonal vectors have similarity 0", func(t *testing.T) {
		a := []float32{1, 0}
		b := []float32{0, 1}
		assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9, "orthogonal vectors should score 0")
	})

	t.Run("Opposite vectors have similarity -1", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{-1, -2, -3}
		assert.InDelta(t, -1.0, CosineSimilarity(a, b), 1e-9, "opposite vectors should score -1")
	})

	t.Run("Mismatched dimensions yield 0", func(t *testing.T) {
		a := []float32{1, 2}
		b := []float32{1, 2, 3}
		assert.Equal(t, 0.0, CosineSimilarity(a, b), "dimension mismatch should yield 0")
	})
}
