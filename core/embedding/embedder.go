// Package embedding turns text into fixed-length vectors for similarity
// search. Backends share one embedding dimension; every vector stored or
// compared in the pipeline must have exactly that many components.
package embedding

import (
	"context"
	"errors"
)

// ErrEmbeddingUnavailable signals that the embedding backend could not
// produce a vector (network error, malformed response, missing credential).
// It is recovered locally via the fallback embedder and never surfaced to
// the pipeline's caller.
var ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

// Embedder generates a fixed-length vector for a non-empty text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// EmbedFunc adapts a plain function to the Embedder interface with a fixed
// dimension, mainly for tests and examples.
type EmbedFunc struct {
	Fn  func(ctx context.Context, text string) ([]float32, error)
	Dim int
}

func (f EmbedFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.Fn(ctx, text)
}

func (f EmbedFunc) Dimensions() int {
	return f.Dim
}
