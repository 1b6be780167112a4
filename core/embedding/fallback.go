package embedding

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math/rand"
)

// FallbackEmbedder decorates a backend embedder with the degraded-mode
// fallback: when the backend fails, it substitutes a pseudo-random vector of
// the same dimension so ranking stays well-defined and the pipeline stays
// live. The substitution is logged distinctly from a genuine embedding so
// confidence figures can be audited later.
type FallbackEmbedder struct {
	backend Embedder
	log     *slog.Logger
}

// NewFallbackEmbedder wraps the given backend.
func NewFallbackEmbedder(backend Embedder, logger *slog.Logger) *FallbackEmbedder {
	return &FallbackEmbedder{
		backend: backend,
		log:     logger,
	}
}

// Embed delegates to the backend and substitutes the fallback vector on
// failure. The second return value reports whether the fallback was used.
func (e *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, bool) {
	vector, err := e.backend.Embed(ctx, text)
	if err == nil && len(vector) == e.backend.Dimensions() {
		return vector, false
	}

	if err != nil {
		e.log.Warn("Embedding backend failed, substituting fallback vector",
			slog.String("error", err.Error()),
			slog.Bool("fallback", true),
		)
	} else {
		e.log.Warn("Embedding backend returned wrong dimension, substituting fallback vector",
			slog.Int("got", len(vector)),
			slog.Int("want", e.backend.Dimensions()),
			slog.Bool("fallback", true),
		)
	}

	return FallbackVector(text, e.backend.Dimensions()), true
}

// Dimensions returns the backend's fixed vector length.
func (e *FallbackEmbedder) Dimensions() int {
	return e.backend.Dimensions()
}

// FallbackVector produces a pseudo-random vector of the given dimension.
// It is seeded from the text so repeated calls for the same query are
// comparable within one process run.
func FallbackVector(text string, dimensions int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vector := make([]float32, dimensions)
	for i := range vector {
		vector[i] = rng.Float32()*2 - 1
	}
	return vector
}
