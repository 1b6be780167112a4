// Package retrieval ranks stored documents against a query vector and applies
// the similarity threshold policy that decides which results are reported as
// sources.
package retrieval

import (
	"context"
	"log/slog"

	"github.com/curatohealth/medrag/core/store"
	"github.com/curatohealth/medrag/model"
)

// Engine performs similarity search over a vector store.
type Engine struct {
	store store.VectorStore
	log   *slog.Logger
}

// NewEngine creates a retrieval engine over the given store.
func NewEngine(vectorStore store.VectorStore, logger *slog.Logger) *Engine {
	return &Engine{
		store: vectorStore,
		log:   logger,
	}
}

// Retrieval holds the outcome of one similarity search.
type Retrieval struct {
	// Results are all computed results, up to TopK, by descending similarity.
	Results []*model.SearchResult
	// Qualifying are the results reported as sources: those meeting the
	// similarity threshold, or the best-available results unfiltered when
	// none clear it.
	Qualifying []*model.SearchResult
	// ThresholdMet is true when at least one result cleared the threshold.
	ThresholdMet bool
	// TopSimilarity is the best similarity found, 0 when nothing matched.
	TopSimilarity float64
}

// Retrieve searches the store with the given query vector and applies the
// threshold gate from config. An empty store yields an empty retrieval, not
// an error.
func (e *Engine) Retrieve(ctx context.Context, queryVector []float32, config *model.QueryConfig) (*Retrieval, error) {
	results, err := e.store.Search(ctx, queryVector, config.TopK)
	if err != nil {
		return nil, err
	}

	retrieval := &Retrieval{
		Results:    results,
		Qualifying: []*model.SearchResult{},
	}
	if len(results) == 0 {
		return retrieval, nil
	}

	retrieval.TopSimilarity = results[0].Similarity

	for _, result := range results {
		if result.Similarity >= config.SimilarityThreshold {
			retrieval.Qualifying = append(retrieval.Qualifying, result)
		}
	}
	retrieval.ThresholdMet = len(retrieval.Qualifying) > 0

	// No result cleared the threshold: report the best-available results
	// unfiltered rather than failing, with correspondingly low confidence.
	if !retrieval.ThresholdMet {
		retrieval.Qualifying = results
		e.log.Debug("No result met similarity threshold, using best available",
			slog.Float64("top_similarity", retrieval.TopSimilarity),
			slog.Float64("threshold", config.SimilarityThreshold),
		)
	}

	return retrieval, nil
}
