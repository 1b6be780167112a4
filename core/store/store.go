// Package store holds the indexed medical knowledge base: documents plus
// their embeddings, keyed by document id, with cosine-similarity search.
package store

import (
	"context"

	"github.com/curatohealth/medrag/model"
)

// VectorStore is the shared index over the medical knowledge base. Indexing
// is the only mutator; searches never modify the store and concurrent reads
// against a rare re-index must never observe a partially-updated state.
type VectorStore interface {
	// Index embeds and stores the given documents. Per-document embedding
	// failures are logged and skipped; a store with zero documents is valid.
	// Re-indexing an existing document id replaces the prior entry.
	Index(ctx context.Context, documents []*model.MedicalDocument) error

	// Search returns at most topK results ordered by descending cosine
	// similarity to the query vector, ties broken by insertion order.
	// An empty store yields an empty result, not an error.
	Search(ctx context.Context, queryVector []float32, topK int) ([]*model.SearchResult, error)

	// Count returns the number of indexed documents.
	Count(ctx context.Context) (int, error)

	// Clear removes every indexed entry.
	Clear(ctx context.Context) error
}
