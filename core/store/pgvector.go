package store

import (
	"context"
	"log/slog"

	"github.com/curatohealth/medrag/core/embedding"
	"github.com/curatohealth/medrag/database"
	"github.com/curatohealth/medrag/model"
)

// PgVectorStore is the persistent variant of the vector store, backed by a
// pgvector table. It implements the same contract as MemoryStore, so the
// pipeline can be pointed at either.
type PgVectorStore struct {
	entries  *database.EntriesDBHandler
	embedder embedding.Embedder
	log      *slog.Logger
}

// NewPgVectorStore creates a store over the given entries handler.
func NewPgVectorStore(entries *database.EntriesDBHandler, embedder embedding.Embedder, logger *slog.Logger) *PgVectorStore {
	return &PgVectorStore{
		entries:  entries,
		embedder: embedder,
		log:      logger,
	}
}

// Index embeds and upserts the given documents. A document whose embedding
// fails is logged and skipped.
func (s *PgVectorStore) Index(ctx context.Context, documents []*model.MedicalDocument) error {
	for _, doc := range documents {
		if doc == nil || doc.ID == "" {
			continue
		}

		vector, err := s.embedder.Embed(ctx, doc.Content)
		if err != nil {
			s.log.Warn("Skipping document, embedding failed",
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := s.entries.UpsertEntry(doc, vector); err != nil {
			return err
		}
	}

	return nil
}

// Search returns at most topK results by descending cosine similarity.
func (s *PgVectorStore) Search(ctx context.Context, queryVector []float32, topK int) ([]*model.SearchResult, error) {
	if topK <= 0 {
		return []*model.SearchResult{}, nil
	}

	results, err := s.entries.SelectEntriesBySimilarity(queryVector, topK)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []*model.SearchResult{}
	}

	return results, nil
}

// Count returns the number of indexed documents.
func (s *PgVectorStore) Count(ctx context.Context) (int, error) {
	return s.entries.CountEntries()
}

// Clear removes every indexed entry.
func (s *PgVectorStore) Clear(ctx context.Context) error {
	return s.entries.DeleteAllEntries()
}
