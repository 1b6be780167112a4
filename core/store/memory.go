package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/curatohealth/medrag/core/embedding"
	"github.com/curatohealth/medrag/model"
)

// indexedEntry owns a document plus its computed embedding.
type indexedEntry struct {
	document  *model.MedicalDocument
	embedding []float32
	// sequence preserves original insertion order for stable tie-breaks.
	// Re-indexing the same id keeps the original sequence.
	sequence int
}

// MemoryStore is the in-process vector store. Reads are concurrent; the rare
// index mutation is serialized behind a readers-writer lock so searches never
// observe a partially-updated store.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]*indexedEntry
	embedder embedding.Embedder
	log      *slog.Logger
	nextSeq  int
}

// NewMemoryStore creates an empty in-memory store using the given embedder
// for indexing.
func NewMemoryStore(embedder embedding.Embedder, logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]*indexedEntry),
		embedder: embedder,
		log:      logger,
	}
}

// Index embeds and stores the given documents. A document whose embedding
// fails is logged and skipped; partial indexing is tolerated.
func (s *MemoryStore) Index(ctx context.Context, documents []*model.MedicalDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

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
		if len(vector) != s.embedder.Dimensions() {
			s.log.Warn("Skipping document, embedding has wrong dimension",
				slog.String("document_id", doc.ID),
				slog.Int("got", len(vector)),
				slog.Int("want", s.embedder.Dimensions()),
			)
			continue
		}

		if existing, ok := s.entries[doc.ID]; ok {
			// Last write wins, original insertion order is kept.
			existing.document = doc
			existing.embedding = vector
			continue
		}

		s.entries[doc.ID] = &indexedEntry{
			document:  doc,
			embedding: vector,
			sequence:  s.nextSeq,
		}
		s.nextSeq++
	}

	s.log.Info("Indexed documents", slog.Int("store_size", len(s.entries)))

	return nil
}

// Search scores the query vector against every stored embedding and returns
// at most topK results, descending by similarity, stable on ties.
func (s *MemoryStore) Search(ctx context.Context, queryVector []float32, topK int) ([]*model.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 || len(s.entries) == 0 {
		return []*model.SearchResult{}, nil
	}

	type scored struct {
		entry      *indexedEntry
		similarity float64
	}

	results := make([]scored, 0, len(s.entries))
	for _, entry := range s.entries {
		results = append(results, scored{
			entry:      entry,
			similarity: CosineSimilarity(queryVector, entry.embedding),
		})
	}

	// Order by insertion sequence first so the similarity sort is stable
	// against the map's iteration order.
	sort.Slice(results, func(i, j int) bool {
		return results[i].entry.sequence < results[j].entry.sequence
	})
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].similarity > results[j].similarity
	})

	if len(results) > topK {
		results = results[:topK]
	}

	searchResults := make([]*model.SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = &model.SearchResult{
			Document:   r.entry.document,
			Similarity: r.similarity,
		}
	}

	return searchResults, nil
}

// Count returns the number of indexed documents.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries), nil
}

// Clear removes every indexed entry.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*indexedEntry)
	s.nextSeq = 0
	return nil
}
