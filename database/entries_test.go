package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatohealth/medrag/model"
)

func testDocument(id, content string) *model.MedicalDocument {
	return &model.MedicalDocument{
		ID:      id,
		Title:   "Title of " + id,
		Content: content,
		Metadata: model.DocumentMetadata{
			Source:      "test_source",
			Speciality:  "general",
			Condition:   "test",
			LastUpdated: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Reliability: model.ReliabilityHigh,
		},
	}
}

func TestNewEntriesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewEntriesDBHandler", func(t *testing.T) {
		entriesDbHandler, err := NewEntriesDBHandler(database, 3, true)
		assert.NoError(t, err, "Expected NewEntriesDBHandler to not return an error")
		require.NotNil(t, entriesDbHandler, "Expected NewEntriesDBHandler to return a non-nil instance")
		require.NotNil(t, entriesDbHandler.db, "Expected NewEntriesDBHandler to have a non-nil database instance")
		require.NotNil(t, entriesDbHandler.db.Instance, "Expected NewEntriesDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewEntriesDBHandler with nil database", func(t *testing.T) {
		_, err := NewEntriesDBHandler(nil, 3, false)
		assert.Error(t, err, "Expected error when creating EntriesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestEntriesUpsert(t *testing.T) {
	database := initDB(t)

	entriesDbHandler, err := NewEntriesDBHandler(database, 3, true)
	require.NoError(t, err, "Expected NewEntriesDBHandler to not return an error")
	require.NoError(t, entriesDbHandler.DeleteAllEntries(), "Expected DeleteAllEntries to not return an error")

	t.Run("Insert new entry", func(t *testing.T) {
		err := entriesDbHandler.UpsertEntry(testDocument("doc-1", "First document"), []float32{1, 0, 0})
		assert.NoError(t, err, "Expected UpsertEntry to not return an error")

		doc, err := entriesDbHandler.SelectEntry("doc-1")
		require.NoError(t, err, "Expected SelectEntry to not return an error")
		assert.Equal(t, "First document", doc.Content, "Expected stored content to match")
		assert.Equal(t, "test_source", doc.Metadata.Source, "Expected stored source to match")
		assert.Equal(t, model.ReliabilityHigh, doc.Metadata.Reliability, "Expected stored reliability to match")
	})

	t.Run("Upsert with same id replaces, never duplicates", func(t *testing.T) {
		err := entriesDbHandler.UpsertEntry(testDocument("doc-1", "Replaced document"), []float32{0, 1, 0})
		assert.NoError(t, err, "Expected UpsertEntry to not return an error")

		count, err := entriesDbHandler.CountEntries()
		require.NoError(t, err, "Expected CountEntries to not return an error")
		assert.Equal(t, 1, count, "Expected re-upsert to keep the entry count unchanged")

		doc, err := entriesDbHandler.SelectEntry("doc-1")
		require.NoError(t, err, "Expected SelectEntry to not return an error")
		assert.Equal(t, "Replaced document", doc.Content, "Expected content to be replaced")
	})
}

func TestEntriesSelectBySimilarity(t *testing.T) {
	database := initDB(t)

	entriesDbHandler, err := NewEntriesDBHandler(database, 3, true)
	require.NoError(t, err, "Expected NewEntriesDBHandler to not return an error")
	require.NoError(t, entriesDbHandler.DeleteAllEntries(), "Expected DeleteAllEntries to not return an error")

	require.NoError(t, entriesDbHandler.UpsertEntry(testDocument("doc-a", "Exact match"), []float32{1, 0, 0}))
	require.NoError(t, entriesDbHandler.UpsertEntry(testDocument("doc-b", "Close match"), []float32{1, 0.2, 0}))
	require.NoError(t, entriesDbHandler.UpsertEntry(testDocument("doc-c", "Far match"), []float32{0, 1, 0}))

	t.Run("Results are ordered by descending similarity", func(t *testing.T) {
		results, err := entriesDbHandler.SelectEntriesBySimilarity([]float32{1, 0, 0}, 3)
		require.NoError(t, err, "Expected SelectEntriesBySimilarity to not return an error")
		require.Len(t, results, 3, "Expected all entries to be returned")

		assert.Equal(t, "doc-a", results[0].Document.ID, "Expected exact match first")
		assert.Equal(t, "doc-b", results[1].Document.ID, "Expected close match second")
		assert.Equal(t, "doc-c", results[2].Document.ID, "Expected far match last")
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-6, "Expected exact match similarity of 1")
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity, "Expected non-increasing similarity")
		}
	})

	t.Run("Limit caps the result count", func(t *testing.T) {
		results, err := entriesDbHandler.SelectEntriesBySimilarity([]float32{1, 0, 0}, 2)
		require.NoError(t, err, "Expected SelectEntriesBySimilarity to not return an error")
		assert.Len(t, results, 2, "Expected the limit to cap the result count")
	})
}

func TestEntriesDelete(t *testing.T) {
	database := initDB(t)

	entriesDbHandler, err := NewEntriesDBHandler(database, 3, true)
	require.NoError(t, err, "Expected NewEntriesDBHandler to not return an error")
	require.NoError(t, entriesDbHandler.DeleteAllEntries(), "Expected DeleteAllEntries to not return an error")

	require.NoError(t, entriesDbHandler.UpsertEntry(testDocument("doc-1", "One"), []float32{1, 0, 0}))
	require.NoError(t, entriesDbHandler.UpsertEntry(testDocument("doc-2", "Two"), []float32{0, 1, 0}))

	t.Run("Delete single entry", func(t *testing.T) {
		err := entriesDbHandler.DeleteEntry("doc-1")
		assert.NoError(t, err, "Expected DeleteEntry to not return an error")

		count, err := entriesDbHandler.CountEntries()
		require.NoError(t, err, "Expected CountEntries to not return an error")
		assert.Equal(t, 1, count, "Expected one remaining entry")
	})

	t.Run("Delete all entries", func(t *testing.T) {
		err := entriesDbHandler.DeleteAllEntries()
		assert.NoError(t, err, "Expected DeleteAllEntries to not return an error")

		count, err := entriesDbHandler.CountEntries()
		require.NoError(t, err, "Expected CountEntries to not return an error")
		assert.Equal(t, 0, count, "Expected no remaining entries")
	})
}

func TestEntriesChangeIndexType(t *testing.T) {
	database := initDB(t)

	entriesDbHandler, err := NewEntriesDBHandler(database, 3, true)
	require.NoError(t, err, "Expected NewEntriesDBHandler to not return an error")

	t.Run("Change to ivfflat", func(t *testing.T) {
		err := entriesDbHandler.ChangeIndexType(context.Background(), "ivfflat", map[string]interface{}{"lists": 10})
		assert.NoError(t, err, "Expected ChangeIndexType to not return an error")
	})

	t.Run("Change back to hnsw", func(t *testing.T) {
		err := entriesDbHandler.ChangeIndexType(context.Background(), "hnsw", nil)
		assert.NoError(t, err, "Expected ChangeIndexType to not return an error")
	})

	t.Run("Unknown index type is rejected", func(t *testing.T) {
		err := entriesDbHandler.ChangeIndexType(context.Background(), "btree", nil)
		assert.Error(t, err, "Expected error for unknown index type")
	})
}
