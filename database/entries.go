package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/curatohealth/medrag/helper"
	"github.com/curatohealth/medrag/model"
	loadSql "github.com/curatohealth/medrag/sql"
)

// EntriesDBHandlerFunctions defines the interface for entry database operations.
type EntriesDBHandlerFunctions interface {
	UpsertEntry(doc *model.MedicalDocument, embedding []float32) error
	SelectEntry(documentID string) (*model.MedicalDocument, error)
	SelectEntriesBySimilarity(embedding []float32, limit int) ([]*model.SearchResult, error)
	CountEntries() (int, error)
	DeleteEntry(documentID string) error
	DeleteAllEntries() error
}

// EntriesDBHandler handles the pgvector-backed knowledge base index.
type EntriesDBHandler struct {
	db *helper.Database
}

// NewEntriesDBHandler creates a new entries database handler.
// It initializes the database connection and loads entry-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntriesDBHandler(db *helper.Database, embeddingDim int, force bool) (*EntriesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entriesDbHandler := &EntriesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntriesSql(entriesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entries sql", err)
	}

	err = entriesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntriesDBHandler")

	return entriesDbHandler, nil
}

// CreateTable creates the 'entries' table in the database.
// If the table already exists, it does not create it again.
func (h *EntriesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entries($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing entries table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entries")

	return nil
}

// UpsertEntry stores a document with its embedding. An existing document id
// is replaced wholesale (last write wins).
func (h *EntriesDBHandler) UpsertEntry(doc *model.MedicalDocument, embedding []float32) error {
	embeddingVector := pgvector.NewVector(embedding)

	var lastUpdated interface{}
	if !doc.Metadata.LastUpdated.IsZero() {
		lastUpdated = doc.Metadata.LastUpdated
	}

	extra := doc.Metadata.Extra
	if extra == nil {
		extra = model.Metadata{}
	}

	_, err := h.db.Instance.Exec(
		`SELECT upsert_entry($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.Metadata.Source,
		doc.Metadata.Speciality,
		doc.Metadata.Condition,
		lastUpdated,
		string(doc.Metadata.Reliability),
		extra,
		embeddingVector,
	)
	if err != nil {
		return helper.NewError("upsert entry", err)
	}

	return nil
}

// SelectEntry retrieves a document by its id.
func (h *EntriesDBHandler) SelectEntry(documentID string) (*model.MedicalDocument, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entry($1)`,
		documentID,
	)

	doc, err := scanEntry(row.Scan)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return doc, nil
}

// SelectEntriesBySimilarity performs vector similarity search, ordered by
// descending similarity with insertion-order tie-breaks.
func (h *EntriesDBHandler) SelectEntriesBySimilarity(embedding []float32, limit int) ([]*model.SearchResult, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entries_by_similarity($1, $2)`,
		embeddingVector,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.SearchResult
	for rows.Next() {
		var similarity float64
		doc, err := scanEntry(func(dest ...interface{}) error {
			dest = append(dest, &similarity)
			return rows.Scan(dest...)
		})
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		results = append(results, &model.SearchResult{
			Document:   doc,
			Similarity: similarity,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows", err)
	}

	return results, nil
}

// CountEntries returns the number of indexed documents.
func (h *EntriesDBHandler) CountEntries() (int, error) {
	var count int
	err := h.db.Instance.QueryRow(`SELECT count_entries()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("count entries", err)
	}
	return count, nil
}

// DeleteEntry removes one document from the index.
func (h *EntriesDBHandler) DeleteEntry(documentID string) error {
	_, err := h.db.Instance.Exec(`SELECT delete_entry($1)`, documentID)
	if err != nil {
		return helper.NewError("delete entry", err)
	}
	return nil
}

// DeleteAllEntries clears the index.
func (h *EntriesDBHandler) DeleteAllEntries() error {
	_, err := h.db.Instance.Exec(`SELECT delete_all_entries()`)
	if err != nil {
		return helper.NewError("delete all entries", err)
	}
	return nil
}

// scanEntry scans the shared entry column set into a MedicalDocument. The
// scan function receives the document destinations; similarity queries append
// their extra destination before delegating to rows.Scan.
func scanEntry(scan func(dest ...interface{}) error) (*model.MedicalDocument, error) {
	doc := &model.MedicalDocument{}
	var lastUpdated sql.NullTime
	var reliability string
	var extra model.Metadata

	err := scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&doc.Metadata.Source,
		&doc.Metadata.Speciality,
		&doc.Metadata.Condition,
		&lastUpdated,
		&reliability,
		&extra,
	)
	if err != nil {
		return nil, err
	}

	if lastUpdated.Valid {
		doc.Metadata.LastUpdated = lastUpdated.Time
	}
	doc.Metadata.Reliability = model.Reliability(reliability)
	if len(extra) > 0 {
		doc.Metadata.Extra = extra
	}

	return doc, nil
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
// indexType: "hnsw" or "ivfflat"
// params: optional parameters for index creation
//   - For HNSW: "m" (int, default 16), "ef_construction" (int, default 64)
//   - For IVFFlat: "lists" (int, default 100)
func (h *EntriesDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	// Drop existing index
	_, err := h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_entries_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	h.db.Logger.Info("Dropped existing vector index")

	var createIndexSQL string

	switch indexType {
	case "hnsw":
		m := 16
		efConstruction := 64

		if mVal, ok := params["m"].(int); ok {
			m = mVal
		}
		if efVal, ok := params["ef_construction"].(int); ok {
			efConstruction = efVal
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_entries_embedding ON entries USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)

	case "ivfflat":
		lists := 100
		if listsVal, ok := params["lists"].(int); ok {
			lists = listsVal
		}

		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_entries_embedding ON entries USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)

	default:
		return helper.NewError("change index type", fmt.Errorf("unknown index type %q", indexType))
	}

	_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info("Created vector index", slog.String("type", indexType))

	return nil
}
