package model

import (
	"time"

	"github.com/google/uuid"
)

// SearchResult pairs a stored document with its cosine similarity to a query
// vector. Ordering is by descending similarity, ties broken by insertion order.
type SearchResult struct {
	Document   *MedicalDocument `json:"document"`
	Similarity float64          `json:"similarity"`
}

// ResponseMeta is the metadata envelope attached to every response.
type ResponseMeta struct {
	QueryID          uuid.UUID `json:"query_id"`
	ResponseID       uuid.UUID `json:"response_id"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	DocumentsUsed    int       `json:"documents_used"`
	Timestamp        time.Time `json:"timestamp"`
}

// SourceRef is the caller-facing view of a source document.
type SourceRef struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Source      string      `json:"source"`
	Speciality  string      `json:"speciality"`
	Reliability Reliability `json:"reliability"`
	Excerpt     string      `json:"excerpt"`
}

// MedicalResponse is the assembled answer for one query. It is transient and
// not persisted beyond the audit log.
type MedicalResponse struct {
	ID         uuid.UUID          `json:"id"`
	QueryID    uuid.UUID          `json:"query_id"`
	Answer     string             `json:"answer"`
	Sources    []*MedicalDocument `json:"sources"`
	Confidence float64            `json:"confidence"`
	Warnings   []string           `json:"warnings"`
	Disclaimer string             `json:"disclaimer"`
	Meta       ResponseMeta       `json:"meta"`
}

const sourceExcerptLength = 200

// SourceRefs converts the response's source documents into the caller-facing
// shape, most relevant first.
func (r *MedicalResponse) SourceRefs() []SourceRef {
	refs := make([]SourceRef, len(r.Sources))
	for i, doc := range r.Sources {
		refs[i] = SourceRef{
			ID:          doc.ID,
			Title:       doc.Title,
			Source:      doc.Metadata.Source,
			Speciality:  doc.Metadata.Speciality,
			Reliability: doc.Metadata.Reliability,
			Excerpt:     doc.Excerpt(sourceExcerptLength),
		}
	}
	return refs
}

// ErrorCode identifies a structured error crossing the service boundary.
type ErrorCode string

const (
	// CodeMissingText is returned when a query arrives without usable text.
	CodeMissingText ErrorCode = "MISSING_TEXT"
)

// ResponseError is the structured error payload for caller-input failures.
type ResponseError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *ResponseError) Error() string {
	return string(e.Code) + ": " + e.Message
}
