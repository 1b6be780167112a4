package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord is a write-once snapshot of one processed query and its quality
// metrics, emitted to the audit sink after every request.
type AuditRecord struct {
	QueryID        uuid.UUID `json:"query_id"`
	PatientID      string    `json:"patient_id"`
	QueryText      string    `json:"query_text"`
	Timestamp      time.Time `json:"timestamp"`
	DocumentsFound int       `json:"documents_found"`
	TopSimilarity  float64   `json:"top_similarity"`
	Confidence     float64   `json:"confidence"`
	FallbackUsed   bool      `json:"fallback_used,omitempty"`
	Failure        string    `json:"failure,omitempty"`
}
