package model

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Reliability grades the trustworthiness of a reference passage's source.
type Reliability string

const (
	ReliabilityLow    Reliability = "low"
	ReliabilityMedium Reliability = "medium"
	ReliabilityHigh   Reliability = "high"
)

// Valid reports whether the reliability is one of the known grades.
func (r Reliability) Valid() bool {
	switch r {
	case ReliabilityLow, ReliabilityMedium, ReliabilityHigh:
		return true
	}
	return false
}

// DocumentMetadata describes the provenance of a reference passage. Extra
// holds free-form attributes that have no typed field; it is stored as JSONB
// in the persistent index.
type DocumentMetadata struct {
	Source      string      `json:"source"`
	Speciality  string      `json:"speciality"`
	Condition   string      `json:"condition"`
	LastUpdated time.Time   `json:"last_updated"`
	Reliability Reliability `json:"reliability"`
	Extra       Metadata    `json:"extra,omitempty"`
}

// MedicalDocument represents a reference passage in the knowledge base.
// Documents are immutable once indexed; re-indexing with the same ID
// replaces the stored entry wholesale.
type MedicalDocument struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

// Excerpt returns the first maxLen runes of the content for source listings.
func (d *MedicalDocument) Excerpt(maxLen int) string {
	content := strings.TrimSpace(d.Content)
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return strings.TrimSpace(string(runes[:maxLen])) + "..."
}

// NewDocumentFromFile reads a file and creates a MedicalDocument with the file content.
// The title defaults to the filename without extension, and source to the file path.
func NewDocumentFromFile(filePath string, metadata DocumentMetadata) (*MedicalDocument, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	// Get filename without extension for default title
	filename := filepath.Base(filePath)
	title := filename[:len(filename)-len(filepath.Ext(filename))]
	if title == "" {
		title = filename
	}

	if metadata.Source == "" {
		metadata.Source = filePath
	}

	return &MedicalDocument{
		ID:       title,
		Title:    title,
		Content:  string(content),
		Metadata: metadata,
	}, nil
}
