package model

// QueryConfig represents configuration for one retrieval query
type QueryConfig struct {
	// Vector search parameters
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// Synthesis parameters
	MaxContextDocuments int `json:"max_context_documents,omitempty"`
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                5,
		SimilarityThreshold: 0.7,
		MaxContextDocuments: 5,
	}
}
