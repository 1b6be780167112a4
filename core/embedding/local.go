package embedding

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"

	"github.com/curatohealth/medrag/helper"
)

// localModelName is the sentence transformer used for offline embedding.
// It produces 384-dimensional vectors.
const localModelName = "sentence-transformers/all-MiniLM-L6-v2"

const localModelDimensions = 384

// LocalEmbedder generates embeddings with a local ONNX sentence transformer,
// so the pipeline can run without any network-reachable embedding backend.
type LocalEmbedder struct {
	session *hugot.Session
	embed   func(text string) ([]float32, error)
}

// NewLocalEmbedder downloads the model if needed and initializes a hugot
// session with the Go backend.
func NewLocalEmbedder() (*LocalEmbedder, error) {
	modelPath, err := helper.PrepareModel(localModelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "medrag-embedder",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	embed := func(text string) ([]float32, error) {
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, err
		}
		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}
		return result.Embeddings[0], nil
	}

	return &LocalEmbedder{
		session: session,
		embed:   embed,
	}, nil
}

// Embed generates the embedding for one text.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embed(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	return vector, nil
}

// Dimensions returns the fixed vector length of the local model.
func (e *LocalEmbedder) Dimensions() int {
	return localModelDimensions
}

// Close releases the hugot session.
func (e *LocalEmbedder) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}
