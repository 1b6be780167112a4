// Package synthesis turns ranked reference passages into a grounded answer.
// A generation backend (OpenAI or Claude) produces the text under a strict
// instruction to use only the supplied context; the synthesizer enforces the
// mandatory disclaimer suffix and provides the safe fallback answer used when
// the backend is unreachable.
package synthesis

import (
	"context"
	"errors"
)

// ErrGenerationUnavailable indicates the generation backend could not produce
// an answer. Callers substitute the safe fallback answer instead of failing
// the request.
var ErrGenerationUnavailable = errors.New("generation backend unavailable")

// GenerationRequest carries one completion request to a backend.
type GenerationRequest struct {
	SystemInstruction string
	Prompt            string
	Temperature       float32
	MaxTokens         int
}

// Generator abstracts a text generation backend.
type Generator interface {
	Generate(ctx context.Context, request GenerationRequest) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, request GenerationRequest) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, request GenerationRequest) (string, error) {
	return f(ctx, request)
}
