package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/curatohealth/medrag/model"
)

// Disclaimer is the fixed sentence every answer must end with.
const Disclaimer = "This information is educational and does not replace a consultation with a qualified healthcare professional."

// FallbackWarning accompanies the fallback answer when generation fails.
const FallbackWarning = "The answer service is temporarily unavailable. If your symptoms are concerning, seek in-person medical care."

const (
	generationTemperature = 0.2
	generationMaxTokens   = 1024
	contextDelimiter      = "\n---\n"
)

const systemInstruction = `You are a careful medical information assistant.
Answer the question using only the reference passages provided in the context.
If the context does not contain enough information to answer, say so explicitly instead of guessing or inventing facts.
Do not diagnose, prescribe, or recommend dosages.
Always end your answer with this exact sentence: ` + Disclaimer

// Synthesizer composes grounded answers from retrieved documents via a
// generation backend.
type Synthesizer struct {
	generator Generator
	log       *slog.Logger
}

// NewSynthesizer creates a synthesizer over the given generation backend.
func NewSynthesizer(generator Generator, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		generator: generator,
		log:       logger,
	}
}

// Synthesize generates an answer to queryText grounded in the given documents,
// in ranked order, using at most maxDocuments of them. The returned answer
// always ends with the disclaimer. When no documents are supplied the
// insufficient-context answer is returned without calling the backend. A
// backend failure is returned wrapping ErrGenerationUnavailable; the caller
// substitutes FallbackAnswer.
func (s *Synthesizer) Synthesize(ctx context.Context, queryText string, documents []*model.MedicalDocument, maxDocuments int) (string, error) {
	if len(documents) == 0 {
		return NoContextAnswer(), nil
	}

	if maxDocuments > 0 && len(documents) > maxDocuments {
		documents = documents[:maxDocuments]
	}

	answer, err := s.generator.Generate(ctx, GenerationRequest{
		SystemInstruction: systemInstruction,
		Prompt:            buildPrompt(queryText, documents),
		Temperature:       generationTemperature,
		MaxTokens:         generationMaxTokens,
	})
	if err != nil {
		s.log.Warn("Answer generation failed",
			slog.Int("documents", len(documents)),
			slog.String("error", err.Error()),
		)
		return "", err
	}

	return ensureDisclaimer(answer), nil
}

// buildPrompt concatenates the documents into a context block, one passage
// per document with its source and speciality, separated by a delimiter.
func buildPrompt(queryText string, documents []*model.MedicalDocument) string {
	passages := make([]string, 0, len(documents))
	for _, doc := range documents {
		passages = append(passages, fmt.Sprintf(
			"Source: %s\nSpeciality: %s\nContent: %s",
			doc.Metadata.Source,
			doc.Metadata.Speciality,
			doc.Content,
		))
	}

	return fmt.Sprintf(
		"Context:\n%s\n\nQuestion: %s",
		strings.Join(passages, contextDelimiter),
		queryText,
	)
}

// ensureDisclaimer appends the disclaimer when the backend did not close the
// answer with it.
func ensureDisclaimer(answer string) string {
	trimmed := strings.TrimSpace(answer)
	if strings.HasSuffix(trimmed, Disclaimer) {
		return trimmed
	}
	return trimmed + "\n\n" + Disclaimer
}

// NoContextAnswer is returned when no reference material matched the query.
func NoContextAnswer() string {
	return "I could not find reference material relevant to your question in the knowledge base, so I cannot give a grounded answer. Please consult a healthcare professional for guidance.\n\n" + Disclaimer
}

// FallbackAnswer is the safe answer substituted when the generation backend
// is unavailable.
func FallbackAnswer() string {
	return "The answer service is temporarily unavailable and a response could not be generated. If you have concerning symptoms, please seek in-person medical care.\n\n" + Disclaimer
}
