package medrag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatohealth/medrag/core/embedding"
	"github.com/curatohealth/medrag/core/synthesis"
	"github.com/curatohealth/medrag/core/triage"
	"github.com/curatohealth/medrag/model"
)

// testVectors maps texts to fixed vectors so retrieval is deterministic.
var testVectors = map[string][]float32{
	"Hypertension is blood pressure above 140/90": {1, 0, 0},
	"what is hypertension":                        {1, 0, 0},
	"Influenza is a viral respiratory infection":  {0, 1, 0},
	"sangramento intenso":                         {0, 0, 1},
}

func testEmbedder(embedCalls *atomic.Int32) embedding.Embedder {
	return embedding.EmbedFunc{
		Fn: func(ctx context.Context, text string) ([]float32, error) {
			if embedCalls != nil {
				embedCalls.Add(1)
			}
			if v, ok := testVectors[text]; ok {
				return v, nil
			}
			return []float32{0, 0, 0}, nil
		},
		Dim: 3,
	}
}

func echoGenerator() synthesis.Generator {
	return synthesis.GeneratorFunc(func(ctx context.Context, request synthesis.GenerationRequest) (string, error) {
		return "Based on the provided context: grounded answer.", nil
	})
}

func hypertensionDocument() *model.MedicalDocument {
	return &model.MedicalDocument{
		ID:      "htn-1",
		Title:   "Hypertension basics",
		Content: "Hypertension is blood pressure above 140/90",
		Metadata: model.DocumentMetadata{
			Source:      "Clinical Guidelines 2024",
			Speciality:  "cardiology",
			Reliability: model.ReliabilityHigh,
		},
	}
}

func newTestService(t *testing.T, options Options) *Service {
	t.Helper()
	if options.Embedder == nil {
		options.Embedder = testEmbedder(nil)
	}
	if options.Generator == nil {
		options.Generator = echoGenerator()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}

	service, err := New(options)
	require.NoError(t, err, "creating the service should succeed")
	require.NoError(t, service.Initialize(context.Background()), "initialization should succeed")
	return service
}

func TestNew(t *testing.T) {
	t.Run("Requires an embedder and a generator", func(t *testing.T) {
		_, err := New(Options{Generator: echoGenerator()})
		assert.Error(t, err, "missing embedder should be rejected")

		_, err = New(Options{Embedder: testEmbedder(nil)})
		assert.Error(t, err, "missing generator should be rejected")
	})
}

func TestInitialize(t *testing.T) {
	t.Run("Indexes the initial document set exactly once", func(t *testing.T) {
		var embedCalls atomic.Int32
		service, err := New(Options{
			Embedder:  testEmbedder(&embedCalls),
			Generator: echoGenerator(),
			Documents: []*model.MedicalDocument{hypertensionDocument()},
			Logger:    slog.New(slog.DiscardHandler),
		})
		require.NoError(t, err, "creating the service should succeed")
		assert.Equal(t, StateUninitialized, service.State(), "new service should be uninitialized")

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, service.Initialize(context.Background()), "concurrent initialization should succeed")
			}()
		}
		wg.Wait()

		assert.Equal(t, StateReady, service.State(), "service should be ready")
		assert.Equal(t, int32(1), embedCalls.Load(), "the document should be embedded exactly once")

		count, err := service.DocumentCount(context.Background())
		require.NoError(t, err, "count should succeed")
		assert.Equal(t, 1, count, "the document should be indexed")
	})
}

func TestQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("Hypertension query returns the matching source with confidence", func(t *testing.T) {
		service := newTestService(t, Options{
			Documents: []*model.MedicalDocument{hypertensionDocument()},
		})

		response, err := service.Query(ctx, QueryRequest{Text: "what is hypertension"})
		require.NoError(t, err, "query should succeed")
		require.Len(t, response.Sources, 1, "the indexed document should be returned as a source")
		assert.Equal(t, "htn-1", response.Sources[0].ID, "source should be the hypertension document")
		assert.Greater(t, response.Confidence, 0.0, "confidence should be positive")
		assert.NotEmpty(t, response.Answer, "answer should not be empty")
		assert.Equal(t, synthesis.Disclaimer, response.Disclaimer, "response should carry the fixed disclaimer")
		assert.Equal(t, 1, response.Meta.DocumentsUsed, "meta should record documents used")
		assert.Equal(t, response.QueryID, response.Meta.QueryID, "meta should reference the query")
	})

	t.Run("Empty store yields well formed response with no sources", func(t *testing.T) {
		service := newTestService(t, Options{})

		response, err := service.Query(ctx, QueryRequest{Text: "what is hypertension"})
		require.NoError(t, err, "query against an empty store should succeed")
		assert.Empty(t, response.Sources, "no sources expected")
		assert.Equal(t, 0.0, response.Confidence, "confidence should be 0")
		assert.NotEmpty(t, response.Answer, "answer should still be well formed")
	})

	t.Run("Empty or whitespace text fails before any embedding", func(t *testing.T) {
		var embedCalls atomic.Int32
		service := newTestService(t, Options{
			Embedder: testEmbedder(&embedCalls),
		})

		for _, text := range []string{"", "   ", "\n\t"} {
			_, err := service.Query(ctx, QueryRequest{Text: text})
			require.Error(t, err, "empty text should be rejected")

			var responseErr *model.ResponseError
			require.ErrorAs(t, err, &responseErr, "error should be a structured response error")
			assert.Equal(t, model.CodeMissingText, responseErr.Code, "error code should be MISSING_TEXT")
		}
		assert.Equal(t, int32(0), embedCalls.Load(), "no embedding call should be attempted")
	})

	t.Run("Emergency query raises signal and leads warnings", func(t *testing.T) {
		var signaled atomic.Bool
		service := newTestService(t, Options{
			Documents: []*model.MedicalDocument{hypertensionDocument()},
			OnEmergency: func(query *model.MedicalQuery, tier model.UrgencyTier) {
				signaled.Store(true)
				assert.Equal(t, model.UrgencyEmergency, tier, "signal should carry the emergency tier")
			},
		})

		response, err := service.Query(ctx, QueryRequest{Text: "sangramento intenso"})
		require.NoError(t, err, "query should succeed")
		assert.True(t, signaled.Load(), "emergency signal should have been raised")
		require.NotEmpty(t, response.Warnings, "warnings should not be empty")
		assert.Equal(t, triage.EmergencyWarning, response.Warnings[0], "emergency warning should be first")
	})

	t.Run("Repeated queries yield identical sources and confidence", func(t *testing.T) {
		service := newTestService(t, Options{
			Documents: []*model.MedicalDocument{
				hypertensionDocument(),
				{ID: "flu-1", Title: "Influenza", Content: "Influenza is a viral respiratory infection"},
			},
		})

		first, err := service.Query(ctx, QueryRequest{Text: "what is hypertension"})
		require.NoError(t, err, "first query should succeed")
		second, err := service.Query(ctx, QueryRequest{Text: "what is hypertension"})
		require.NoError(t, err, "second query should succeed")

		require.Equal(t, len(first.Sources), len(second.Sources), "source counts should match")
		for i := range first.Sources {
			assert.Equal(t, first.Sources[i].ID, second.Sources[i].ID, "source ordering should be identical")
		}
		assert.Equal(t, first.Confidence, second.Confidence, "confidence should be identical")
	})

	t.Run("Embedding failure degrades to fallback vector, never aborts", func(t *testing.T) {
		failingEmbedder := embedding.EmbedFunc{
			Fn: func(ctx context.Context, text string) ([]float32, error) {
				return nil, fmt.Errorf("%w: backend down", embedding.ErrEmbeddingUnavailable)
			},
			Dim: 3,
		}

		// Index through a working embedder, then fail only at query time.
		service := newTestService(t, Options{
			Documents: []*model.MedicalDocument{hypertensionDocument()},
		})
		service.embedder = embedding.NewFallbackEmbedder(failingEmbedder, slog.New(slog.DiscardHandler))

		response, err := service.Query(ctx, QueryRequest{Text: "what is hypertension"})
		require.NoError(t, err, "query should survive embedding failure")
		assert.NotEmpty(t, response.Answer, "degraded answer should not be empty")
	})

	t.Run("Generation failure substitutes safe fallback answer", func(t *testing.T) {
		failingGenerator := synthesis.GeneratorFunc(func(ctx context.Context, request synthesis.GenerationRequest) (string, error) {
			return "", fmt.Errorf("%w: backend down", synthesis.ErrGenerationUnavailable)
		})

		service := newTestService(t, Options{
			Documents: []*model.MedicalDocument{hypertensionDocument()},
			Generator: failingGenerator,
		})

		response, err := service.Query(ctx, QueryRequest{Text: "what is hypertension"})
		require.NoError(t, err, "query should survive generation failure")
		assert.Equal(t, synthesis.FallbackAnswer(), response.Answer, "safe fallback answer should be substituted")
		assert.Contains(t, response.Warnings, synthesis.FallbackWarning, "fallback warning should be attached")
		assert.Equal(t, 0.0, response.Confidence, "confidence should be lowered to 0")
	})

	t.Run("Audit sink failure never fails the request", func(t *testing.T) {
		service := newTestService(t, Options{
			Documents: []*model.MedicalDocument{hypertensionDocument()},
			Audit: AuditSinkFunc(func(ctx context.Context, record *model.AuditRecord) error {
				return fmt.Errorf("sink unreachable")
			}),
		})

		response, err := service.Query(ctx, QueryRequest{Text: "what is hypertension"})
		require.NoError(t, err, "query should succeed despite audit failure")
		assert.NotEmpty(t, response.Answer, "answer should be produced")
	})

	t.Run("Audit record captures query metrics", func(t *testing.T) {
		var mu sync.Mutex
		records := []*model.AuditRecord{}
		service := newTestService(t, Options{
			Documents: []*model.MedicalDocument{hypertensionDocument()},
			Audit: AuditSinkFunc(func(ctx context.Context, record *model.AuditRecord) error {
				mu.Lock()
				defer mu.Unlock()
				records = append(records, record)
				return nil
			}),
		})

		_, err := service.Query(ctx, QueryRequest{Text: "what is hypertension", PatientID: "patient-7"})
		require.NoError(t, err, "query should succeed")

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, records, 1, "one audit record should be emitted")
		assert.Equal(t, "patient-7", records[0].PatientID, "audit should capture the patient id")
		assert.Equal(t, 1, records[0].DocumentsFound, "audit should capture documents found")
		assert.Greater(t, records[0].TopSimilarity, 0.0, "audit should capture top similarity")
		assert.False(t, records[0].FallbackUsed, "no fallback should be recorded")
	})
}
