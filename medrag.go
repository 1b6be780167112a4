// Package medrag implements a medical knowledge retrieval and response
// pipeline: documents are indexed into a vector store, incoming questions are
// embedded, matched by cosine similarity, classified for urgency, and answered
// by a generation backend grounded strictly in the retrieved passages.
package medrag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/curatohealth/medrag/core/embedding"
	"github.com/curatohealth/medrag/core/retrieval"
	"github.com/curatohealth/medrag/core/store"
	"github.com/curatohealth/medrag/core/synthesis"
	"github.com/curatohealth/medrag/helper"
	"github.com/curatohealth/medrag/model"
)

// InitState tracks the once-only service initialization.
type InitState int

const (
	StateUninitialized InitState = iota
	StateInitializing
	StateReady
	StateFailed
)

// EmergencyFunc is notified whenever a query classifies as emergency,
// independent of whether retrieval succeeded.
type EmergencyFunc func(query *model.MedicalQuery, tier model.UrgencyTier)

// Options configures a Service.
type Options struct {
	// Embedder is the embedding backend. Required.
	Embedder embedding.Embedder
	// Generator is the answer generation backend. Required.
	Generator synthesis.Generator
	// Store overrides the default in-memory vector store.
	Store store.VectorStore
	// Documents is the initial document set indexed during Initialize.
	Documents []*model.MedicalDocument
	// Config overrides the default retrieval configuration.
	Config *model.QueryConfig
	// Audit overrides the default slog-backed audit sink.
	Audit AuditSink
	// OnEmergency receives the emergency signal.
	OnEmergency EmergencyFunc
	// Logger overrides the default pretty stdout logger.
	Logger *slog.Logger
}

// Service is the query pipeline facade. Create it with New, call Initialize
// once (concurrent callers share the same in-flight initialization), then
// serve queries with Query.
type Service struct {
	store       store.VectorStore
	engine      *retrieval.Engine
	embedder    *embedding.FallbackEmbedder
	synthesizer *synthesis.Synthesizer
	audit       AuditSink
	config      model.QueryConfig
	onEmergency EmergencyFunc
	documents   []*model.MedicalDocument
	log         *slog.Logger

	mu       sync.Mutex
	state    InitState
	initDone chan struct{}
	initErr  error
}

// New creates a service from the given options. Initialize must be called
// before Query.
func New(options Options) (*Service, error) {
	if options.Embedder == nil {
		return nil, helper.NewError("service setup", fmt.Errorf("embedder is required"))
	}
	if options.Generator == nil {
		return nil, helper.NewError("service setup", fmt.Errorf("generator is required"))
	}

	logger := options.Logger
	if logger == nil {
		opts := helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, opts))
	}

	config := model.DefaultQueryConfig()
	if options.Config != nil {
		config = *options.Config
	}

	vectorStore := options.Store
	if vectorStore == nil {
		vectorStore = store.NewMemoryStore(options.Embedder, logger)
	}

	audit := options.Audit
	if audit == nil {
		audit = NewSlogAuditSink(logger)
	}

	return &Service{
		store:       vectorStore,
		engine:      retrieval.NewEngine(vectorStore, logger),
		embedder:    embedding.NewFallbackEmbedder(options.Embedder, logger),
		synthesizer: synthesis.NewSynthesizer(options.Generator, logger),
		audit:       audit,
		config:      config,
		onEmergency: options.OnEmergency,
		documents:   options.Documents,
		log:         logger,
	}, nil
}

// Initialize builds the vector index from the initial document set, exactly
// once. Concurrent callers block on the same in-flight initialization and all
// observe its outcome; after a failure, subsequent calls return the original
// error without retrying.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateFailed:
		s.mu.Unlock()
		return s.initErr
	case StateInitializing:
		done := s.initDone
		s.mu.Unlock()
		select {
		case <-done:
			return s.initErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.state = StateInitializing
	s.initDone = make(chan struct{})
	s.mu.Unlock()

	err := s.store.Index(ctx, s.documents)

	s.mu.Lock()
	if err != nil {
		s.state = StateFailed
		s.initErr = helper.NewError("initialize index", err)
	} else {
		s.state = StateReady
	}
	close(s.initDone)
	s.mu.Unlock()

	if err == nil {
		count, countErr := s.store.Count(ctx)
		if countErr == nil {
			s.log.Info("Service initialized", slog.Int("indexed_documents", count))
		}
	}

	return s.initErr
}

// State returns the current initialization state.
func (s *Service) State() InitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Index adds or replaces documents in the vector store. Indexing the same
// document id again replaces the stored entry.
func (s *Service) Index(ctx context.Context, documents []*model.MedicalDocument) error {
	return s.store.Index(ctx, documents)
}

// DocumentCount returns the number of indexed documents.
func (s *Service) DocumentCount(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Clear removes every indexed document.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}
