package medrag

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/curatohealth/medrag/core/embedding"
	"github.com/curatohealth/medrag/core/store"
	"github.com/curatohealth/medrag/core/synthesis"
	"github.com/curatohealth/medrag/database"
	"github.com/curatohealth/medrag/helper"
	"github.com/curatohealth/medrag/model"
)

// Backend choices read from the environment.
const (
	BackendOpenAI = "openai"
	BackendClaude = "claude"
	BackendLocal  = "local"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// ServiceConfiguration selects the backends and store the service is wired
// with. It is read from the environment (a .env file is loaded if present):
//
//	MEDRAG_EMBEDDING_BACKEND   openai | local        (default: openai when OPENAI_API_KEY is set, else local)
//	MEDRAG_GENERATION_BACKEND  openai | claude       (default: claude when ANTHROPIC_API_KEY is set, else openai)
//	MEDRAG_STORE               memory | postgres     (default: memory; postgres additionally needs the DB_* variables)
//	OPENAI_API_KEY, OPENAI_EMBEDDING_MODEL, OPENAI_CHAT_MODEL
//	ANTHROPIC_API_KEY, ANTHROPIC_MODEL
type ServiceConfiguration struct {
	EmbeddingBackend  string
	GenerationBackend string
	Store             string
}

// NewServiceConfiguration reads the backend selection from the environment.
func NewServiceConfiguration() *ServiceConfiguration {
	_ = godotenv.Load()

	config := &ServiceConfiguration{
		EmbeddingBackend:  os.Getenv("MEDRAG_EMBEDDING_BACKEND"),
		GenerationBackend: os.Getenv("MEDRAG_GENERATION_BACKEND"),
		Store:             os.Getenv("MEDRAG_STORE"),
	}

	if config.EmbeddingBackend == "" {
		if os.Getenv("OPENAI_API_KEY") != "" {
			config.EmbeddingBackend = BackendOpenAI
		} else {
			config.EmbeddingBackend = BackendLocal
		}
	}
	if config.GenerationBackend == "" {
		if os.Getenv("ANTHROPIC_API_KEY") != "" {
			config.GenerationBackend = BackendClaude
		} else {
			config.GenerationBackend = BackendOpenAI
		}
	}
	if config.Store == "" {
		config.Store = StoreMemory
	}

	return config
}

// NewServiceFromEnv builds a fully wired service from the environment,
// indexing the given documents on Initialize.
func NewServiceFromEnv(documents []*model.MedicalDocument) (*Service, error) {
	config := NewServiceConfiguration()

	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	embedder, err := newEmbedderFromEnv(config)
	if err != nil {
		return nil, helper.NewError("create embedder", err)
	}

	generator, err := newGeneratorFromEnv(config)
	if err != nil {
		return nil, helper.NewError("create generator", err)
	}

	var vectorStore store.VectorStore
	if config.Store == StorePostgres {
		dbConfig, err := helper.NewDatabaseConfiguration()
		if err != nil {
			return nil, helper.NewError("read database configuration", err)
		}
		db := helper.NewDatabase("medrag", dbConfig, logger)

		entries, err := database.NewEntriesDBHandler(db, embedder.Dimensions(), false)
		if err != nil {
			return nil, helper.NewError("create entries handler", err)
		}
		vectorStore = store.NewPgVectorStore(entries, embedder, logger)
	}

	return New(Options{
		Embedder:  embedder,
		Generator: generator,
		Store:     vectorStore,
		Documents: documents,
		Logger:    logger,
	})
}

func newEmbedderFromEnv(config *ServiceConfiguration) (embedding.Embedder, error) {
	switch config.EmbeddingBackend {
	case BackendOpenAI:
		return embedding.NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_EMBEDDING_MODEL"))
	case BackendLocal:
		return embedding.NewLocalEmbedder()
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", config.EmbeddingBackend)
	}
}

func newGeneratorFromEnv(config *ServiceConfiguration) (synthesis.Generator, error) {
	switch config.GenerationBackend {
	case BackendOpenAI:
		return synthesis.NewOpenAIGenerator(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_CHAT_MODEL"))
	case BackendClaude:
		return synthesis.NewClaudeGenerator(os.Getenv("ANTHROPIC_API_KEY"), os.Getenv("ANTHROPIC_MODEL"))
	default:
		return nil, fmt.Errorf("unknown generation backend %q", config.GenerationBackend)
	}
}
