// ABOUTME: Shared service construction for CLI commands
// ABOUTME: Builds the index, generation client, and engine from config
package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/charmkv"
	"github.com/docdesk/docdesk/internal/chunker"
	"github.com/docdesk/docdesk/internal/config"
	"github.com/docdesk/docdesk/internal/index"
	"github.com/docdesk/docdesk/internal/llm"
	"github.com/docdesk/docdesk/internal/logger"
	"github.com/docdesk/docdesk/internal/rag"
)

// stack holds the constructed services a command needs. Close releases
// backend connections in reverse construction order.
type stack struct {
	cfg      *config.Config
	log      *zap.Logger
	index    *index.Index
	engine   *rag.Engine
	splitter *chunker.Splitter

	closers []func()
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	_ = s.log.Sync()
}

// buildStack loads config and wires the pipeline. With needEngine false
// the generation service is skipped and only the index side is built,
// though an OpenAI key is still required for embeddings.
func buildStack(needEngine bool) (*stack, error) {
	// Load .env for API keys if present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		LogFile: cfg.LogFile,
		Quiet:   quiet,
	})

	s := &stack{cfg: cfg, log: log}

	client, err := llm.NewClient(&llm.ClientConfig{
		APIKey:          cfg.OpenAIKey,
		ChatModel:       cfg.ChatModel,
		EmbeddingModel:  cfg.EmbeddingModel,
		MaxTokens:       cfg.MaxTokens,
		Temperature:     cfg.Temperature,
		MaxRetries:      cfg.MaxRetries,
		RetryDelay:      cfg.RetryDelay,
		MaxHistoryTurns: cfg.MaxHistoryTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing openai client: %w", err)
	}

	backend, err := buildBackend(cfg, s)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.index = index.New(backend, client, cfg.CollectionName, cfg.EmbeddingModel, log)
	s.splitter = chunker.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	if needEngine {
		s.engine = rag.NewEngine(s.index, client, rag.Options{
			TopK:                cfg.TopKResults,
			SimilarityThreshold: cfg.SimilarityThreshold,
			GenerationTimeout:   cfg.GenerationTimeout,
		}, log)
	}

	return s, nil
}

func buildBackend(cfg *config.Config, s *stack) (index.Backend, error) {
	switch cfg.IndexBackend {
	case config.BackendMemory:
		return index.NewMemoryBackend(), nil

	case config.BackendCharm:
		client, err := charmkv.NewClient(&charmkv.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: true,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing charm kv: %w", err)
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		return index.NewCharmBackend(client), nil

	case config.BackendPGVector:
		backend, err := index.NewPGVectorBackend(context.Background(),
			cfg.DatabaseURL, cfg.CollectionName, embeddingDimension(cfg.EmbeddingModel))
		if err != nil {
			return nil, fmt.Errorf("initializing pgvector: %w", err)
		}
		s.closers = append(s.closers, backend.Close)
		return backend, nil

	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}

// embeddingDimension maps an OpenAI embedding model to its vector width.
func embeddingDimension(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-ada-002", "text-embedding-3-small":
		return 1536
	default:
		return 1536
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
