// ABOUTME: Centralized configuration for the docdesk service
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend names accepted for DOCDESK_INDEX_BACKEND.
const (
	BackendMemory   = "memory"
	BackendCharm    = "charm"
	BackendPGVector = "pgvector"
)

// Config holds all configuration for the RAG service
type Config struct {
	// OpenAI settings
	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float32
	MaxRetries     int
	RetryDelay     time.Duration

	// Index settings
	IndexBackend   string
	CollectionName string
	DatabaseURL    string
	CharmHost      string
	CharmDBName    string

	// Retrieval settings
	ChunkSize           int
	ChunkOverlap        int
	TopKResults         int
	SimilarityThreshold float64

	// Conversation settings
	MaxHistoryTurns   int
	SessionTimeout    time.Duration
	GenerationTimeout time.Duration

	// Server settings
	HTTPPort string
	LogFile  string
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		ChatModel:           getEnv("DOCDESK_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:      getEnv("DOCDESK_EMBEDDING_MODEL", "text-embedding-3-small"),
		MaxTokens:           getEnvInt("DOCDESK_MAX_TOKENS", 4096),
		Temperature:         float32(getEnvFloat("DOCDESK_TEMPERATURE", 0.7)),
		MaxRetries:          getEnvInt("DOCDESK_MAX_RETRIES", 3),
		RetryDelay:          getEnvDuration("DOCDESK_RETRY_DELAY", 2*time.Second),
		IndexBackend:        getEnv("DOCDESK_INDEX_BACKEND", BackendMemory),
		CollectionName:      getEnv("DOCDESK_COLLECTION", "business_documents"),
		DatabaseURL:         os.Getenv("DOCDESK_DATABASE_URL"),
		CharmHost:           getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:         getEnv("CHARM_DB", "docdesk"),
		ChunkSize:           getEnvInt("DOCDESK_CHUNK_SIZE", 1000),
		ChunkOverlap:        getEnvInt("DOCDESK_CHUNK_OVERLAP", 200),
		TopKResults:         getEnvInt("DOCDESK_TOP_K", 5),
		SimilarityThreshold: getEnvFloat("DOCDESK_SIMILARITY_THRESHOLD", 0.7),
		MaxHistoryTurns:     getEnvInt("DOCDESK_MAX_HISTORY_TURNS", 10),
		SessionTimeout:      getEnvDuration("DOCDESK_SESSION_TIMEOUT", 30*time.Minute),
		GenerationTimeout:   getEnvDuration("DOCDESK_GENERATION_TIMEOUT", 60*time.Second),
		HTTPPort:            getEnv("DOCDESK_HTTP_PORT", "8000"),
		LogFile:             getEnv("DOCDESK_LOG_FILE", "./logs/docdesk.log"),
		LogLevel:            getEnv("DOCDESK_LOG_LEVEL", "info"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("DOCDESK_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("DOCDESK_CHUNK_OVERLAP must be in [0, chunk size), got %d", c.ChunkOverlap)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("DOCDESK_SIMILARITY_THRESHOLD must be 0-1, got %f", c.SimilarityThreshold)
	}
	if c.TopKResults <= 0 {
		return fmt.Errorf("DOCDESK_TOP_K must be positive, got %d", c.TopKResults)
	}
	if c.MaxHistoryTurns <= 0 {
		return fmt.Errorf("DOCDESK_MAX_HISTORY_TURNS must be positive, got %d", c.MaxHistoryTurns)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("DOCDESK_SESSION_TIMEOUT must be positive, got %s", c.SessionTimeout)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("DOCDESK_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	switch c.IndexBackend {
	case BackendMemory, BackendCharm, BackendPGVector:
	default:
		return fmt.Errorf("DOCDESK_INDEX_BACKEND must be one of memory, charm, pgvector, got %q", c.IndexBackend)
	}
	if c.IndexBackend == BackendPGVector && c.DatabaseURL == "" {
		return fmt.Errorf("DOCDESK_DATABASE_URL is required for the pgvector backend")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
