// ABOUTME: Unit tests for configuration loading and validation
// ABOUTME: Verifies defaults, env overrides, and rejection of bad values
package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ChunkSize != 1000 {
		t.Errorf("ChunkSize = %d, want 1000", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 200 {
		t.Errorf("ChunkOverlap = %d, want 200", cfg.ChunkOverlap)
	}
	if cfg.TopKResults != 5 {
		t.Errorf("TopKResults = %d, want 5", cfg.TopKResults)
	}
	if cfg.SimilarityThreshold != 0.7 {
		t.Errorf("SimilarityThreshold = %f, want 0.7", cfg.SimilarityThreshold)
	}
	if cfg.MaxHistoryTurns != 10 {
		t.Errorf("MaxHistoryTurns = %d, want 10", cfg.MaxHistoryTurns)
	}
	if cfg.SessionTimeout != 30*time.Minute {
		t.Errorf("SessionTimeout = %s, want 30m", cfg.SessionTimeout)
	}
	if cfg.IndexBackend != BackendMemory {
		t.Errorf("IndexBackend = %q, want %q", cfg.IndexBackend, BackendMemory)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCDESK_CHUNK_SIZE", "500")
	t.Setenv("DOCDESK_CHUNK_OVERLAP", "50")
	t.Setenv("DOCDESK_SESSION_TIMEOUT", "5m")
	t.Setenv("DOCDESK_CHAT_MODEL", "gpt-4o")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ChunkSize != 500 {
		t.Errorf("ChunkSize = %d, want 500", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 50 {
		t.Errorf("ChunkOverlap = %d, want 50", cfg.ChunkOverlap)
	}
	if cfg.SessionTimeout != 5*time.Minute {
		t.Errorf("SessionTimeout = %s, want 5m", cfg.SessionTimeout)
	}
	if cfg.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %q, want gpt-4o", cfg.ChatModel)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ChunkSize:           1000,
			ChunkOverlap:        200,
			TopKResults:         5,
			SimilarityThreshold: 0.7,
			MaxHistoryTurns:     10,
			SessionTimeout:      30 * time.Minute,
			MaxRetries:          3,
			IndexBackend:        BackendMemory,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }, "DOCDESK_CHUNK_OVERLAP"},
		{"overlap exceeds size", func(c *Config) { c.ChunkOverlap = c.ChunkSize + 1 }, "DOCDESK_CHUNK_OVERLAP"},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, "DOCDESK_CHUNK_OVERLAP"},
		{"threshold too high", func(c *Config) { c.SimilarityThreshold = 1.5 }, "DOCDESK_SIMILARITY_THRESHOLD"},
		{"threshold negative", func(c *Config) { c.SimilarityThreshold = -0.1 }, "DOCDESK_SIMILARITY_THRESHOLD"},
		{"zero top k", func(c *Config) { c.TopKResults = 0 }, "DOCDESK_TOP_K"},
		{"zero history turns", func(c *Config) { c.MaxHistoryTurns = 0 }, "DOCDESK_MAX_HISTORY_TURNS"},
		{"zero session timeout", func(c *Config) { c.SessionTimeout = 0 }, "DOCDESK_SESSION_TIMEOUT"},
		{"unknown backend", func(c *Config) { c.IndexBackend = "chroma" }, "DOCDESK_INDEX_BACKEND"},
		{"pgvector without url", func(c *Config) { c.IndexBackend = BackendPGVector }, "DOCDESK_DATABASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
