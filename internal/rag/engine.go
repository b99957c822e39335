// ABOUTME: RAG engine: retrieve, assemble context, generate, and attribute sources
// ABOUTME: One query-response cycle with timing and wrapped failure reporting
package rag

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/index"
	"github.com/docdesk/docdesk/internal/llm"
	"github.com/docdesk/docdesk/internal/models"
)

// Retriever is the semantic index surface the engine depends on.
// Implemented by *index.Index.
type Retriever interface {
	Search(ctx context.Context, query string, k int, filter map[string]any) ([]models.RetrievalHit, error)
}

// Generator is the external answer service. Implemented by *llm.Client.
type Generator interface {
	Generate(ctx context.Context, question, contextText string, history []models.ChatMessage) (*llm.GenerationResult, error)
}

// Options tunes the engine's defaults.
type Options struct {
	TopK                int
	SimilarityThreshold float64
	GenerationTimeout   time.Duration
}

// Engine composes retrieval, context assembly, generation, and confidence
// scoring into one query cycle. It never mutates session state; appending
// both turns to session memory is the caller's job.
type Engine struct {
	retriever Retriever
	generator Generator
	opts      Options
	log       *zap.Logger
}

// NewEngine creates an Engine with the given collaborators.
func NewEngine(retriever Retriever, generator Generator, opts Options, log *zap.Logger) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{retriever: retriever, generator: generator, opts: opts, log: log}
}

// Source attributes part of an answer to a document, deduplicated by
// source name in hit order.
type Source struct {
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance"`
	Page      any     `json:"page,omitempty"`
	Section   any     `json:"section,omitempty"`
}

// TokenUsage carries the generation service's token counters.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Result is one complete query-response cycle.
type Result struct {
	Answer         string     `json:"answer"`
	Sources        []Source   `json:"sources"`
	RetrievedCount int        `json:"retrieved_count"`
	ResponseTime   float64    `json:"response_time"`
	Model          string     `json:"model"`
	Usage          TokenUsage `json:"token_usage"`
	Confidence     float64    `json:"confidence"`
}

// QueryError wraps a failure from the retrieval or generation step with
// the query context for observability.
type QueryError struct {
	Question string
	Elapsed  time.Duration
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("rag query %q failed after %s: %v", e.Question, e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// QueryOptions carries per-call overrides.
type QueryOptions struct {
	History []models.ChatMessage
	Filter  map[string]any
	TopK    int
}

// Query runs one retrieval-augmented answer cycle. Search and generation
// failures surface as a *QueryError wrapping the underlying kind; the
// caller can still reach index.ErrEmbedding, llm.ErrGeneration, or
// llm.ErrGenerationTimeout through errors.Is.
func (e *Engine) Query(ctx context.Context, question string, opts QueryOptions) (*Result, error) {
	start := time.Now()

	k := opts.TopK
	if k <= 0 {
		k = e.opts.TopK
	}

	e.log.Info("retrieving documents", zap.String("question", truncate(question, 100)))
	hits, err := e.retriever.Search(ctx, question, k, opts.Filter)
	if err != nil {
		return nil, &QueryError{Question: question, Elapsed: time.Since(start), Err: err}
	}

	contextText := BuildContext(hits, e.opts.SimilarityThreshold)

	genCtx, cancel := context.WithTimeout(ctx, e.opts.GenerationTimeout)
	defer cancel()

	e.log.Info("generating answer", zap.Int("retrieved", len(hits)))
	gen, err := e.generator.Generate(genCtx, question, contextText, opts.History)
	if err != nil {
		return nil, &QueryError{Question: question, Elapsed: time.Since(start), Err: err}
	}

	elapsed := time.Since(start)
	return &Result{
		Answer:         gen.Text,
		Sources:        formatSources(hits),
		RetrievedCount: len(hits),
		ResponseTime:   round2(elapsed.Seconds()),
		Model:          gen.Model,
		Usage: TokenUsage{
			InputTokens:  gen.InputTokens,
			OutputTokens: gen.OutputTokens,
		},
		Confidence: Confidence(hits),
	}, nil
}

// formatSources deduplicates hits by source name in hit order, keeping
// relevance and placement attributes from the first occurrence only.
func formatSources(hits []models.RetrievalHit) []Source {
	sources := []Source{}
	seen := map[string]bool{}

	for _, hit := range hits {
		name := sourceName(hit.Metadata)
		if seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, Source{
			Source:    name,
			Relevance: round2(hit.Similarity()),
			Page:      hit.Metadata[models.MetaPage],
			Section:   hit.Metadata[models.MetaSection],
		})
	}
	return sources
}

// truncate shortens log fields without touching the original value.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// Retriever is satisfied by the concrete index type.
var _ Retriever = (*index.Index)(nil)
