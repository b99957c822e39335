// ABOUTME: Benchmark runner executing retrieval-quality scenarios end to end
// ABOUTME: Runs the real pipeline with deterministic embedding and generation
package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/chunker"
	"github.com/docdesk/docdesk/internal/index"
	"github.com/docdesk/docdesk/internal/llm"
	"github.com/docdesk/docdesk/internal/models"
	"github.com/docdesk/docdesk/internal/rag"
)

const (
	benchTopK      = 5
	benchThreshold = 0.2
)

// BenchmarkRunner executes retrieval-quality benchmark scenarios. Each
// scenario runs the real chunker/index/engine pipeline with a
// deterministic bag-of-words embedder and a template generator, so
// results measure retrieval behavior, not OpenAI variance.
type BenchmarkRunner struct {
	metrics *MetricsCalculator
	verbose bool
}

// NewBenchmarkRunner creates a new benchmark runner
func NewBenchmarkRunner(verbose bool) *BenchmarkRunner {
	return &BenchmarkRunner{
		metrics: NewMetricsCalculator(),
		verbose: verbose,
	}
}

// RunTest executes a single benchmark scenario against a fresh index.
func (r *BenchmarkRunner) RunTest(scenario TestScenario) (TestResult, error) {
	if r.verbose {
		fmt.Printf("\n========================================\n")
		fmt.Printf("RUNNING: %s\n", scenario.Name)
		fmt.Printf("========================================\n")
		fmt.Printf("Description: %s\n\n", scenario.Description)
	}

	ctx := context.Background()

	idx := index.New(index.NewMemoryBackend(), newLexicalEmbedder(), "benchmark", "lexical-bow", zap.NewNop())
	splitter := chunker.NewSplitter(1000, 200)

	for _, doc := range scenario.Documents {
		chunks := splitter.ChunkSegments([]models.Segment{{Text: doc.Text}}, doc.Source, doc.Type)
		if _, err := idx.Insert(ctx, chunks); err != nil {
			return TestResult{}, fmt.Errorf("indexing %s: %w", doc.Source, err)
		}
	}

	gen := &benchGenerator{}
	engine := rag.NewEngine(idx, gen, rag.Options{
		TopK:                benchTopK,
		SimilarityThreshold: benchThreshold,
		GenerationTimeout:   10 * time.Second,
	}, zap.NewNop())

	if r.verbose {
		fmt.Printf("[Query] %s\n", scenario.Question)
	}

	result, err := engine.Query(ctx, scenario.Question, rag.QueryOptions{})
	if err != nil {
		return TestResult{}, fmt.Errorf("query failed: %w", err)
	}

	if r.verbose {
		preview := result.Answer
		if len(preview) > 150 {
			preview = preview[:150]
		}
		fmt.Printf("[Answer] %s\n\n", preview)
	}

	sources := make([]string, 0, len(result.Sources))
	for _, src := range result.Sources {
		sources = append(sources, src.Source)
	}

	evaluated := r.metrics.EvaluateTest(scenario, result.Answer, []string{gen.lastContext}, sources, result.Confidence)

	if r.verbose {
		fmt.Printf("========================================\n")
		fmt.Printf("RESULTS: %s\n", scenario.Name)
		fmt.Printf("========================================\n")
		fmt.Printf("Faithfulness: %.2f\n", evaluated.FaithfulnessScore)
		fmt.Printf("Context Recall: %.2f\n", evaluated.ContextRecallScore)
		fmt.Printf("Overall Score: %.2f\n", evaluated.OverallScore)
		fmt.Printf("Status: %s\n", evaluated.Status)
		fmt.Printf("========================================\n\n")
	}

	return evaluated, nil
}

// RunAllTests executes all benchmark scenarios.
func (r *BenchmarkRunner) RunAllTests() ([]TestResult, error) {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(scenario)
		if err != nil {
			return nil, fmt.Errorf("test %s failed: %w", scenario.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// ExportResults exports test results to JSON.
func (r *BenchmarkRunner) ExportResults(results []TestResult, outputPath string) error {
	summary := map[string]interface{}{
		"timestamp":   time.Now().Format(time.RFC3339),
		"total_tests": len(results),
		"passed":      0,
		"failed":      0,
		"results":     results,
	}

	for _, result := range results {
		if result.Status == "PASS" {
			summary["passed"] = summary["passed"].(int) + 1
		} else {
			summary["failed"] = summary["failed"].(int) + 1
		}
	}

	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	fmt.Printf("Results exported to: %s\n", outputPath)
	return nil
}

// lexicalEmbedder is a deterministic bag-of-words embedder. Cosine
// similarity over its vectors approximates lexical overlap, which is
// enough to benchmark retrieval ranking without a network dependency.
type lexicalEmbedder struct {
	dim int
}

func newLexicalEmbedder() *lexicalEmbedder {
	return &lexicalEmbedder{dim: 2048}
}

func (e *lexicalEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dim)
	for _, token := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		vec[h.Sum64()%uint64(e.dim)]++
	}
	return vec, nil
}

// stopWords are filtered out before embedding so function words do not
// dominate the similarity signal.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"but": true, "is": true, "are": true, "was": true, "were": true,
	"i": true, "you": true, "he": true, "she": true, "it": true,
	"my": true, "your": true, "can": true, "what": true, "how": true,
	"when": true, "many": true, "does": true, "do": true, "for": true,
	"from": true, "of": true, "in": true, "to": true, "until": true,
	"by": true, "be": true, "must": true, "their": true, "with": true,
	"up": true, "per": true, "each": true,
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) > 2 && !stopWords[field] {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// benchGenerator is a deterministic stand-in for the answer service.
// It echoes the assembled context so faithfulness scores reflect what
// retrieval surfaced, and records the context for recall scoring.
type benchGenerator struct {
	lastContext string
}

func (g *benchGenerator) Generate(_ context.Context, question, contextText string, _ []models.ChatMessage) (*llm.GenerationResult, error) {
	g.lastContext = contextText

	text := "I don't have information about that in the indexed documents."
	if contextText != "" {
		text = "Based on the indexed documents:\n" + contextText
	}

	return &llm.GenerationResult{
		Text:  text,
		Model: "bench-deterministic",
	}, nil
}
