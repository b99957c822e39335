// ABOUTME: Unit tests for context assembly and threshold filtering
// ABOUTME: Verifies source labeling keeps original ranks after filtering
package rag

import (
	"strings"
	"testing"

	"github.com/docdesk/docdesk/internal/models"
)

func hit(content, source string, distance float64) models.RetrievalHit {
	return models.RetrievalHit{
		Content:  content,
		Distance: distance,
		Metadata: map[string]any{models.MetaSource: source},
	}
}

func TestBuildContext_Empty(t *testing.T) {
	if got := BuildContext(nil, 0.7); got != "" {
		t.Errorf("BuildContext(nil) = %q, want empty", got)
	}
}

func TestBuildContext_ThresholdKeepsOriginalRanks(t *testing.T) {
	hits := []models.RetrievalHit{
		hit("refunds take five days", "policy.txt", 0.1), // similarity 0.9
		hit("ship worldwide", "shipping.txt", 0.5),       // similarity 0.5
		hit("contact support", "faq.txt", 0.25),          // similarity 0.75
	}

	got := BuildContext(hits, 0.7)

	if !strings.Contains(got, "[Source 1: policy.txt]") {
		t.Errorf("missing first source block:\n%s", got)
	}
	if strings.Contains(got, "shipping.txt") {
		t.Errorf("below-threshold hit included:\n%s", got)
	}
	// The third hit keeps its rank 3, not renumbered to 2.
	if !strings.Contains(got, "[Source 3: faq.txt]") {
		t.Errorf("filtered ranks were renumbered:\n%s", got)
	}
	if strings.Contains(got, "[Source 2:") {
		t.Errorf("unexpected rank 2 block:\n%s", got)
	}
	if !strings.Contains(got, "refunds take five days") {
		t.Errorf("missing hit content:\n%s", got)
	}
	if !strings.Contains(got, contextSeparator) {
		t.Errorf("blocks not joined by separator:\n%s", got)
	}
}

func TestBuildContext_NothingPassesThreshold(t *testing.T) {
	hits := []models.RetrievalHit{
		hit("a", "one.txt", 0.9),
		hit("b", "two.txt", 0.8),
	}

	if got := BuildContext(hits, 0.7); got != "" {
		t.Errorf("BuildContext() = %q, want empty", got)
	}
}

func TestBuildContext_UnknownSource(t *testing.T) {
	hits := []models.RetrievalHit{
		{Content: "orphan text", Distance: 0.0, Metadata: map[string]any{}},
	}

	got := BuildContext(hits, 0.5)
	if !strings.Contains(got, "[Source 1: Unknown]") {
		t.Errorf("missing Unknown source label:\n%s", got)
	}
}

func TestBuildContext_ZeroThresholdKeepsAll(t *testing.T) {
	hits := []models.RetrievalHit{
		hit("a", "one.txt", 0.95),
		hit("b", "two.txt", 0.99),
	}

	got := BuildContext(hits, 0.0)
	if !strings.Contains(got, "[Source 1: one.txt]") || !strings.Contains(got, "[Source 2: two.txt]") {
		t.Errorf("zero threshold dropped hits:\n%s", got)
	}
}
