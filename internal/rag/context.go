// ABOUTME: Assembles retrieved hits into a single labeled context string
// ABOUTME: Applies the similarity threshold while keeping original source ranks
package rag

import (
	"fmt"
	"strings"

	"github.com/docdesk/docdesk/internal/models"
)

const contextSeparator = "\n---\n"

// BuildContext converts hits into the grounding text handed to the
// generation service. Hits below the similarity threshold are dropped,
// but the 1-based source labels keep the original ranks so discarded
// positions stay cross-referenceable. Nothing passing the threshold
// yields an empty string, which the engine treats as "answer without
// grounding".
func BuildContext(hits []models.RetrievalHit, similarityThreshold float64) string {
	if len(hits) == 0 {
		return ""
	}

	var blocks []string
	for i, hit := range hits {
		if hit.Similarity() < similarityThreshold {
			continue
		}
		source := sourceName(hit.Metadata)
		blocks = append(blocks, fmt.Sprintf("[Source %d: %s]\n%s\n", i+1, source, hit.Content))
	}

	return strings.Join(blocks, contextSeparator)
}

// sourceName reads the source label from hit metadata.
func sourceName(metadata map[string]any) string {
	if s, ok := metadata[models.MetaSource].(string); ok && s != "" {
		return s
	}
	return "Unknown"
}
