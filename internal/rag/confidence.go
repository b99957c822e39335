// ABOUTME: Heuristic confidence score summarizing retrieval quality
// ABOUTME: Mean top-3 similarity, rounded; not a calibrated probability
package rag

import (
	"math"

	"github.com/docdesk/docdesk/internal/models"
)

// Confidence averages the similarity of the top three hits (the input is
// already distance-ascending) and rounds to two decimals. No hits means
// zero confidence. The result is a proxy for answer grounding quality,
// nothing more.
func Confidence(hits []models.RetrievalHit) float64 {
	if len(hits) == 0 {
		return 0.0
	}

	top := hits
	if len(top) > 3 {
		top = top[:3]
	}

	var sum float64
	for _, hit := range top {
		sum += hit.Similarity()
	}
	return round2(sum / float64(len(top)))
}

// round2 rounds to two decimal digits.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
