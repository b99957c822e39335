// ABOUTME: RAGAS-style metrics for faithfulness and context recall
// ABOUTME: Deterministic evaluation against scenario ground truth
package ragas

import (
	"fmt"
	"strings"
)

// MetricsCalculator computes RAGAS-style scores for benchmark tests
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateFaithfulness computes faithfulness score (0.0-1.0).
// Faithfulness = does the answer contain the ground-truth content and
// nothing from documents it should have ignored?
func (m *MetricsCalculator) CalculateFaithfulness(
	response string,
	expectedInResponse []string,
	forbiddenInResponse []string,
) (float64, string) {
	responseUpper := strings.ToUpper(response)

	missingItems := []string{}
	for _, expected := range expectedInResponse {
		if !strings.Contains(responseUpper, strings.ToUpper(expected)) {
			missingItems = append(missingItems, expected)
		}
	}

	forbiddenFound := []string{}
	for _, forbidden := range forbiddenInResponse {
		if strings.Contains(responseUpper, strings.ToUpper(forbidden)) {
			forbiddenFound = append(forbiddenFound, forbidden)
		}
	}

	if len(missingItems) == 0 && len(forbiddenFound) == 0 {
		return 1.0, "Perfect faithfulness - answer matches expected ground truth"
	}

	if len(missingItems) > 0 && len(forbiddenFound) > 0 {
		return 0.0, fmt.Sprintf(
			"Faithfulness failure - missing expected items: %v, forbidden items found: %v",
			missingItems, forbiddenFound,
		)
	}

	if len(missingItems) > 0 {
		return 0.5, fmt.Sprintf("Partial faithfulness - missing expected items: %v", missingItems)
	}

	return 0.5, fmt.Sprintf("Partial faithfulness - forbidden items found: %v", forbiddenFound)
}

// CalculateContextRecall computes context recall score (0.0-1.0).
// Context recall = did retrieval surface the chunks the answer needs?
func (m *MetricsCalculator) CalculateContextRecall(
	retrievedContext []string,
	expectedContextItems []string,
) (float64, string) {
	if len(expectedContextItems) == 0 {
		return 1.0, "No context retrieval required"
	}

	allContext := strings.ToUpper(strings.Join(retrievedContext, " "))

	foundCount := 0
	missingItems := []string{}
	for _, expectedItem := range expectedContextItems {
		if strings.Contains(allContext, strings.ToUpper(expectedItem)) {
			foundCount++
		} else {
			missingItems = append(missingItems, expectedItem)
		}
	}

	recall := float64(foundCount) / float64(len(expectedContextItems))
	if recall == 1.0 {
		return 1.0, "Perfect context recall - all expected items retrieved"
	}

	return recall, fmt.Sprintf("Partial context recall (%.2f) - missing items: %v", recall, missingItems)
}

// CalculateSourceAttribution checks that every expected source appears
// in the answer's attributions.
func (m *MetricsCalculator) CalculateSourceAttribution(
	answerSources []string,
	expectedSources []string,
) (bool, string) {
	missing := []string{}
	for _, expected := range expectedSources {
		found := false
		for _, src := range answerSources {
			if src == expected {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, expected)
		}
	}

	if len(missing) == 0 {
		return true, "All expected sources attributed"
	}
	return false, fmt.Sprintf("Missing source attributions: %v", missing)
}

// EvaluateTest runs the full evaluation for one scenario.
func (m *MetricsCalculator) EvaluateTest(
	scenario TestScenario,
	finalResponse string,
	retrievedContext []string,
	answerSources []string,
	confidence float64,
) TestResult {
	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(
		finalResponse,
		scenario.GroundTruth.ExpectedInResponse,
		scenario.GroundTruth.ForbiddenInResponse,
	)

	recall, recallDetail := m.CalculateContextRecall(
		retrievedContext,
		scenario.GroundTruth.ExpectedContextItems,
	)

	sourcesOK, sourcesDetail := m.CalculateSourceAttribution(
		answerSources,
		scenario.GroundTruth.ExpectedSources,
	)

	overallScore := (faithfulness + recall) / 2.0

	status := "FAIL"
	if faithfulness >= 0.9 && recall >= 0.9 && sourcesOK {
		status = "PASS"
	}

	preview := finalResponse
	if len(preview) > 200 {
		preview = preview[:200]
	}

	return TestResult{
		TestID:             scenario.ID,
		TestName:           scenario.Name,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		OverallScore:       overallScore,
		Confidence:         confidence,
		Status:             status,
		Details: map[string]interface{}{
			"faithfulness_detail": faithfulnessDetail,
			"recall_detail":       recallDetail,
			"sources_detail":      sourcesDetail,
			"final_response":      preview,
			"context_items":       len(retrievedContext),
		},
	}
}
