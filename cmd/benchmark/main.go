// ABOUTME: Command-line runner for retrieval-quality benchmarks
// ABOUTME: Executes scenarios and outputs JSON results
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/docdesk/docdesk/benchmarks/ragas"
)

func main() {
	testID := flag.String("test", "", "Run specific test (refund_policy, vacation_policy, unanswerable). If empty, runs all tests.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("docdesk Retrieval Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	runner := ragas.NewBenchmarkRunner(*verbose)

	var results []ragas.TestResult
	var err error

	if *testID == "" {
		fmt.Println("Running all benchmark scenarios...")
		fmt.Println()

		results, err = runner.RunAllTests()
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
	} else {
		scenario, ok := ragas.GetTestByID(*testID)
		if !ok {
			log.Fatalf("Unknown test id %q", *testID)
		}

		result, err := runner.RunTest(scenario)
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
		results = []ragas.TestResult{result}
	}

	// Summary
	passed := 0
	for _, result := range results {
		status := result.Status
		fmt.Printf("  %-40s %s (faithfulness %.2f, recall %.2f)\n",
			result.TestName, status, result.FaithfulnessScore, result.ContextRecallScore)
		if status == "PASS" {
			passed++
		}
	}
	fmt.Printf("\n%d/%d scenarios passed\n\n", passed, len(results))

	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	if passed < len(results) {
		os.Exit(1)
	}
}
