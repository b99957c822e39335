// ABOUTME: CLI command for one-shot questions against the index
// ABOUTME: Prints the answer with sources and confidence, no session state
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdesk/docdesk/internal/rag"
)

var (
	queryTopK int
)

// NewQueryCmd creates the query command
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a one-shot question",
		Long: `Ask a one-shot question against the document index.

Retrieves the most relevant chunks, generates an answer grounded in
them, and prints the answer with source attributions and a confidence
score. No conversation history is kept.

Examples:
  docdesk query "what is the refund policy?"
  docdesk query --top-k 10 "how do I request vacation?"
  docdesk query --format json "shipping times"`,
		Args: cobra.ExactArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().IntVar(&queryTopK, "top-k", 0, "Number of chunks to retrieve (default: configured value)")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryTopK != 0 {
		if err := validatePositiveInt(queryTopK, "top-k"); err != nil {
			return err
		}
	}

	s, err := buildStack(true)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.engine.Query(cmd.Context(), args[0], rag.QueryOptions{TopK: queryTopK})
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Answer)

	if !quiet {
		fmt.Fprintln(cmd.OutOrStdout())
		if len(result.Sources) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Sources:")
			for _, src := range result.Sources {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (relevance %.2f)\n", src.Source, src.Relevance)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Confidence: %.2f  Chunks: %d  Time: %.2fs\n",
			result.Confidence, result.RetrievedCount, result.ResponseTime)
	}

	return nil
}
