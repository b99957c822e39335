// ABOUTME: CLI command to show document index statistics
// ABOUTME: Reports chunk count, collection, and embedding model
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long: `Show document index statistics.

Reports the number of indexed chunks, the collection name, and the
embedding model in use.`,
		RunE: runStats,
	}

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := buildStack(false)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.index.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("getting index stats: %w", err)
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Collection:      %s\n", stats.CollectionName)
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed chunks:  %d\n", stats.Count)
	fmt.Fprintf(cmd.OutOrStdout(), "Embedding model: %s\n", stats.EmbeddingModel)

	return nil
}
