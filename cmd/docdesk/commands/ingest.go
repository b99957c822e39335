// ABOUTME: CLI command to ingest text documents into the index
// ABOUTME: Reads UTF-8 files from disk, chunks them, and indexes the chunks
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docdesk/docdesk/internal/models"
)

var (
	ingestType   string
	ingestSource string
)

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest text documents into the index",
		Long: `Ingest text documents into the index.

Each file is read as UTF-8 text, split into overlapping chunks at
sentence boundaries, embedded, and stored in the semantic index under
its base filename.

Examples:
  docdesk ingest handbook.txt
  docdesk ingest --type markdown docs/*.md
  docdesk ingest --source policies.txt /tmp/draft.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestType, "type", "text", "Document type label stored in chunk metadata")
	cmd.Flags().StringVar(&ingestSource, "source", "", "Override the source name (default: base filename)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestSource != "" && len(args) > 1 {
		return fmt.Errorf("--source can only be used with a single file")
	}

	s, err := buildStack(false)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		source := ingestSource
		if source == "" {
			source = filepath.Base(path)
		}

		chunks := s.splitter.ChunkSegments([]models.Segment{{Text: string(data)}}, source, ingestType)
		if len(chunks) == 0 {
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Skipped %s: no indexable text\n", path)
			}
			continue
		}

		ids, err := s.index.Insert(cmd.Context(), chunks)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s: %d chunks\n", source, len(ids))
		}
	}

	return nil
}
