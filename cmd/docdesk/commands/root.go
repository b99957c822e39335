// ABOUTME: Root CLI command wiring global flags and subcommands
// ABOUTME: Entry point for all docdesk CLI operations
package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
██████╗  ██████╗  ██████╗██████╗ ███████╗███████╗██╗  ██╗
██╔══██╗██╔═══██╗██╔════╝██╔══██╗██╔════╝██╔════╝██║ ██╔╝
██║  ██║██║   ██║██║     ██║  ██║█████╗  ███████╗█████╔╝
██║  ██║██║   ██║██║     ██║  ██║██╔══╝  ╚════██║██╔═██╗
██████╔╝╚██████╔╝╚██████╗██████╔╝███████╗███████║██║  ██╗
╚═════╝  ╚═════╝  ╚═════╝╚═════╝ ╚══════╝╚══════╝╚═╝  ╚═╝
`

// NewRootCmd creates the root command with all subcommands
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docdesk",
		Short: "Document-grounded support chatbot",
		Long: banner + `
docdesk answers questions from your business documents.

Documents are chunked, embedded, and stored in a semantic index; every
answer is generated from the most relevant chunks, with source
attributions and a confidence score.

Run 'docdesk serve' for the HTTP API, 'docdesk mcp' for the MCP server,
or 'docdesk query' for a one-shot question from the terminal.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewQueryCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewSessionsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
