// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents to query and manage the document index via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/docdesk/docdesk/internal/mcp"
	"github.com/docdesk/docdesk/internal/session"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs docdesk as an MCP (Model Context Protocol) server, enabling LLM
agents to ask questions against the document index, ingest text, and
manage sources via stdio.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  docdesk mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "docdesk": {
  #       "command": "docdesk",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol, so logs must stay off the console
	quiet = true

	s, err := buildStack(true)
	if err != nil {
		return err
	}
	defer s.Close()

	sessions := session.NewStore(s.cfg.MaxHistoryTurns, s.log)

	srv := mcpserver.NewMCPServer(
		"docdesk",
		versionInfo.Version,
	)
	mcp.RegisterTools(srv, s.engine, s.index, sessions, s.splitter, s.log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.log.Info("mcp server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(srv)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutdown signal received")

	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	s.log.Info("shutdown complete", zap.Int("active_sessions", len(sessions.ActiveSessionIDs())))
	return nil
}
