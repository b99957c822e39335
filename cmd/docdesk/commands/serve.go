// ABOUTME: Serve command runs the HTTP API
// ABOUTME: Builds the full pipeline and handles graceful shutdown
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docdesk/docdesk/internal/server"
	"github.com/docdesk/docdesk/internal/session"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Serves the chat, document, and session endpoints and runs the session
expiry sweep in the background. Configuration comes from DOCDESK_*
environment variables (see .env support).`,
		RunE: runServe,
		Example: `  # Serve on the default port with the in-memory index
  docdesk serve

  # Serve against postgres with pgvector
  DOCDESK_INDEX_BACKEND=pgvector DOCDESK_DATABASE_URL=postgres://... docdesk serve`,
	}

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := buildStack(true)
	if err != nil {
		return err
	}
	defer s.Close()

	sessions := session.NewStore(s.cfg.MaxHistoryTurns, s.log)
	srv := server.New(s.cfg, s.engine, s.index, sessions, s.splitter, s.log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("shutdown error", zap.Error(err))
		}

	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
