// ABOUTME: CLI command to inspect active sessions on a running server
// ABOUTME: Lists session ids or shows per-session statistics over HTTP
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var sessionsServer string

// NewSessionsCmd creates the sessions command
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [session-id]",
		Short: "List active sessions on a running server",
		Long: `List active sessions on a running server.

Sessions live in the server process, so this command talks to a running
'docdesk serve' instance over HTTP. With a session id argument it shows
that session's statistics instead.

Examples:
  docdesk sessions
  docdesk sessions 4f7c... --server http://localhost:9000`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSessions,
	}

	cmd.Flags().StringVar(&sessionsServer, "server", "http://localhost:8000", "Base URL of the running server")

	return cmd
}

func runSessions(cmd *cobra.Command, args []string) error {
	url := sessionsServer + "/api/sessions"
	if len(args) == 1 {
		url = fmt.Sprintf("%s/api/sessions/%s/stats", sessionsServer, args[0])
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("contacting server at %s: %w", sessionsServer, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, body)
	}

	if outputFormat == "json" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", body)
		return nil
	}

	if len(args) == 1 {
		var stats map[string]any
		if err := json.Unmarshal(body, &stats); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		for _, key := range []string{"session_id", "total_messages", "user_messages", "assistant_messages", "is_active"} {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %v\n", key, stats[key])
		}
		return nil
	}

	var list struct {
		ActiveSessions []string `json:"active_sessions"`
		Count          int      `json:"count"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if list.Count == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No active sessions")
		}
		return nil
	}
	for _, id := range list.ActiveSessions {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
