// ABOUTME: Session record and per-session statistics
// ABOUTME: Sessions are keyed by an opaque, unguessable id
package models

import "time"

// Session is a server-side conversation context. LastActivity is bumped by
// every message append; the expiry sweep removes sessions whose
// LastActivity is older than the configured timeout.
type Session struct {
	ID           string    `json:"session_id"`
	UserID       string    `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Active       bool      `json:"is_active"`
}

// SessionStats summarizes a single session's history.
type SessionStats struct {
	SessionID         string        `json:"session_id"`
	TotalMessages     int           `json:"total_messages"`
	UserMessages      int           `json:"user_messages"`
	AssistantMessages int           `json:"assistant_messages"`
	CreatedAt         time.Time `json:"created_at"`
	LastActivity      time.Time `json:"last_activity"`
	DurationMinutes   float64   `json:"duration_minutes"`
	Active            bool      `json:"is_active"`
}
