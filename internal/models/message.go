// ABOUTME: Message and Role types for per-session conversation history
// ABOUTME: Messages are append-only and ordered chronologically
package models

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn stored in session memory.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ChatMessage is the {role, content} projection consumed by the
// generation service.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
