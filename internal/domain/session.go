// Package domain defines the core domain models for the gateway.
package domain

import "time"

// DefaultSessionName is the name given to sessions created without one.
// Auto-naming only replaces a name that still equals this value.
const DefaultSessionName = "New Chat"

// Session is a caller-visible conversation.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	// ContinuationToken is the last token returned by the agent process.
	// Empty until the first successful turn.
	ContinuationToken string    `json:"-"`
	Messages          []Message `json:"messages,omitempty"`
}

// IsNew reports whether the next turn must start a fresh agent conversation.
func (s *Session) IsNew() bool {
	return s == nil || s.ContinuationToken == ""
}

// SessionSummary is the list view of a session.
type SessionSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	MessageCount int       `json:"messageCount"`
}

// Message is one history record of a session.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}
