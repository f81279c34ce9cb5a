package domain

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// CreateSessionResponse is returned after creating a session.
type CreateSessionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RenameSessionRequest is the body of PATCH /api/sessions/:id.
type RenameSessionRequest struct {
	Name string `json:"name"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatResult is a successful native chat turn.
type ChatResult struct {
	SessionID string `json:"sessionId"`
	Result    string `json:"result"`
}

// ChatErrorResponse is the failure body of the native API.
type ChatErrorResponse struct {
	Error    string `json:"error"`
	ExitCode *int   `json:"exitCode,omitempty"`
}

// OKResponse acknowledges a mutation.
type OKResponse struct {
	OK bool `json:"ok"`
}

// CompletionResult is a successful OpenAI-surface turn before encoding.
type CompletionResult struct {
	Text   string
	Prompt string
	Model  string
	// SessionKey is empty for session-less requests.
	SessionKey string
}
