package ws

// Frame types from client to gateway
const (
	TypeChat = "chat"
	TypePing = "ping"
)

// Frame types from gateway to client
const (
	TypeResult = "result"
	TypeError  = "error"
	TypePong   = "pong"
)

// ClientFrame is any frame sent by the client.
type ClientFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Prompt    string `json:"prompt,omitempty"`
}

// ResultFrame carries a successful chat turn.
type ResultFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	SessionID string `json:"sessionId"`
	Result    string `json:"result"`
}

// ErrorFrame reports a failed frame. Status follows the HTTP chat API.
type ErrorFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	ExitCode  *int   `json:"exitCode,omitempty"`
}

// PongFrame answers a ping.
type PongFrame struct {
	Type string `json:"type"`
}
