package domain

// MessageRole tags a history record.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleError     MessageRole = "error"
)

// OutcomeKind classifies an interpreted invocation.
type OutcomeKind string

const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeAuthFailure OutcomeKind = "auth_failure"
	OutcomeFailure     OutcomeKind = "failure"
)

// Surface identifies which API a turn arrived on.
type Surface string

const (
	SurfaceChat      Surface = "chat"
	SurfaceOpenAI    Surface = "openai"
	SurfaceWebSocket Surface = "websocket"
)
