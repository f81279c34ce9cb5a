package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrPromptRequired   = errors.New("prompt is required")
	ErrNameRequired     = errors.New("name is required")
	ErrMessagesRequired = errors.New("messages is required")
	ErrEmptyPrompt      = errors.New("messages contain no text content")
)

// InvocationError is a failed agent turn.
type InvocationError struct {
	Kind     OutcomeKind
	Message  string
	ExitCode int
}

func (e *InvocationError) Error() string {
	if e.Kind == OutcomeAuthFailure {
		return fmt.Sprintf("agent authentication failed: %s", e.Message)
	}
	return fmt.Sprintf("agent failed with exit code %d: %s", e.ExitCode, e.Message)
}

// IsAuth reports whether the agent could not authenticate.
func (e *InvocationError) IsAuth() bool {
	return e.Kind == OutcomeAuthFailure
}

// PolicyError is returned when the invocation policy blocks a turn.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	if e.Reason == "" {
		return "request blocked by invocation policy"
	}
	return "request blocked by invocation policy: " + e.Reason
}
