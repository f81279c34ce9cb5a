// Package agentcli runs the external agent command-line process.
package agentcli

import (
	"context"

	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// Runner executes one agent turn.
type Runner interface {
	// Invoke runs the agent with prompt as the final argument. The
	// continuation flag is passed only when continuationToken is non-empty.
	// A returned error means the process could not be run at all; a process
	// that ran and failed is reported through the result's exit code.
	Invoke(ctx context.Context, prompt, continuationToken string) (*domain.InvocationResult, error)
}

// Ensure Client implements Runner interface.
var _ Runner = (*Client)(nil)
