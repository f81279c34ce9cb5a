package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/gateway/internal/domain"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	t.Run("allows normal prompt", func(t *testing.T) {
		d, err := engine.Evaluate(ctx, Input{Surface: domain.SurfaceChat, PromptBytes: 120})
		require.NoError(t, err)
		assert.True(t, d.Allowed())
		assert.Equal(t, DecisionAllow, d.Decision)
	})

	t.Run("blocks oversized prompt", func(t *testing.T) {
		d, err := engine.Evaluate(ctx, Input{Surface: domain.SurfaceOpenAI, PromptBytes: 131073})
		require.NoError(t, err)
		assert.False(t, d.Allowed())
		assert.Equal(t, "prompt exceeds maximum size", d.Reason)
	})

	t.Run("allows prompt at the argument limit", func(t *testing.T) {
		d, err := engine.Evaluate(ctx, Input{Surface: domain.SurfaceChat, PromptBytes: 131072})
		require.NoError(t, err)
		assert.True(t, d.Allowed())
	})
}

func TestCustomPolicyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "policy.rego")
	custom := `
package invocation_policy

import rego.v1

default decision := "allow"

decision := "block" if {
	input.surface == "websocket"
}

reason := "websocket disabled" if {
	input.surface == "websocket"
}
`
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o600))

	engine, err := NewEngineFromFile(ctx, path)
	require.NoError(t, err)

	d, err := engine.Evaluate(ctx, Input{Surface: domain.SurfaceWebSocket})
	require.NoError(t, err)
	assert.False(t, d.Allowed())
	assert.Equal(t, "websocket disabled", d.Reason)

	d, err = engine.Evaluate(ctx, Input{Surface: domain.SurfaceChat})
	require.NoError(t, err)
	assert.True(t, d.Allowed())
	assert.Equal(t, "", d.Reason)
}

func TestInvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package broken\n\nthis is not rego")
	assert.Error(t, err)

	_, err = NewEngineFromFile(context.Background(), filepath.Join(t.TempDir(), "missing.rego"))
	assert.Error(t, err)
}
