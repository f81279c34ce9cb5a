package agentcli

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// MockClient is a Runner that answers without spawning a process.
// It mimics the agent's JSON output, including continuation tokens.
type MockClient struct {
	mu    sync.Mutex
	turns map[string]int
}

// NewMockClient creates a new mock agent client.
func NewMockClient() *MockClient {
	return &MockClient{turns: make(map[string]int)}
}

// Ensure MockClient implements Runner interface.
var _ Runner = (*MockClient)(nil)

// Invoke echoes the last line of the prompt back as the result.
func (m *MockClient) Invoke(ctx context.Context, prompt, continuationToken string) (*domain.InvocationResult, error) {
	token := continuationToken
	if token == "" {
		token = uuid.New().String()
	}

	m.mu.Lock()
	m.turns[token]++
	turn := m.turns[token]
	m.mu.Unlock()

	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	body, err := json.Marshal(map[string]any{
		"type":       "result",
		"subtype":    "success",
		"is_error":   false,
		"num_turns":  turn,
		"result":     "Mock response to: " + lines[len(lines)-1],
		"session_id": token,
	})
	if err != nil {
		return nil, err
	}
	return &domain.InvocationResult{Stdout: string(body)}, nil
}
