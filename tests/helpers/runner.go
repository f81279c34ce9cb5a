package helpers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// Call is one recorded Invoke.
type Call struct {
	Prompt string
	Token  string
}

// FakeRunner replays scripted results and records every call.
type FakeRunner struct {
	mu      sync.Mutex
	results []*domain.InvocationResult
	calls   []Call

	// Err is returned from Invoke instead of a result when set.
	Err error
}

// NewFakeRunner returns a runner that answers with results in order. Once
// exhausted, the last result is repeated.
func NewFakeRunner(results ...*domain.InvocationResult) *FakeRunner {
	return &FakeRunner{results: results}
}

func (r *FakeRunner) Invoke(ctx context.Context, prompt, continuationToken string) (*domain.InvocationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Prompt: prompt, Token: continuationToken})
	if r.Err != nil {
		return nil, r.Err
	}
	if len(r.results) == 0 {
		return &domain.InvocationResult{}, nil
	}
	res := r.results[0]
	if len(r.results) > 1 {
		r.results = r.results[1:]
	}
	return res, nil
}

// Calls returns a copy of the recorded calls.
func (r *FakeRunner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Success is a zero-exit JSON result carrying text and token.
func Success(text, token string) *domain.InvocationResult {
	return &domain.InvocationResult{
		Stdout: `{"type":"result","is_error":false,"result":` + quote(text) + `,"session_id":` + quote(token) + `}`,
	}
}

// Failure is a failed process run.
func Failure(exitCode int, stderr string) *domain.InvocationResult {
	return &domain.InvocationResult{ExitCode: exitCode, Stderr: stderr}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
