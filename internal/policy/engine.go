// Package policy evaluates the invocation policy with OPA before an agent turn runs.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"

	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// Decisions returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Input is the document the policy sees as `input`.
type Input struct {
	Surface     domain.Surface `json:"surface"`
	Model       string         `json:"model,omitempty"`
	PromptBytes int            `json:"prompt_bytes"`
	Resume      bool           `json:"resume"`
	SessionID   string         `json:"session_id,omitempty"`
}

// Decision is the evaluated policy result.
type Decision struct {
	Decision string
	Reason   string
}

// Allowed reports whether the turn may run.
func (d Decision) Allowed() bool {
	return d.Decision != DecisionBlock
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.invocation_policy"),
		rego.Module("invocation_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy module from path, or the default
// policy when path is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate checks the invocation policy for one turn.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Decision: DecisionAllow, Reason: "default"}, nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{Decision: DecisionAllow, Reason: "unexpected return type"}, nil
	}

	d := Decision{Decision: DecisionAllow}
	if s, ok := doc["decision"].(string); ok {
		d.Decision = s
	}
	if s, ok := doc["reason"].(string); ok {
		d.Reason = s
	}
	return d, nil
}

// DefaultPolicy is the default policy content. The prompt travels as a
// single process argument, so prompts past the kernel's per-argument limit
// (MAX_ARG_STRLEN on Linux) are refused up front.
const DefaultPolicy = `
package invocation_policy

import rego.v1

max_prompt_bytes := 131072

default decision := "allow"

default reason := ""

decision := "block" if {
	input.prompt_bytes > max_prompt_bytes
}

reason := "prompt exceeds maximum size" if {
	input.prompt_bytes > max_prompt_bytes
}
`
