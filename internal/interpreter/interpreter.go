// Package interpreter turns raw agent process results into classified outcomes.
package interpreter

import (
	"encoding/json"
	"strings"

	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// GenericFailureMessage is used when a failed process left no usable output.
const GenericFailureMessage = "agent process failed"

// authIndicators are matched against the lower-cased failure text.
var authIndicators = []string{
	"not authenticated",
	"authentication",
	"api key",
	"unauthorized",
	"login",
	"oauth",
	"sign in",
	"not logged in",
}

// agentOutput is the JSON document the agent writes to stdout. Fields are
// kept raw so a value of an unexpected type only drops that field.
type agentOutput struct {
	Result    json.RawMessage `json:"result"`
	SessionID json.RawMessage `json:"session_id"`
	IsError   json.RawMessage `json:"is_error"`
}

// stringField decodes raw as a JSON string; anything else, null included, is absent.
func stringField(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// IsAuthMessage reports whether text looks like an authentication problem.
func IsAuthMessage(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range authIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// Interpret classifies the result of one invocation.
func Interpret(res *domain.InvocationResult) domain.Outcome {
	if res.ExitCode != 0 {
		return interpretFailure(res)
	}

	out, ok := parseOutput(res.Stdout)
	if !ok {
		return domain.Outcome{
			Kind: domain.OutcomeSuccess,
			Text: res.Stdout,
		}
	}

	text := res.Stdout
	if result, ok := stringField(out.Result); ok {
		text = result
	}

	// A clean exit does not guarantee a successful turn.
	if truthy(out.IsError) && IsAuthMessage(text) {
		return domain.Outcome{
			Kind:   domain.OutcomeAuthFailure,
			Text:   text,
			Parsed: true,
		}
	}

	outcome := domain.Outcome{
		Kind:   domain.OutcomeSuccess,
		Text:   text,
		Parsed: true,
	}
	if token, ok := stringField(out.SessionID); ok {
		outcome.ContinuationToken = token
	}
	return outcome
}

func interpretFailure(res *domain.InvocationResult) domain.Outcome {
	message := strings.TrimSpace(res.Stderr)
	parsed := false
	if message == "" {
		if out, ok := parseOutput(res.Stdout); ok {
			message, parsed = stringField(out.Result)
		}
		if !parsed {
			message = strings.TrimSpace(res.Stdout)
		}
	}
	if message == "" {
		message = GenericFailureMessage
	}

	kind := domain.OutcomeFailure
	if IsAuthMessage(message) {
		kind = domain.OutcomeAuthFailure
	}
	return domain.Outcome{
		Kind:     kind,
		Text:     message,
		ExitCode: res.ExitCode,
		Parsed:   parsed,
	}
}

// parseOutput decodes stdout as a JSON object.
func parseOutput(stdout string) (*agentOutput, bool) {
	trimmed := strings.TrimSpace(stdout)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var out agentOutput
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, false
	}
	return &out, true
}

// truthy follows the usual JSON truthiness: false, 0, "", null and absence are false.
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
