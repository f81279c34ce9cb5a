package service

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/gateway/internal/domain"
	"github.com/xiaot623/gogo/gateway/internal/interpreter"
	"github.com/xiaot623/gogo/gateway/internal/policy"
)

// autoNameLength is the number of prompt characters kept in an automatic name.
const autoNameLength = 50

// startFailureMessage is shown when the agent process could not be started.
const startFailureMessage = "failed to start agent process"

// turn is one agent invocation on behalf of a session.
type turn struct {
	surface domain.Surface
	// session is the resolved session; nil token means a fresh conversation.
	session *domain.Session
	// persisted is false for session-less OpenAI requests.
	persisted bool
	prompt    string
	// record is the text stored as the user message.
	record string
	// autoName enables naming the session after the prompt.
	autoName bool
}

// checkPolicy evaluates the invocation policy for a prompt.
func (s *Service) checkPolicy(ctx context.Context, input policy.Input) error {
	if s.policyEngine == nil {
		return nil
	}
	decision, err := s.policyEngine.Evaluate(ctx, input)
	if err != nil {
		// A broken policy must not take the gateway down.
		s.logger.Warn("policy evaluation failed, allowing turn", "error", err)
		return nil
	}
	if !decision.Allowed() {
		s.logger.Info("turn blocked by policy",
			"surface", input.Surface,
			"reason", decision.Reason,
			"prompt_bytes", input.PromptBytes)
		return &domain.PolicyError{Reason: decision.Reason}
	}
	return nil
}

// run invokes the agent for t and records the turn in the session.
// A failed turn is returned as *domain.InvocationError.
func (s *Service) run(ctx context.Context, t turn) (domain.Outcome, error) {
	// The process runs to completion and the session is updated even if
	// the caller goes away.
	ctx = context.WithoutCancel(ctx)

	sessionID := t.session.ID
	token := ""
	if !t.session.IsNew() {
		token = t.session.ContinuationToken
	}

	s.record(ctx, t, domain.MessageRoleUser, t.record)

	start := time.Now()
	result, err := s.runner.Invoke(ctx, t.prompt, token)
	var outcome domain.Outcome
	if err != nil {
		s.logger.Error("agent invocation failed", "session_id", sessionID, "error", err)
		outcome = domain.Outcome{Kind: domain.OutcomeFailure, Text: startFailureMessage, ExitCode: -1}
	} else {
		outcome = interpreter.Interpret(result)
	}

	s.logger.Info("agent turn finished",
		"surface", t.surface,
		"session_id", sessionID,
		"persisted", t.persisted,
		"resumed", token != "",
		"outcome", outcome.Kind,
		"exit_code", outcome.ExitCode,
		"parsed", outcome.Parsed,
		"duration_ms", time.Since(start).Milliseconds())

	if !outcome.OK() {
		s.record(ctx, t, domain.MessageRoleError, outcome.Text)
		return outcome, &domain.InvocationError{
			Kind:     outcome.Kind,
			Message:  outcome.Text,
			ExitCode: outcome.ExitCode,
		}
	}

	if t.persisted {
		if outcome.ContinuationToken != "" {
			if err := s.store.SetContinuationToken(ctx, sessionID, outcome.ContinuationToken); err != nil {
				s.logger.Warn("failed to store continuation token", "session_id", sessionID, "error", err)
			}
		}
		if t.autoName {
			if _, err := s.store.AutoName(ctx, sessionID, AutoName(t.prompt)); err != nil {
				s.logger.Warn("failed to auto-name session", "session_id", sessionID, "error", err)
			}
		}
	}
	s.record(ctx, t, domain.MessageRoleAssistant, outcome.Text)
	return outcome, nil
}

// record appends a history message when the session is persisted. The
// session may have been deleted mid-turn; that is logged, not returned.
func (s *Service) record(ctx context.Context, t turn, role domain.MessageRole, content string) {
	if !t.persisted {
		return
	}
	msg := domain.Message{Role: role, Content: content, CreatedAt: time.Now()}
	if err := s.store.AppendMessage(ctx, t.session.ID, msg); err != nil {
		s.logger.Warn("failed to append message", "session_id", t.session.ID, "role", role, "error", err)
	}
}

// AutoName derives a session name from the first prompt.
func AutoName(prompt string) string {
	return truncate(prompt, autoNameLength)
}

func truncate(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
