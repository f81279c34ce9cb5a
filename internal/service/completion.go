package service

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/gateway/internal/domain"
	"github.com/xiaot623/gogo/gateway/internal/openai"
	"github.com/xiaot623/gogo/gateway/internal/policy"
)

// apiSessionNamePrefix marks sessions created by the OpenAI-compatible surface.
const apiSessionNamePrefix = "API: "

// Complete runs one turn for an OpenAI chat-completion request. Requests
// sharing a system prompt share a session; requests without one run on a
// throwaway session that is never stored.
func (s *Service) Complete(ctx context.Context, req *openai.ChatCompletionRequest) (*domain.CompletionResult, error) {
	if len(req.Messages) == 0 {
		return nil, domain.ErrMessagesRequired
	}
	prompt := openai.FlattenPrompt(req.Messages)
	if prompt == "" {
		return nil, domain.ErrEmptyPrompt
	}

	model := req.Model
	if model == "" {
		model = s.config.ModelName
	}

	key, keyed := openai.SessionKey(req.Messages)
	session, err := s.lookupSession(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := s.checkPolicy(ctx, policy.Input{
		Surface:     domain.SurfaceOpenAI,
		Model:       model,
		PromptBytes: len(prompt),
		Resume:      !session.IsNew(),
		SessionID:   key,
	}); err != nil {
		return nil, err
	}

	switch {
	case session != nil:
	case keyed:
		system, _ := openai.SystemPrompt(req.Messages)
		session, err = s.createSession(ctx, key, keyedSessionName(key, system))
		if err != nil {
			return nil, err
		}
	default:
		session = &domain.Session{ID: "ephemeral", CreatedAt: time.Now()}
	}

	outcome, err := s.run(ctx, turn{
		surface:   domain.SurfaceOpenAI,
		session:   session,
		persisted: keyed,
		prompt:    prompt,
		record:    prompt,
	})
	if err != nil {
		return nil, err
	}

	return &domain.CompletionResult{
		Text:       outcome.Text,
		Prompt:     prompt,
		Model:      model,
		SessionKey: key,
	}, nil
}

// keyedSessionName names a session created for a system prompt.
func keyedSessionName(key, system string) string {
	if system == "" {
		return apiSessionNamePrefix + key
	}
	return apiSessionNamePrefix + truncate(system, autoNameLength)
}

// ListModels returns the single configured model.
func (s *Service) ListModels(ctx context.Context) []openai.Model {
	return []openai.Model{
		{
			ID:      s.config.ModelName,
			Object:  "model",
			Created: time.Now().Unix(),
			OwnedBy: "anthropic",
		},
	}
}
