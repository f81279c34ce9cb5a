package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/gogo/gateway/internal/domain"
	"github.com/xiaot623/gogo/gateway/internal/policy"
)

// Chat runs one native chat turn. Failed turns return *domain.InvocationError.
func (s *Service) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error) {
	return s.chat(ctx, domain.SurfaceChat, req)
}

// ChatWebSocket runs a chat turn received on a WebSocket connection.
func (s *Service) ChatWebSocket(ctx context.Context, req domain.ChatRequest) (*domain.ChatResult, error) {
	return s.chat(ctx, domain.SurfaceWebSocket, req)
}

func (s *Service) chat(ctx context.Context, surface domain.Surface, req domain.ChatRequest) (*domain.ChatResult, error) {
	if req.Prompt == "" {
		return nil, domain.ErrPromptRequired
	}

	session, err := s.lookupSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if err := s.checkPolicy(ctx, policy.Input{
		Surface:     surface,
		Model:       s.config.ModelName,
		PromptBytes: len(req.Prompt),
		Resume:      !session.IsNew(),
		SessionID:   req.SessionID,
	}); err != nil {
		return nil, err
	}

	if session == nil {
		id := req.SessionID
		if id == "" {
			id = uuid.New().String()
		}
		session, err = s.createSession(ctx, id, domain.DefaultSessionName)
		if err != nil {
			return nil, err
		}
	}

	outcome, err := s.run(ctx, turn{
		surface:   surface,
		session:   session,
		persisted: true,
		prompt:    req.Prompt,
		record:    req.Prompt,
		autoName:  true,
	})
	if err != nil {
		return nil, err
	}

	// The stable session id, never the agent's continuation token.
	return &domain.ChatResult{SessionID: session.ID, Result: outcome.Text}, nil
}

// lookupSession returns the stored session, or nil when id is empty or unknown.
func (s *Service) lookupSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// createSession stores a new session. When a concurrent request created
// the same id first, that session is returned instead.
func (s *Service) createSession(ctx context.Context, sessionID, name string) (*domain.Session, error) {
	session, err := s.store.CreateSession(ctx, &domain.Session{
		ID:        sessionID,
		Name:      name,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}
