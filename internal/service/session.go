package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// CreateSession creates a session, or returns the existing one when id is known.
func (s *Service) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.CreateSessionResponse, error) {
	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	name := req.Name
	if name == "" {
		name = domain.DefaultSessionName
	}

	session, err := s.store.CreateSession(ctx, &domain.Session{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &domain.CreateSessionResponse{ID: session.ID, Name: session.Name}, nil
}

// ListSessions returns all sessions, newest first.
func (s *Service) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	return s.store.ListSessions(ctx)
}

// DeleteSession removes a session; unknown ids are ignored.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	return s.store.DeleteSession(ctx, sessionID)
}

// RenameSession renames an existing session.
func (s *Service) RenameSession(ctx context.Context, sessionID, name string) error {
	if name == "" {
		return domain.ErrNameRequired
	}
	return s.store.RenameSession(ctx, sessionID, name)
}

// GetSessionMessages returns the history of a session.
func (s *Service) GetSessionMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	return s.store.GetMessages(ctx, sessionID)
}
