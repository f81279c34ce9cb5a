// Package repository defines the session storage interface and its implementations.
package repository

import (
	"context"

	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// Store owns every Session record of the process.
// Reads return snapshots; all mutations go through the store.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)
	DeleteSession(ctx context.Context, sessionID string) error
	RenameSession(ctx context.Context, sessionID, name string) error
	AutoName(ctx context.Context, sessionID, name string) (bool, error)
	SetContinuationToken(ctx context.Context, sessionID, token string) error

	// Message operations
	AppendMessage(ctx context.Context, sessionID string, message domain.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error)

	Close() error
}
