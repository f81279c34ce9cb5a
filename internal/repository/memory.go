package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/xiaot623/gogo/gateway/internal/domain"
)

type memoryEntry struct {
	session domain.Session
	seq     uint64
}

// MemoryStore implements Store with a mutex-guarded map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	nextSeq  uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
	}
}

// CreateSession inserts the session unless its id already exists, and
// returns the stored session either way.
func (s *MemoryStore) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[session.ID]; ok {
		return snapshot(&existing.session), nil
	}

	s.nextSeq++
	entry := &memoryEntry{
		session: domain.Session{
			ID:                session.ID,
			Name:              session.Name,
			CreatedAt:         session.CreatedAt,
			ContinuationToken: session.ContinuationToken,
		},
		seq: s.nextSeq,
	}
	s.sessions[session.ID] = entry
	return snapshot(&entry.session), nil
}

// GetSession returns a snapshot of the session, or nil when absent.
func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return snapshot(&entry.session), nil
}

// ListSessions returns all sessions, newest first.
func (s *MemoryStore) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	s.mu.RLock()
	entries := make([]*memoryEntry, 0, len(s.sessions))
	for _, entry := range s.sessions {
		entries = append(entries, entry)
	}
	summaries := make([]domain.SessionSummary, 0, len(entries))
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.session.CreatedAt.Equal(b.session.CreatedAt) {
			return a.session.CreatedAt.After(b.session.CreatedAt)
		}
		return a.seq > b.seq
	})
	for _, entry := range entries {
		summaries = append(summaries, domain.SessionSummary{
			ID:           entry.session.ID,
			Name:         entry.session.Name,
			CreatedAt:    entry.session.CreatedAt,
			MessageCount: len(entry.session.Messages),
		})
	}
	s.mu.RUnlock()
	return summaries, nil
}

// DeleteSession removes the session. Deleting an unknown id is not an error.
func (s *MemoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// RenameSession overwrites the session name.
func (s *MemoryStore) RenameSession(ctx context.Context, sessionID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	entry.session.Name = name
	return nil
}

// AutoName sets the name only while the session still has the default name.
func (s *MemoryStore) AutoName(ctx context.Context, sessionID, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	if entry.session.Name != domain.DefaultSessionName {
		return false, nil
	}
	entry.session.Name = name
	return true, nil
}

// SetContinuationToken overwrites the stored token.
func (s *MemoryStore) SetContinuationToken(ctx context.Context, sessionID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	entry.session.ContinuationToken = token
	return nil
}

// AppendMessage appends a record to the session history.
func (s *MemoryStore) AppendMessage(ctx context.Context, sessionID string, message domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	entry.session.Messages = append(entry.session.Messages, message)
	return nil
}

// GetMessages returns a copy of the session history.
func (s *MemoryStore) GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	messages := make([]domain.Message, len(entry.session.Messages))
	copy(messages, entry.session.Messages)
	return messages, nil
}

// Close is a no-op; the map is discarded with the process.
func (s *MemoryStore) Close() error {
	return nil
}

func snapshot(session *domain.Session) *domain.Session {
	out := *session
	out.Messages = make([]domain.Message, len(session.Messages))
	copy(out.Messages, session.Messages)
	return &out
}

var _ Store = (*MemoryStore)(nil)
