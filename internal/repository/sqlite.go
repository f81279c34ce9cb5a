package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaot623/gogo/gateway/internal/domain"
)

// DefaultSQLiteDSN keeps the database in memory for the lifetime of the process.
const DefaultSQLiteDSN = "file:gateway?mode=memory&cache=shared"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			continuation_token TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_seq INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, message_seq)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession inserts the session unless its id already exists, and
// returns the stored session either way.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	var token sql.NullString
	if session.ContinuationToken != "" {
		token = sql.NullString{String: session.ContinuationToken, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (session_id, name, created_at, continuation_token) VALUES (?, ?, ?, ?)`,
		session.ID, session.Name, session.CreatedAt.UnixNano(), token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s.GetSession(ctx, session.ID)
}

// GetSession returns the session with its history, or nil when absent.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	var createdAt int64
	var token sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, name, created_at, continuation_token FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.ID, &session.Name, &createdAt, &token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session.CreatedAt = time.Unix(0, createdAt)
	if token.Valid {
		session.ContinuationToken = token.String
	}

	messages, err := s.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Messages = messages
	return &session, nil
}

// ListSessions returns all sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.session_id, s.name, s.created_at, COUNT(m.message_seq)
		 FROM sessions s LEFT JOIN messages m ON m.session_id = s.session_id
		 GROUP BY s.session_id
		 ORDER BY s.created_at DESC, s.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []domain.SessionSummary{}
	for rows.Next() {
		var summary domain.SessionSummary
		var createdAt int64
		if err := rows.Scan(&summary.ID, &summary.Name, &createdAt, &summary.MessageCount); err != nil {
			return nil, err
		}
		summary.CreatedAt = time.Unix(0, createdAt)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// DeleteSession removes the session and its messages. Deleting an unknown id is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// RenameSession overwrites the session name.
func (s *SQLiteStore) RenameSession(ctx context.Context, sessionID, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET name = ? WHERE session_id = ?`, name, sessionID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// AutoName sets the name only while the session still has the default name.
func (s *SQLiteStore) AutoName(ctx context.Context, sessionID, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET name = ? WHERE session_id = ? AND name = ?`,
		name, sessionID, domain.DefaultSessionName)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	exists, err := s.exists(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, domain.ErrSessionNotFound
	}
	return false, nil
}

// SetContinuationToken overwrites the stored token.
func (s *SQLiteStore) SetContinuationToken(ctx context.Context, sessionID, token string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET continuation_token = ? WHERE session_id = ?`, token, sessionID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// AppendMessage appends a record to the session history.
func (s *SQLiteStore) AppendMessage(ctx context.Context, sessionID string, message domain.Message) error {
	exists, err := s.exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrSessionNotFound
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, string(message.Role), message.Content, message.CreatedAt.UnixNano())
	return err
}

// GetMessages retrieves the ordered history of a session.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	exists, err := s.exists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrSessionNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages WHERE session_id = ? ORDER BY message_seq ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var role string
		var createdAt int64
		if err := rows.Scan(&role, &msg.Content, &createdAt); err != nil {
			return nil, err
		}
		msg.Role = domain.MessageRole(role)
		msg.CreatedAt = time.Unix(0, createdAt)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) exists(ctx context.Context, sessionID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sessions WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
