package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
)

// PutSession stores a login session.
func (s *Store) PutSession(ctx context.Context, session storage.Session) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, s.bind(`INSERT INTO sessions (sid, user_id, created_at, expire) VALUES (?, ?, ?, ?)`),
		session.ID, session.UserID, s.encodeTime(session.CreatedAt), s.encodeTime(session.ExpiresAt))
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSession fetches a session by its hashed id. Expiry is the caller's check.
func (s *Store) GetSession(ctx context.Context, sessionID string) (storage.Session, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Session{}, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.Session{}, fmt.Errorf("session id is required")
	}

	var (
		session           storage.Session
		createdAt, expire dbTime
	)
	err := s.sqlDB.QueryRowContext(ctx, s.bind(`SELECT sid, user_id, created_at, expire FROM sessions WHERE sid = ?`), sessionID).
		Scan(&session.ID, &session.UserID, &createdAt, &expire)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Session{}, storage.ErrNotFound
		}
		return storage.Session{}, fmt.Errorf("get session: %w", err)
	}
	session.CreatedAt = createdAt.Time
	session.ExpiresAt = expire.Time
	return session, nil
}

// DeleteSession removes a session; a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, s.bind(`DELETE FROM sessions WHERE sid = ?`), strings.TrimSpace(sessionID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry is at or before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, s.bind(`DELETE FROM sessions WHERE expire <= ?`), s.encodeTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: rows affected: %w", err)
	}
	return removed, nil
}
