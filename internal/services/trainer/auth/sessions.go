package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/platform/id"
	"github.com/louisbranch/cardtrainer/internal/platform/logging"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"go.uber.org/zap"
)

const (
	// DefaultSessionTTL is how long a login stays valid.
	DefaultSessionTTL = 7 * 24 * time.Hour
	// DefaultCleanupInterval is how often expired sessions are purged.
	DefaultCleanupInterval = 15 * time.Minute

	tokenBytes = 32
)

// ErrUnauthenticated is returned when a request carries no valid credentials.
var ErrUnauthenticated = apperrors.New(apperrors.CodeUnauthorized, "not authenticated")

// HashToken returns the hex SHA-256 digest stored for a session token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionsConfig configures Sessions. Zero values select defaults.
type SessionsConfig struct {
	TTL    time.Duration
	Now    func() time.Time
	Logger *zap.Logger
}

// Sessions issues and resolves server-side login sessions.
type Sessions struct {
	store  storage.SessionStore
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewSessions builds a session manager over store.
func NewSessions(store storage.SessionStore, cfg SessionsConfig) *Sessions {
	s := &Sessions{store: store, ttl: cfg.TTL, now: cfg.Now, logger: logging.OrNop(cfg.Logger)}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create starts a session for userID and returns the cookie token.
func (s *Sessions) Create(ctx context.Context, userID string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}
	token, err := id.NewToken(tokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	if err := s.store.PutSession(ctx, storage.Session{
		ID:        HashToken(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Lookup returns the user id bound to token. Unknown and expired tokens
// yield ErrUnauthenticated.
func (s *Sessions) Lookup(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthenticated
	}
	sid := HashToken(token)
	session, err := s.store.GetSession(ctx, sid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrUnauthenticated
		}
		return "", err
	}
	if !s.now().Before(session.ExpiresAt) {
		if err := s.store.DeleteSession(ctx, sid); err != nil {
			s.logger.Warn("delete expired session", zap.Error(err))
		}
		return "", ErrUnauthenticated
	}
	return session.UserID, nil
}

// Destroy deletes the session behind token.
func (s *Sessions) Destroy(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, HashToken(token))
}

// Cleanup purges expired sessions.
func (s *Sessions) Cleanup(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, s.now().UTC())
}

// Run purges expired sessions every interval until ctx is cancelled.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := s.Cleanup(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Warn("clean up expired sessions", zap.Error(err))
				continue
			}
			if removed > 0 {
				s.logger.Info("cleaned up expired sessions", zap.Int64("removed", removed))
			}
		}
	}
}
