// Package storage defines the persistence contracts of the trainer service.
//
// Both the SQLite and Postgres backends implement Store; callers depend on
// the narrow per-concern interfaces.
package storage

import (
	"context"
	"time"

	"github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/card"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/training"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/user"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New(errors.CodeNotFound, "record not found")
	// ErrEmailTaken indicates another account already uses the email.
	ErrEmailTaken = errors.New(errors.CodeEmailTaken, "email already in use")
)

// UserStore persists accounts.
type UserStore interface {
	PutUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, userID string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) error
	ListUsers(ctx context.Context, pageSize int, pageToken string) (UserPage, error)
	SetUserPermission(ctx context.Context, userID string, permission user.Permission, updatedAt time.Time) (user.User, error)
}

// UserPage describes a page of user records.
type UserPage struct {
	Users         []user.User
	NextPageToken string
}

// CardStore persists the card catalog.
type CardStore interface {
	// ListCards returns cards ordered by name, narrowed by an optional
	// AIP-160 filter.
	ListCards(ctx context.Context, filter string) ([]card.Card, error)
	GetCard(ctx context.Context, cardID string) (card.Card, error)
	PutCard(ctx context.Context, c card.Card) error
	UpdateCard(ctx context.Context, c card.Card) error
	// DeleteCard succeeds when the card does not exist.
	DeleteCard(ctx context.Context, cardID string) error
	// UpsertCardByNameEn inserts c or updates the card sharing its English
	// name, keeping that card's id and creation time. It reports whether a
	// new row was created.
	UpsertCardByNameEn(ctx context.Context, c card.Card) (card.Card, bool, error)
}

// TrainingStore persists finished practice sessions.
type TrainingStore interface {
	PutTrainingSession(ctx context.Context, s training.Session) error
	// ListTrainingSessions returns userID's sessions, newest first.
	ListTrainingSessions(ctx context.Context, userID string) ([]training.Session, error)
	// TopScores returns each user's best score in mode, highest first.
	TopScores(ctx context.Context, mode training.Mode, limit int) ([]training.LeaderboardEntry, error)
}

// Session is a server-side login. ID is the SHA-256 hex digest of the
// cookie token.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore persists login sessions.
type SessionStore interface {
	PutSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, sessionID string) (Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	// DeleteExpiredSessions removes sessions expired at now and returns the
	// number removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is the full persistence surface implemented by each backend.
type Store interface {
	UserStore
	CardStore
	TrainingStore
	SessionStore
	Ping(ctx context.Context) error
	Close() error
}
