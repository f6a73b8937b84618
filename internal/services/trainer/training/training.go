// Package training models finished practice sessions and the leaderboard
// derived from them.
package training

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/platform/id"
)

// Mode names the practice format a session was played in.
type Mode string

const (
	ModeGrid       Mode = "grid"
	ModeSimulation Mode = "simulation"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeGrid || m == ModeSimulation
}

// ParseMode validates a mode taken from a path or body.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if !mode.Valid() {
		return "", apperrors.WithMetadata(apperrors.CodeInvalidMode, fmt.Sprintf("unknown mode %q", raw), map[string]string{"Mode": raw})
	}
	return mode, nil
}

// Session is one finished practice run.
type Session struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Mode           Mode      `json:"mode"`
	Score          int       `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	TimeElapsed    *int      `json:"timeElapsed"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CreateInput is the client payload for recording a session. The owner is
// always the authenticated user, so there is no user id here.
type CreateInput struct {
	Mode           Mode `json:"mode"`
	Score          *int `json:"score"`
	CorrectAnswers *int `json:"correctAnswers"`
	TotalQuestions *int `json:"totalQuestions"`
	TimeElapsed    *int `json:"timeElapsed"`
}

// Validate reports every invalid field of the input.
func (in CreateInput) Validate() error {
	var merr *multierror.Error
	if in.Mode == "" {
		merr = multierror.Append(merr, apperrors.Field("mode", "mode is required"))
	} else if !in.Mode.Valid() {
		merr = multierror.Append(merr, apperrors.Field("mode", fmt.Sprintf("unknown mode %q", in.Mode)))
	}
	merr = requireCounter(merr, "score", in.Score)
	merr = requireCounter(merr, "correctAnswers", in.CorrectAnswers)
	merr = requireCounter(merr, "totalQuestions", in.TotalQuestions)
	if in.CorrectAnswers != nil && in.TotalQuestions != nil && *in.CorrectAnswers > *in.TotalQuestions {
		merr = multierror.Append(merr, apperrors.Field("correctAnswers", "correctAnswers must not exceed totalQuestions"))
	}
	if in.TimeElapsed != nil && *in.TimeElapsed < 0 {
		merr = multierror.Append(merr, apperrors.Field("timeElapsed", "timeElapsed must not be negative"))
	}
	return apperrors.Invalid(apperrors.CodeInvalidSessionData, "invalid session data", merr)
}

// New validates input and builds a session owned by userID.
func New(userID string, input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Session{}, fmt.Errorf("user id is required")
	}
	if err := input.Validate(); err != nil {
		return Session{}, err
	}
	sessionID, err := idGenerator()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}
	return Session{
		ID:             sessionID,
		UserID:         userID,
		Mode:           input.Mode,
		Score:          *input.Score,
		CorrectAnswers: *input.CorrectAnswers,
		TotalQuestions: *input.TotalQuestions,
		TimeElapsed:    input.TimeElapsed,
		CreatedAt:      now().UTC(),
	}, nil
}

func requireCounter(merr *multierror.Error, path string, value *int) *multierror.Error {
	if value == nil {
		return multierror.Append(merr, apperrors.Field(path, path+" is required"))
	}
	if *value < 0 {
		return multierror.Append(merr, apperrors.Field(path, path+" must not be negative"))
	}
	return merr
}

// LeaderboardEntry is a user's best score in one mode.
type LeaderboardEntry struct {
	UserID    string  `json:"userId"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Score     int     `json:"score"`
}

const (
	// DefaultLeaderboardLimit applies when the client sends no usable limit.
	DefaultLeaderboardLimit = 10
	// MaxLeaderboardLimit caps a single leaderboard page.
	MaxLeaderboardLimit = 100
)

// ParseLimit reads a ?limit value, defaulting when absent or unparsable and
// clamping to [1, MaxLeaderboardLimit].
func ParseLimit(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return DefaultLeaderboardLimit
	}
	if value < 1 {
		return 1
	}
	if value > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return value
}
