package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/louisbranch/cardtrainer/internal/services/trainer/training"
)

// PutTrainingSession records a finished session.
func (s *Store) PutTrainingSession(ctx context.Context, ts training.Session) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(ts.ID) == "" {
		return fmt.Errorf("training session id is required")
	}
	if strings.TrimSpace(ts.UserID) == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, s.bind(`
INSERT INTO training_sessions (id, user_id, mode, score, correct_answers, total_questions, time_elapsed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		ts.ID, ts.UserID, string(ts.Mode), int64(ts.Score), int64(ts.CorrectAnswers), int64(ts.TotalQuestions),
		nullInt(ts.TimeElapsed), s.encodeTime(ts.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put training session: %w", err)
	}
	return nil
}

// ListTrainingSessions returns a user's sessions, newest first.
func (s *Store) ListTrainingSessions(ctx context.Context, userID string) ([]training.Session, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, s.bind(`
SELECT id, user_id, mode, score, correct_answers, total_questions, time_elapsed, created_at
FROM training_sessions
WHERE user_id = ?
ORDER BY created_at DESC, id DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list training sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]training.Session, 0)
	for rows.Next() {
		var (
			ts                    training.Session
			mode                  string
			score, correct, total int64
			elapsed               sql.NullInt64
			createdAt             dbTime
		)
		if err := rows.Scan(&ts.ID, &ts.UserID, &mode, &score, &correct, &total, &elapsed, &createdAt); err != nil {
			return nil, fmt.Errorf("scan training session: %w", err)
		}
		ts.Mode = training.Mode(mode)
		ts.Score = int(score)
		ts.CorrectAnswers = int(correct)
		ts.TotalQuestions = int(total)
		ts.TimeElapsed = intPtr(elapsed)
		ts.CreatedAt = createdAt.Time
		sessions = append(sessions, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list training sessions: %w", err)
	}
	return sessions, nil
}

// TopScores returns each user's best score in mode, highest first.
func (s *Store) TopScores(ctx context.Context, mode training.Mode, limit int) ([]training.LeaderboardEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, s.bind(`
SELECT ts.user_id, u.first_name, u.last_name, MAX(ts.score) AS best
FROM training_sessions ts
JOIN users u ON u.id = ts.user_id
WHERE ts.mode = ?
GROUP BY ts.user_id, u.first_name, u.last_name
ORDER BY best DESC, ts.user_id
LIMIT ?`), string(mode), limit)
	if err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	defer rows.Close()

	entries := make([]training.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var (
			entry       training.LeaderboardEntry
			first, last sql.NullString
			best        int64
		)
		if err := rows.Scan(&entry.UserID, &first, &last, &best); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entry.FirstName = stringPtr(first)
		entry.LastName = stringPtr(last)
		entry.Score = int(best)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top scores: %w", err)
	}
	return entries, nil
}
