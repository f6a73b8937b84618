package training

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
)

func intPtr(v int) *int { return &v }

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestNewSession(t *testing.T) {
	got, err := New("user-1", CreateInput{
		Mode:           ModeGrid,
		Score:          intPtr(40),
		CorrectAnswers: intPtr(4),
		TotalQuestions: intPtr(5),
		TimeElapsed:    intPtr(63),
	}, fixedNow, func() (string, error) { return "session-1", nil })
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	want := Session{
		ID:             "session-1",
		UserID:         "user-1",
		Mode:           ModeGrid,
		Score:          40,
		CorrectAnswers: 4,
		TotalQuestions: 5,
		TimeElapsed:    intPtr(63),
		CreatedAt:      fixedNow(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSessionRequiresUser(t *testing.T) {
	_, err := New(" ", CreateInput{Mode: ModeGrid, Score: intPtr(0), CorrectAnswers: intPtr(0), TotalQuestions: intPtr(0)}, fixedNow, nil)
	if err == nil {
		t.Fatal("expected missing user error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input CreateInput
		paths []string
	}{
		{
			name:  "missing everything",
			input: CreateInput{},
			paths: []string{"mode", "score", "correctAnswers", "totalQuestions"},
		},
		{
			name:  "unknown mode and negatives",
			input: CreateInput{Mode: "arena", Score: intPtr(-1), CorrectAnswers: intPtr(0), TotalQuestions: intPtr(0), TimeElapsed: intPtr(-5)},
			paths: []string{"mode", "score", "timeElapsed"},
		},
		{
			name:  "more correct than total",
			input: CreateInput{Mode: ModeSimulation, Score: intPtr(30), CorrectAnswers: intPtr(3), TotalQuestions: intPtr(2)},
			paths: []string{"correctAnswers"},
		},
		{
			name:  "valid without time",
			input: CreateInput{Mode: ModeSimulation, Score: intPtr(0), CorrectAnswers: intPtr(0), TotalQuestions: intPtr(0)},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.Validate()
			var paths []string
			for _, field := range apperrors.FieldErrors(err) {
				paths = append(paths, field.Path)
			}
			if diff := cmp.Diff(tc.paths, paths); diff != "" {
				t.Fatalf("paths mismatch (-want +got):\n%s", diff)
			}
			if len(tc.paths) > 0 && apperrors.GetCode(err) != apperrors.CodeInvalidSessionData {
				t.Fatalf("code = %s", apperrors.GetCode(err))
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" Grid ")
	if err != nil || mode != ModeGrid {
		t.Fatalf("parse grid = %q, %v", mode, err)
	}
	_, err = ParseMode("arena")
	if apperrors.GetCode(err) != apperrors.CodeInvalidMode {
		t.Fatalf("code = %s", apperrors.GetCode(err))
	}
}

func TestParseLimit(t *testing.T) {
	tests := map[string]int{
		"":     DefaultLeaderboardLimit,
		"abc":  DefaultLeaderboardLimit,
		"5":    5,
		"0":    1,
		"-3":   1,
		"1000": MaxLeaderboardLimit,
	}
	for raw, want := range tests {
		if got := ParseLimit(raw); got != want {
			t.Fatalf("ParseLimit(%q) = %d, want %d", raw, got, want)
		}
	}
}
