package simulator

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/card"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/training"
)

// PointsPerCorrect is awarded for each correct guess.
const PointsPerCorrect = 10

// Phase is the game's position in its round cycle.
type Phase string

const (
	PhaseReady    Phase = "ready"
	PhaseInRound  Phase = "in_round"
	PhaseFeedback Phase = "feedback"
	PhaseEnded    Phase = "ended"
)

// Round is one dealt hand and, once answered, its outcome.
type Round struct {
	Number     int
	Hand       []card.Card
	Elixir     int
	StartedAt  time.Time
	Deadline   time.Time
	Guess      *int
	Correct    bool
	TimedOut   bool
	AnsweredAt time.Time
}

// Answer is the opponent's remaining elixir after playing the hand.
func (r Round) Answer() int {
	return r.Elixir - HandCost(r.Hand)
}

// Game holds one player's drill. Callers serialize access; the Registry does
// so with its mutex.
type Game struct {
	ID       string
	UserID   string
	Settings Settings

	Phase          Phase
	Score          int
	CorrectAnswers int
	TotalQuestions int
	StartedAt      time.Time
	EndedAt        time.Time
	LastActivity   time.Time
	NextRoundAt    time.Time

	round   *Round
	catalog []card.Card
	rng     Rand
	pending *training.CreateInput
}

func errInvalidState(action string, phase Phase) error {
	return apperrors.WithMetadata(apperrors.CodeGameInvalidState,
		"cannot "+action+" while game is "+string(phase),
		map[string]string{"Phase": string(phase)})
}

// NewGame validates settings and returns a game in the ready phase.
func NewGame(gameID, userID string, settings Settings, catalog []card.Card, rng Rand, now time.Time) (*Game, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	if rng == nil {
		return nil, apperrors.New(apperrors.CodeUnknown, "random source is required")
	}
	cards := make([]card.Card, len(catalog))
	copy(cards, catalog)
	return &Game{
		ID:           strings.TrimSpace(gameID),
		UserID:       strings.TrimSpace(userID),
		Settings:     settings,
		Phase:        PhaseReady,
		StartedAt:    now,
		LastActivity: now,
		catalog:      cards,
		rng:          rng,
	}, nil
}

// CurrentRound returns the latest round, if any.
func (g *Game) CurrentRound() (Round, bool) {
	if g.round == nil {
		return Round{}, false
	}
	return *g.round, true
}

// Start deals the first hand.
func (g *Game) Start(now time.Time) error {
	if g.Phase != PhaseReady {
		return errInvalidState("start", g.Phase)
	}
	return g.deal(now)
}

// NextRound deals a new hand from the ready or feedback phase. The client may
// call it before NextRoundAt.
func (g *Game) NextRound(now time.Time) error {
	if g.Phase != PhaseReady && g.Phase != PhaseFeedback {
		return errInvalidState("deal", g.Phase)
	}
	return g.deal(now)
}

func (g *Game) deal(now time.Time) error {
	hand, err := DrawHand(g.rng, g.catalog, g.Settings.CardCount)
	if err != nil {
		return err
	}
	number := 1
	if g.round != nil {
		number = g.round.Number + 1
	}
	g.round = &Round{
		Number:    number,
		Hand:      hand,
		Elixir:    g.Settings.ElixirStart,
		StartedAt: now,
		Deadline:  now.Add(g.Settings.TimeLimit),
	}
	g.Phase = PhaseInRound
	g.NextRoundAt = time.Time{}
	g.LastActivity = now
	return nil
}

// Guess scores value against the open round. A guess at or after the
// deadline counts as a timeout.
func (g *Game) Guess(now time.Time, value int) error {
	if g.Phase != PhaseInRound {
		return errInvalidState("guess", g.Phase)
	}
	if !now.Before(g.round.Deadline) {
		g.resolve(now, nil)
		return nil
	}
	g.resolve(now, &value)
	return nil
}

// Expire scores an unanswered round whose deadline has passed. It reports
// whether a round was expired.
func (g *Game) Expire(now time.Time) bool {
	if g.Phase != PhaseInRound || now.Before(g.round.Deadline) {
		return false
	}
	g.resolve(g.round.Deadline, nil)
	return true
}

func (g *Game) resolve(now time.Time, guess *int) {
	r := g.round
	r.AnsweredAt = now
	r.Guess = guess
	r.TimedOut = guess == nil
	r.Correct = guess != nil && *guess == r.Answer()
	g.TotalQuestions++
	if r.Correct {
		g.CorrectAnswers++
		g.Score += PointsPerCorrect
	}
	g.Phase = PhaseFeedback
	g.NextRoundAt = now.Add(g.Settings.NextRoundDelay)
	g.LastActivity = now
}

// End finishes the game and returns the session to record. An open round
// that has not expired is discarded.
func (g *Game) End(now time.Time) (training.CreateInput, error) {
	if g.Phase == PhaseEnded {
		return training.CreateInput{}, errInvalidState("finish", g.Phase)
	}
	g.Expire(now)
	g.Phase = PhaseEnded
	g.EndedAt = now
	g.LastActivity = now

	score := g.Score
	correct := g.CorrectAnswers
	total := g.TotalQuestions
	elapsed := int(now.Sub(g.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return training.CreateInput{
		Mode:           training.ModeSimulation,
		Score:          &score,
		CorrectAnswers: &correct,
		TotalQuestions: &total,
		TimeElapsed:    &elapsed,
	}, nil
}
