package simulator

import (
	"time"

	platformi18n "github.com/louisbranch/cardtrainer/internal/platform/i18n"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/card"
)

// SettingsView is the JSON form of Settings, in whole seconds.
type SettingsView struct {
	TimeLimit      int `json:"timeLimit"`
	ElixirStart    int `json:"elixirStart"`
	CardCount      int `json:"cardCount"`
	NextRoundDelay int `json:"nextRoundDelay"`
}

// HandCard is a dealt card. ElixirCost stays hidden while the round is open.
type HandCard struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	ImageURL   *string     `json:"imageUrl"`
	Type       card.Type   `json:"type"`
	Rarity     card.Rarity `json:"rarity"`
	ElixirCost *int        `json:"elixirCost,omitempty"`
}

// Feedback describes an answered round.
type Feedback struct {
	Correct   bool   `json:"correct"`
	TimedOut  bool   `json:"timedOut"`
	Guess     *int   `json:"guess"`
	Answer    int    `json:"answer"`
	TotalCost int    `json:"totalCost"`
	Message   string `json:"message"`
}

// View is the client-facing snapshot of a game.
type View struct {
	ID               string       `json:"id"`
	Phase            Phase        `json:"phase"`
	Round            int          `json:"round"`
	Score            int          `json:"score"`
	CorrectAnswers   int          `json:"correctAnswers"`
	TotalQuestions   int          `json:"totalQuestions"`
	Settings         SettingsView `json:"settings"`
	OpponentElixir   int          `json:"opponentElixir"`
	Hand             []HandCard   `json:"hand"`
	Deadline         *time.Time   `json:"deadline,omitempty"`
	RemainingSeconds *int         `json:"remainingSeconds,omitempty"`
	Feedback         *Feedback    `json:"feedback,omitempty"`
	NextRoundAt      *time.Time   `json:"nextRoundAt,omitempty"`
}

// View renders the game for locale at now.
func (g *Game) View(now time.Time, locale string) View {
	v := View{
		ID:             g.ID,
		Phase:          g.Phase,
		Score:          g.Score,
		CorrectAnswers: g.CorrectAnswers,
		TotalQuestions: g.TotalQuestions,
		Settings: SettingsView{
			TimeLimit:      int(g.Settings.TimeLimit / time.Second),
			ElixirStart:    g.Settings.ElixirStart,
			CardCount:      g.Settings.CardCount,
			NextRoundDelay: int(g.Settings.NextRoundDelay / time.Second),
		},
		OpponentElixir: g.Settings.ElixirStart,
		Hand:           []HandCard{},
	}
	r := g.round
	if r == nil {
		return v
	}
	v.Round = r.Number
	v.OpponentElixir = r.Elixir

	reveal := g.Phase != PhaseInRound
	for _, c := range r.Hand {
		hc := HandCard{
			ID:       c.ID,
			Name:     c.LocalizedName(locale),
			ImageURL: c.ImageURL,
			Type:     c.Type,
			Rarity:   c.Rarity,
		}
		if reveal {
			cost := c.ElixirCost
			hc.ElixirCost = &cost
		}
		v.Hand = append(v.Hand, hc)
	}

	switch g.Phase {
	case PhaseInRound:
		deadline := r.Deadline
		remaining := int((r.Deadline.Sub(now) + time.Second - 1) / time.Second)
		if remaining < 0 {
			remaining = 0
		}
		v.Deadline = &deadline
		v.RemainingSeconds = &remaining
	case PhaseFeedback, PhaseEnded:
		if r.AnsweredAt.IsZero() {
			break
		}
		v.Feedback = &Feedback{
			Correct:   r.Correct,
			TimedOut:  r.TimedOut,
			Guess:     r.Guess,
			Answer:    r.Answer(),
			TotalCost: HandCost(r.Hand),
			Message:   feedbackMessage(locale, *r),
		}
		if g.Phase == PhaseFeedback {
			next := g.NextRoundAt
			v.NextRoundAt = &next
		}
	}
	return v
}

func feedbackMessage(locale string, r Round) string {
	switch {
	case r.Correct:
		return platformi18n.Sprintf(locale, "simulator.correct", PointsPerCorrect)
	case r.TimedOut:
		return platformi18n.Sprintf(locale, "simulator.timeout", r.Answer())
	default:
		return platformi18n.Sprintf(locale, "simulator.incorrect", r.Answer())
	}
}
