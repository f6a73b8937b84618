// Package simulator runs the elixir-guessing drill: it deals random hands
// under an elixir budget, times each round, and scores the player's guess of
// the opponent's remaining elixir.
package simulator

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
)

const (
	DefaultTimeLimit      = 5 * time.Second
	DefaultElixirStart    = 10
	DefaultCardCount      = 2
	DefaultNextRoundDelay = 15 * time.Second

	MinTimeLimit = time.Second
	MaxTimeLimit = 120 * time.Second
	MaxCardCount = 8
	MaxElixir    = 10
)

// Settings configures one game.
type Settings struct {
	TimeLimit      time.Duration
	ElixirStart    int
	CardCount      int
	NextRoundDelay time.Duration
}

// DefaultSettings returns the standard drill configuration.
func DefaultSettings() Settings {
	return Settings{
		TimeLimit:      DefaultTimeLimit,
		ElixirStart:    DefaultElixirStart,
		CardCount:      DefaultCardCount,
		NextRoundDelay: DefaultNextRoundDelay,
	}
}

// Validate reports every out-of-range setting.
func (s Settings) Validate() error {
	var merr *multierror.Error
	if s.TimeLimit < MinTimeLimit || s.TimeLimit > MaxTimeLimit {
		merr = multierror.Append(merr, apperrors.Field("timeLimit", fmt.Sprintf("timeLimit must be between %d and %d seconds", int(MinTimeLimit.Seconds()), int(MaxTimeLimit.Seconds()))))
	}
	if s.ElixirStart < 0 || s.ElixirStart > MaxElixir {
		merr = multierror.Append(merr, apperrors.Field("elixirStart", fmt.Sprintf("elixirStart must be between 0 and %d", MaxElixir)))
	}
	if s.CardCount < 1 || s.CardCount > MaxCardCount {
		merr = multierror.Append(merr, apperrors.Field("cardCount", fmt.Sprintf("cardCount must be between 1 and %d", MaxCardCount)))
	}
	if s.NextRoundDelay < 0 {
		merr = multierror.Append(merr, apperrors.Field("nextRoundDelay", "nextRoundDelay must not be negative"))
	}
	return apperrors.Invalid(apperrors.CodeInvalidSettings, "invalid simulator settings", merr)
}

// SettingsInput is the optional JSON body for starting a game. Durations are
// in whole seconds; absent fields keep their defaults.
type SettingsInput struct {
	TimeLimit   *int `json:"timeLimit"`
	ElixirStart *int `json:"elixirStart"`
	CardCount   *int `json:"cardCount"`
}

// Resolve merges the input over the defaults and validates the result.
func (in SettingsInput) Resolve() (Settings, error) {
	settings := DefaultSettings()
	if in.TimeLimit != nil {
		settings.TimeLimit = time.Duration(*in.TimeLimit) * time.Second
	}
	if in.ElixirStart != nil {
		settings.ElixirStart = *in.ElixirStart
	}
	if in.CardCount != nil {
		settings.CardCount = *in.CardCount
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
