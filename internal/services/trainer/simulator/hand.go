package simulator

import (
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/card"
)

const (
	// HandBudget is the most elixir a dealt hand should cost.
	HandBudget = 10
	// MaxDrawAttempts bounds the resampling loop in DrawHand.
	MaxDrawAttempts = 100
)

// ErrEmptyCatalog is returned when there are no cards to deal from.
var ErrEmptyCatalog = apperrors.New(apperrors.CodeEmptyCatalog, "card catalog is empty")

// Rand is the subset of *rand.Rand used for dealing.
type Rand interface {
	IntN(n int) int
}

// DrawHand picks count cards uniformly with replacement, resampling while the
// hand costs more than HandBudget. After MaxDrawAttempts the last sample is
// returned even when it is over budget.
func DrawHand(rng Rand, cards []card.Card, count int) ([]card.Card, error) {
	if len(cards) == 0 {
		return nil, ErrEmptyCatalog
	}
	if count <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidSettings, "card count must be positive")
	}

	var hand []card.Card
	for attempt := 0; attempt < MaxDrawAttempts; attempt++ {
		hand = make([]card.Card, count)
		for i := range hand {
			hand[i] = cards[rng.IntN(len(cards))]
		}
		if HandCost(hand) <= HandBudget {
			return hand, nil
		}
	}
	return hand, nil
}

// HandCost sums the elixir cost of hand.
func HandCost(hand []card.Card) int {
	total := 0
	for _, c := range hand {
		total += c.ElixirCost
	}
	return total
}
