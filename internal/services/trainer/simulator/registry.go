package simulator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/platform/id"
	"github.com/louisbranch/cardtrainer/internal/platform/logging"
	"github.com/louisbranch/cardtrainer/internal/platform/random"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/card"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/training"
	"go.uber.org/zap"
)

const (
	// DefaultIdleTTL is how long an untouched game survives.
	DefaultIdleTTL = 30 * time.Minute
	// DefaultSweepInterval is how often Run looks for idle games.
	DefaultSweepInterval = time.Minute
	// MaxGamesPerUser caps live games per user; the least recently used
	// game is dropped to make room.
	MaxGamesPerUser = 5
)

// ErrGameNotFound is returned for unknown games and games owned by someone else.
var ErrGameNotFound = apperrors.New(apperrors.CodeGameNotFound, "game not found")

// RegistryConfig configures a Registry. Zero values select defaults.
type RegistryConfig struct {
	IdleTTL     time.Duration
	Now         func() time.Time
	IDGenerator func() (string, error)
	NewRand     func() (Rand, error)
	Logger      *zap.Logger
}

// Registry holds live games in memory.
type Registry struct {
	mu     sync.Mutex
	games  map[string]*Game
	ttl    time.Duration
	now    func() time.Time
	newID  func() (string, error)
	rand   func() (Rand, error)
	logger *zap.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	r := &Registry{
		games:  make(map[string]*Game),
		ttl:    cfg.IdleTTL,
		now:    cfg.Now,
		newID:  cfg.IDGenerator,
		rand:   cfg.NewRand,
		logger: logging.OrNop(cfg.Logger),
	}
	if r.ttl <= 0 {
		r.ttl = DefaultIdleTTL
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newID == nil {
		r.newID = id.NewID
	}
	if r.rand == nil {
		r.rand = func() (Rand, error) { return random.NewRand() }
	}
	return r
}

// Create starts a game for userID and deals its first hand.
func (r *Registry) Create(userID string, settings Settings, catalog []card.Card, locale string) (View, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return View{}, fmt.Errorf("user id is required")
	}
	gameID, err := r.newID()
	if err != nil {
		return View{}, fmt.Errorf("generate game id: %w", err)
	}
	rng, err := r.rand()
	if err != nil {
		return View{}, fmt.Errorf("seed game: %w", err)
	}
	now := r.now()
	g, err := NewGame(gameID, userID, settings, catalog, rng, now)
	if err != nil {
		return View{}, err
	}
	if err := g.Start(now); err != nil {
		return View{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictForUserLocked(userID)
	r.games[gameID] = g
	return g.View(now, locale), nil
}

// Get returns the game view, expiring an overdue round first.
func (r *Registry) Get(userID, gameID, locale string) (View, error) {
	return r.with(userID, gameID, locale, true, func(*Game, time.Time) error { return nil })
}

// NextRound deals the next hand.
func (r *Registry) NextRound(userID, gameID, locale string) (View, error) {
	return r.with(userID, gameID, locale, true, func(g *Game, now time.Time) error {
		return g.NextRound(now)
	})
}

// Guess answers the open round. A guess past the deadline is scored as a
// timeout.
func (r *Registry) Guess(userID, gameID string, value int, locale string) (View, error) {
	return r.with(userID, gameID, locale, false, func(g *Game, now time.Time) error {
		return g.Guess(now, value)
	})
}

// Finish ends the game and passes the resulting session to record. The game
// is removed only when record succeeds, so a failed save can be retried.
func (r *Registry) Finish(userID, gameID string, record func(training.CreateInput) error) error {
	r.mu.Lock()
	g, err := r.lookupLocked(userID, gameID)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if g.pending == nil {
		input, err := g.End(r.now())
		if err != nil {
			r.mu.Unlock()
			return err
		}
		g.pending = &input
	}
	input := *g.pending
	delete(r.games, g.ID)
	r.mu.Unlock()

	if err := record(input); err != nil {
		r.mu.Lock()
		if _, taken := r.games[g.ID]; !taken {
			r.games[g.ID] = g
		}
		r.mu.Unlock()
		return err
	}
	return nil
}

// Len reports the number of live games.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}

// Sweep removes games idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for gameID, g := range r.games {
		if now.Sub(g.LastActivity) > r.ttl {
			delete(r.games, gameID)
			removed++
		}
	}
	return removed
}

// Run sweeps idle games every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := r.Sweep(r.now()); removed > 0 {
				r.logger.Debug("swept idle simulator games", zap.Int("removed", removed))
			}
		}
	}
}

// with runs fn on the caller's game under the lock. When expire is set an
// overdue round is closed before fn runs.
func (r *Registry) with(userID, gameID, locale string, expire bool, fn func(*Game, time.Time) error) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, err := r.lookupLocked(userID, gameID)
	if err != nil {
		return View{}, err
	}
	now := r.now()
	if expire {
		g.Expire(now)
	}
	if err := fn(g, now); err != nil {
		return View{}, err
	}
	g.LastActivity = now
	return g.View(now, locale), nil
}

func (r *Registry) lookupLocked(userID, gameID string) (*Game, error) {
	g, ok := r.games[strings.TrimSpace(gameID)]
	if !ok || g.UserID != strings.TrimSpace(userID) {
		return nil, ErrGameNotFound
	}
	return g, nil
}

func (r *Registry) evictForUserLocked(userID string) {
	var owned []*Game
	for _, g := range r.games {
		if g.UserID == userID {
			owned = append(owned, g)
		}
	}
	if len(owned) < MaxGamesPerUser {
		return
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].LastActivity.Before(owned[j].LastActivity)
	})
	for _, g := range owned[:len(owned)-MaxGamesPerUser+1] {
		delete(r.games, g.ID)
	}
}
