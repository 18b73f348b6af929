// Package session follows each live game across turns for reporting. It is
// never consulted when choosing a move.
package session

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/game"
)

// Summary describes one finished (or still running) game from our side.
type Summary struct {
	GameID     string
	YouID      string
	StartedAt  time.Time
	Turns      int
	LastTurn   int
	Growth     int
	OurGrowth  int
	Eliminated []string
	Tiers      map[string]int
	Overrides  int
	Malformed  int
	MaxLatency time.Duration
	Alive      bool
}

type gameSession struct {
	state   *game.GameState
	summary Summary
}

// Tracker holds per-game sessions keyed by game id.
type Tracker struct {
	mu     sync.Mutex
	games  map[string]*gameSession
	logger *slog.Logger
	now    func() time.Time
}

func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		games:  make(map[string]*gameSession),
		logger: logger,
		now:    time.Now,
	}
}

// Start registers a game. Starting a game that is already tracked resets it.
func (t *Tracker) Start(gameID string, state *game.GameState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.games[gameID] = t.newSession(gameID, state)
}

func (t *Tracker) newSession(gameID string, state *game.GameState) *gameSession {
	s := &gameSession{
		state: state.Clone(),
		summary: Summary{
			GameID:    gameID,
			StartedAt: t.now(),
			Tiers:     make(map[string]int),
			Alive:     true,
		},
	}
	if state != nil {
		s.summary.YouID = state.YouID
		s.summary.LastTurn = state.Turn
	}
	return s
}

// Observe folds one turn and the decision made on it into the session. An
// unknown game is started implicitly, as /start can be missed on restarts.
func (t *Tracker) Observe(gameID string, state *game.GameState, d arbiter.Decision) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.games[gameID]
	if !ok || s.state == nil {
		s = t.newSession(gameID, state)
		t.games[gameID] = s
	} else if state != nil && state.Turn > s.state.Turn {
		grew, removed := s.state.Advance(state)
		s.summary.Growth += len(grew)
		for _, id := range grew {
			if id == s.summary.YouID {
				s.summary.OurGrowth++
			}
		}
		for _, id := range removed {
			s.summary.Eliminated = append(s.summary.Eliminated, id)
			if id == s.summary.YouID {
				s.summary.Alive = false
			}
		}
		if len(removed) > 0 {
			t.logger.Debug("snakes eliminated", "game", gameID, "turn", state.Turn, "ids", removed)
		}
	}

	if state != nil {
		s.summary.LastTurn = state.Turn
	}
	s.summary.Turns++
	s.summary.Tiers[d.Tier]++
	if d.Overridden {
		s.summary.Overrides++
	}
	if d.Tier == arbiter.TierMalformed {
		s.summary.Malformed++
	}
	if d.Elapsed > s.summary.MaxLatency {
		s.summary.MaxLatency = d.Elapsed
	}
}

// Get returns a copy of the running summary for gameID.
func (t *Tracker) Get(gameID string) (Summary, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.games[gameID]
	if !ok {
		return Summary{}, false
	}
	return s.summary.copy(), true
}

// End removes the game and returns its final summary.
func (t *Tracker) End(gameID string, final *game.GameState) (Summary, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.games[gameID]
	if !ok {
		return Summary{}, false
	}
	delete(t.games, gameID)

	if final != nil {
		s.summary.LastTurn = final.Turn
		s.summary.Alive = final.You() != nil
	}

	sum := s.summary.copy()
	t.logger.Info("game ended",
		"game", gameID,
		"turns", sum.Turns,
		"alive", sum.Alive,
		"growth", sum.OurGrowth,
		"overrides", sum.Overrides,
		"tiers", sum.TierOrder(),
	)
	return sum, true
}

// Active returns the ids of tracked games, sorted.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.games))
	for id := range t.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s Summary) copy() Summary {
	out := s
	out.Eliminated = append([]string(nil), s.Eliminated...)
	out.Tiers = make(map[string]int, len(s.Tiers))
	for k, v := range s.Tiers {
		out.Tiers[k] = v
	}
	return out
}

// TierOrder lists tiers by how often they decided, most used first.
func (s Summary) TierOrder() []string {
	names := make([]string, 0, len(s.Tiers))
	for k := range s.Tiers {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.Tiers[names[i]] != s.Tiers[names[j]] {
			return s.Tiers[names[i]] > s.Tiers[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
