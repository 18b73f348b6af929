// Package arena plays local games between engines on the rules package, for
// regression runs and for generating classifier training data.
package arena

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/rules"
	"github.com/brensch/snekheat/session"
	"github.com/brensch/snekheat/store"
)

const archiveSource = "arena"

// Entrant is one seat at the table.
type Entrant struct {
	Name   string
	Engine *arbiter.Engine
}

type Config struct {
	Width       int
	Height      int
	MaxTurns    int
	MoveTimeout time.Duration
	Rules       rules.Settings
	// Seed zero seeds from the clock.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Width:       rules.DefaultBoardSize,
		Height:      rules.DefaultBoardSize,
		MaxTurns:    500,
		MoveTimeout: 300 * time.Millisecond,
		Rules:       rules.DefaultSettings,
	}
}

// Result summarises one finished game.
type Result struct {
	GameID       string
	Winner       string
	Turns        int
	Eliminations []rules.Elimination
	Summaries    map[string]session.Summary
	Elapsed      time.Duration
}

// Turn is passed to observers after every step.
type Turn struct {
	GameID    string
	State     *game.GameState
	Decisions map[string]arbiter.Decision
}

// Arena plays games. Archive and OnTurn are optional.
type Arena struct {
	Config    Config
	Entrants  []Entrant
	Archive   *store.Archive
	Extractor *features.Extractor
	OnTurn    func(Turn)
	Logger    *slog.Logger

	moves atomic.Int64
	games atomic.Int64
}

func (a *Arena) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// Moves is the number of decisions made so far across all games.
func (a *Arena) Moves() int64 { return a.moves.Load() }

// Games is the number of completed games.
func (a *Arena) Games() int64 { return a.games.Load() }

// Play runs one game to completion or until ctx is done.
func (a *Arena) Play(ctx context.Context, seed int64) (Result, error) {
	if len(a.Entrants) == 0 {
		return Result{}, fmt.Errorf("arena has no entrants")
	}
	start := time.Now()
	rng := rand.New(rand.NewSource(seed))

	ids := make([]string, len(a.Entrants))
	engines := make(map[string]*arbiter.Engine, len(a.Entrants))
	for i, e := range a.Entrants {
		if _, dup := engines[e.Name]; dup {
			return Result{}, fmt.Errorf("duplicate entrant %q", e.Name)
		}
		ids[i] = e.Name
		engines[e.Name] = e.Engine
	}

	gameID := uuid.NewString()
	state := rules.NewGame(rng, a.Config.Width, a.Config.Height, ids)
	started := len(state.Snakes)

	tracker := session.NewTracker(a.logger())
	for _, id := range ids {
		tracker.Start(trackKey(gameID, id), view(state, id))
	}

	res := Result{GameID: gameID, Summaries: make(map[string]session.Summary, len(ids))}
	for !rules.IsGameOver(state, started) && (a.Config.MaxTurns <= 0 || state.Turn < a.Config.MaxTurns) {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		moves := make(map[string]game.Direction, len(state.Snakes))
		decisions := make(map[string]arbiter.Decision, len(state.Snakes))
		for _, s := range state.Snakes {
			v := view(state, s.ID)
			d := a.decide(ctx, engines[s.ID], v)
			moves[s.ID] = d.Move
			decisions[s.ID] = d
			tracker.Observe(trackKey(gameID, s.ID), v, d)
			a.record(gameID, s.ID, v, d)
		}
		a.moves.Add(int64(len(moves)))

		next, elims := rules.Step(state, moves, rng, a.Config.Rules)
		res.Eliminations = append(res.Eliminations, elims...)
		state = next

		if a.OnTurn != nil {
			a.OnTurn(Turn{GameID: gameID, State: state.Clone(), Decisions: decisions})
		}
	}

	res.Winner = rules.Winner(state)
	res.Turns = state.Turn
	for _, id := range ids {
		if sum, ok := tracker.End(trackKey(gameID, id), view(state, id)); ok {
			res.Summaries[id] = sum
		}
		if a.Archive != nil {
			if err := a.Archive.EndGame(trackKey(gameID, id)); err != nil {
				return res, err
			}
		}
	}
	res.Elapsed = time.Since(start)
	a.games.Add(1)

	a.logger().Debug("game finished", "game", gameID, "winner", res.Winner, "turns", res.Turns)
	return res, nil
}

func (a *Arena) decide(ctx context.Context, e *arbiter.Engine, state *game.GameState) arbiter.Decision {
	timeout := a.Config.MoveTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().MoveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.Decide(ctx, state)
}

func (a *Arena) record(gameID, snakeID string, state *game.GameState, d arbiter.Decision) {
	if a.Archive == nil {
		return
	}
	row, err := store.NewDecisionRow(trackKey(gameID, snakeID), archiveSource, state, d, a.Extractor)
	if err != nil {
		a.logger().Warn("skipping archive row", "game", gameID, "snake", snakeID, "error", err)
		return
	}
	a.Archive.Record(row)
}

// Run plays games on workers goroutines until games results have been
// produced (games <= 0 means until ctx is done). onResult is called from the
// worker goroutines.
func (a *Arena) Run(ctx context.Context, workers int, games int64, onResult func(Result)) error {
	if workers <= 0 {
		workers = 1
	}
	seed := a.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var started atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				n := started.Add(1)
				if games > 0 && n > games {
					return nil
				}
				if ctx.Err() != nil {
					return nil
				}
				res, err := a.Play(ctx, seed+n*1000003)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				if onResult != nil {
					onResult(res)
				}
			}
		})
	}
	return g.Wait()
}

// view is state as seen by one snake.
func view(state *game.GameState, id string) *game.GameState {
	v := state.Clone()
	v.YouID = id
	return v
}

// trackKey scopes per-snake records inside one game.
func trackKey(gameID, snakeID string) string {
	return gameID + "/" + snakeID
}
