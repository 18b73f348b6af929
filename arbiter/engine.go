// Package arbiter turns a turn's game state into exactly one move by trying
// an ordered list of strategies and passing the winner through a final
// safety check.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/heatmap"
	"github.com/brensch/snekheat/pathing"
	"github.com/brensch/snekheat/space"
)

var errPanic = errors.New("tier panicked")

// Options configures the default tier chain.
type Options struct {
	Weights        heatmap.Weights
	MinSpace       int
	LookaheadDepth int
	MinConfidence  float32
	Classifier     Classifier
	DefaultMove    game.Direction
	Logger         *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Weights:        heatmap.DefaultWeights(),
		MinSpace:       pathing.DefaultMinSpace,
		LookaheadDepth: space.DefaultDepth,
		MinConfidence:  DefaultMinConfidence,
		DefaultMove:    game.Up,
	}
}

// Attempt records how one tier fared during a decision.
type Attempt struct {
	Tier    string
	Move    game.Direction
	Err     error
	Elapsed time.Duration
}

// Decision is the outcome of one turn.
type Decision struct {
	Move       game.Direction
	Proposed   game.Direction
	Tier       string
	Overridden bool
	Elapsed    time.Duration
	Trace      []Attempt
	// Board is the snapshot the decision was made on; nil when the state was
	// rejected as malformed.
	Board *game.Board
	Err   error
}

type Engine struct {
	tiers    []Strategy
	fallback game.Direction
	logger   *slog.Logger
}

// New builds the standard chain: heatmap, path, classifier, default.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	solver := pathing.NewSolver(opts.MinSpace, logger.With("component", "pathing"))

	tiers := []Strategy{
		&HeatmapStrategy{Builder: heatmap.NewBuilder(opts.Weights, logger.With("component", "heatmap"))},
		&PathStrategy{Solver: solver},
		&ClassifierStrategy{
			Extractor:     &features.Extractor{Solver: solver, LookaheadDepth: opts.LookaheadDepth},
			Classifier:    opts.Classifier,
			MinConfidence: opts.MinConfidence,
		},
		&DefaultStrategy{Move: opts.DefaultMove},
	}
	return NewWithTiers(tiers, opts.DefaultMove, logger)
}

// NewWithTiers builds an engine over an explicit tier list. fallback is used
// when every tier fails.
func NewWithTiers(tiers []Strategy, fallback game.Direction, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !fallback.Valid() {
		fallback = game.Up
	}
	return &Engine{tiers: tiers, fallback: fallback, logger: logger}
}

// Tiers returns the names of the configured tiers in order.
func (e *Engine) Tiers() []string {
	out := make([]string, len(e.tiers))
	for i, t := range e.tiers {
		out[i] = t.Name()
	}
	return out
}

// Decide always returns a move. A malformed state short-circuits to the
// fallback without running any tier.
func (e *Engine) Decide(ctx context.Context, state *game.GameState) Decision {
	start := time.Now()
	defer func() { decisionSeconds.Observe(time.Since(start).Seconds()) }()

	b, err := game.NewBoard(state)
	if err != nil {
		malformedTotal.Inc()
		decisionsTotal.WithLabelValues(TierMalformed).Inc()
		e.logger.Warn("rejecting malformed snapshot", "error", err)
		return Decision{Move: e.fallback, Proposed: e.fallback, Tier: TierMalformed, Elapsed: time.Since(start), Err: err}
	}

	d := e.DecideBoard(ctx, b)
	d.Elapsed = time.Since(start)
	return d
}

// DecideBoard runs the tier chain on an already validated board.
func (e *Engine) DecideBoard(ctx context.Context, b *game.Board) Decision {
	start := time.Now()
	dec := Decision{Board: b, Proposed: e.fallback, Tier: TierDefault}

	chosen := false
	for _, tier := range e.tiers {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("deadline reached, skipping remaining tiers", "turn", b.Turn(), "at", tier.Name(), "error", err)
			break
		}

		t0 := time.Now()
		move, err := e.attempt(ctx, tier, b)
		dec.Trace = append(dec.Trace, Attempt{Tier: tier.Name(), Move: move, Err: err, Elapsed: time.Since(t0)})
		if err != nil {
			tierErrorsTotal.WithLabelValues(tier.Name(), reason(err)).Inc()
			e.logger.Debug("tier skipped", "turn", b.Turn(), "tier", tier.Name(), "error", err)
			continue
		}
		if !move.Valid() {
			tierErrorsTotal.WithLabelValues(tier.Name(), "invalid_move").Inc()
			continue
		}

		dec.Proposed, dec.Tier = move, tier.Name()
		chosen = true
		break
	}
	if !chosen {
		dec.Proposed, dec.Tier = e.fallback, TierDefault
	}

	dec.Move, dec.Overridden = Validate(b, dec.Proposed, e.fallback)
	if dec.Overridden {
		safetyOverridesTotal.Inc()
		e.logger.Info("safety override", "turn", b.Turn(), "tier", dec.Tier, "proposed", dec.Proposed.String(), "move", dec.Move.String())
	}
	decisionsTotal.WithLabelValues(dec.Tier).Inc()

	dec.Elapsed = time.Since(start)
	e.logger.Debug("decided", "turn", b.Turn(), "tier", dec.Tier, "move", dec.Move.String(), "elapsed", dec.Elapsed)
	return dec
}

// attempt runs one tier and converts a panic into an error.
func (e *Engine) attempt(ctx context.Context, s Strategy, b *game.Board) (move game.Direction, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tier panic", "tier", s.Name(), "panic", r)
			move, err = game.Up, fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return s.Attempt(ctx, b)
}
