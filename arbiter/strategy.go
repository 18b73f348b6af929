package arbiter

import (
	"context"
	"fmt"

	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/heatmap"
	"github.com/brensch/snekheat/pathing"
)

// Strategy is one tier of the decision chain.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, b *game.Board) (game.Direction, error)
}

const (
	TierHeatmap    = "heatmap"
	TierPath       = "path"
	TierClassifier = "classifier"
	TierDefault    = "default"
	TierMalformed  = "malformed"
)

// HeatmapStrategy moves to the highest scoring neighbour of our head.
type HeatmapStrategy struct {
	Builder *heatmap.Builder
}

func (s *HeatmapStrategy) Name() string { return TierHeatmap }

func (s *HeatmapStrategy) Attempt(_ context.Context, b *game.Board) (game.Direction, error) {
	m := s.Builder.Build(b, b.Health())
	head := b.You().Head()

	best, found := game.Up, false
	bestScore := 0
	for _, d := range game.Directions {
		n := head.Move(d)
		if !b.InBounds(n) {
			continue
		}
		if score := m.At(n); !found || score > bestScore {
			best, bestScore, found = d, score, true
		}
	}
	if !found {
		return game.Up, ErrNoMove
	}
	return best, nil
}

// PathStrategy follows the path solver's first step.
type PathStrategy struct {
	Solver *pathing.Solver
}

func (s *PathStrategy) Name() string { return TierPath }

func (s *PathStrategy) Attempt(_ context.Context, b *game.Board) (game.Direction, error) {
	next, err := s.Solver.Next(b)
	if err != nil {
		return game.Up, err
	}
	d, ok := game.DirectionTo(b.You().Head(), next)
	if !ok {
		return game.Up, fmt.Errorf("solver step %v not adjacent to head: %w", next, ErrNoMove)
	}
	return d, nil
}

// ClassifierStrategy asks the trained model. Answers at or below
// MinConfidence are rejected.
type ClassifierStrategy struct {
	Extractor     *features.Extractor
	Classifier    Classifier
	MinConfidence float32
}

// DefaultMinConfidence is the confidence a prediction must exceed to be used.
const DefaultMinConfidence = 0.6

func (s *ClassifierStrategy) Name() string { return TierClassifier }

func (s *ClassifierStrategy) Attempt(ctx context.Context, b *game.Board) (game.Direction, error) {
	if s.Classifier == nil {
		return game.Up, ErrClassifierUnavailable
	}

	ex := s.Extractor
	if ex == nil {
		ex = &features.Extractor{}
	}
	pred, err := s.Classifier.Classify(ctx, ex.Extract(b))
	if err != nil {
		return game.Up, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	d, err := game.ParseDirection(pred.Label)
	if err != nil {
		return game.Up, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	if pred.Confidence <= s.MinConfidence {
		return game.Up, fmt.Errorf("%w: %s at %.2f", ErrLowConfidence, pred.Label, pred.Confidence)
	}
	return d, nil
}

// DefaultStrategy always answers Move. It never fails.
type DefaultStrategy struct {
	Move game.Direction
}

func (s *DefaultStrategy) Name() string { return TierDefault }

func (s *DefaultStrategy) Attempt(context.Context, *game.Board) (game.Direction, error) {
	return s.Move, nil
}
