package pathing

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/space"
)

// ErrNoPath is returned when no goal is reachable and no neighbouring cell
// offers any space.
var ErrNoPath = errors.New("no path")

// DefaultMinSpace is the flood fill below which the shortest route is swapped
// for a roomier one.
const DefaultMinSpace = 10

// Candidate is one reachable goal, summarised by its first step.
type Candidate struct {
	Goal    game.Point
	First   game.Point
	PathLen int
	Space   int
}

// Plan is the full outcome of one solver run.
type Plan struct {
	Next       game.Point
	Fallback   bool
	Candidates []Candidate
	Forbidden  *ForbiddenSet
}

type Solver struct {
	MinSpace int
	Logger   *slog.Logger
}

func NewSolver(minSpace int, logger *slog.Logger) *Solver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if minSpace <= 0 {
		minSpace = DefaultMinSpace
	}
	return &Solver{MinSpace: minSpace, Logger: logger}
}

// Goals returns the food cells worth racing for. Food touching an opponent
// head is dropped unless we are also adjacent to it and strictly longer.
func Goals(b *game.Board) []game.Point {
	you := b.You()
	myHead := you.Head()

	goals := make([]game.Point, 0, len(b.Food()))
	for _, food := range b.Food() {
		ok := true
		for _, o := range b.Opponents() {
			if game.Manhattan(food, o.Head()) != 1 {
				continue
			}
			if game.Manhattan(food, myHead) > 1 || o.Len() >= you.Len() {
				ok = false
				break
			}
		}
		if ok {
			goals = append(goals, food)
		}
	}
	return goals
}

// Next returns the cell our head should move into.
func (s *Solver) Next(b *game.Board) (game.Point, error) {
	plan, err := s.Plan(b)
	if err != nil {
		return game.Point{}, err
	}
	return plan.Next, nil
}

// Plan runs A* to every goal and picks the first step. Candidates are ranked
// by path length, then by space after the first step. If the best one leaves
// less than MinSpace, the first later candidate with strictly more space wins.
// With no reachable goal, the non-forbidden neighbour with the largest flood
// fill is used instead.
func (s *Solver) Plan(b *game.Board) (*Plan, error) {
	forbidden := Forbidden(b)
	head := b.You().Head()
	search := &Search{Width: b.Width(), Height: b.Height(), Forbidden: forbidden.Has}

	plan := &Plan{Forbidden: forbidden}
	for _, goal := range Goals(b) {
		path := search.Path(head, goal)
		if path == nil {
			continue
		}
		first := path[0]
		if len(path) > 1 {
			first = path[1]
		}
		plan.Candidates = append(plan.Candidates, Candidate{
			Goal:    goal,
			First:   first,
			PathLen: len(path),
			Space:   space.FloodFill(b, first),
		})
	}

	if len(plan.Candidates) == 0 {
		next, ok := s.roomiest(b, head, forbidden)
		if !ok {
			s.Logger.Debug("no path and no open neighbour", "turn", b.Turn(), "head", head)
			return nil, ErrNoPath
		}
		plan.Next = next
		plan.Fallback = true
		s.Logger.Debug("no reachable goal, moving to roomiest neighbour", "turn", b.Turn(), "next", next)
		return plan, nil
	}

	sort.SliceStable(plan.Candidates, func(i, j int) bool {
		a, c := plan.Candidates[i], plan.Candidates[j]
		if a.PathLen != c.PathLen {
			return a.PathLen < c.PathLen
		}
		return a.Space > c.Space
	})

	best := plan.Candidates[0]
	plan.Next = best.First
	if best.Space < s.MinSpace {
		for _, c := range plan.Candidates[1:] {
			if c.Space > best.Space {
				plan.Next = c.First
				s.Logger.Debug("shortest path too cramped, taking roomier goal",
					"turn", b.Turn(), "goal", c.Goal, "space", c.Space, "skipped_space", best.Space)
				break
			}
		}
	}
	return plan, nil
}

func (s *Solver) roomiest(b *game.Board, head game.Point, forbidden *ForbiddenSet) (game.Point, bool) {
	var next game.Point
	bestArea := 0
	for _, n := range b.Neighbors(head) {
		if forbidden.Has(n) {
			continue
		}
		if area := space.FloodFill(b, n); area > bestArea {
			bestArea = area
			next = n
		}
	}
	return next, bestArea > 0
}
