// Package rules implements the standard Battlesnake turn transition for local
// play. The live server never uses it; the engine only sees snapshots.
package rules

import (
	"math/rand"
	"sort"

	"github.com/brensch/snekheat/game"
)

const (
	MaxHealth          = 100
	DefaultBoardSize   = 11
	DefaultStartLength = 3
)

// Cause names why a snake left the board.
type Cause string

const (
	CauseWall       Cause = "wall-collision"
	CauseStarvation Cause = "out-of-health"
	CauseSelf       Cause = "self-collision"
	CauseBody       Cause = "snake-collision"
	CauseHeadToHead Cause = "head-collision"
)

type Elimination struct {
	ID    string
	Cause Cause
	By    string
	Turn  int
}

// Settings are the ruleset knobs the arena exposes.
type Settings struct {
	Food         FoodSettings
	HazardDamage int
}

var DefaultSettings = Settings{Food: DefaultFoodSettings, HazardDamage: 14}

// LegalMoves lists directions that keep the snake on the board and off every
// body segment, in canonical order. Tails are treated as solid.
func LegalMoves(state *game.GameState, id string) []game.Direction {
	var you *game.Snake
	for i := range state.Snakes {
		if state.Snakes[i].ID == id {
			you = &state.Snakes[i]
			break
		}
	}
	if you == nil || you.Health <= 0 || len(you.Body) == 0 {
		return nil
	}

	head := you.Head()
	moves := make([]game.Direction, 0, 4)
	for _, d := range game.Directions {
		if isSafe(state, head.Move(d)) {
			moves = append(moves, d)
		}
	}
	return moves
}

func isSafe(state *game.GameState, p game.Point) bool {
	if p.X < 0 || p.X >= state.Width || p.Y < 0 || p.Y >= state.Height {
		return false
	}
	for _, s := range state.Snakes {
		for _, bp := range s.Body {
			if p == bp {
				return false
			}
		}
	}
	return true
}

// lastMove is the direction from neck to head, Up when there is no neck.
func lastMove(s *game.Snake) game.Direction {
	if len(s.Body) < 2 || s.Body[0] == s.Body[1] {
		return game.Up
	}
	d, ok := game.DirectionTo(s.Body[1], s.Body[0])
	if !ok {
		return game.Up
	}
	return d
}

// Step applies one simultaneous turn and returns the new state plus the snakes
// eliminated on it. A snake without a move keeps going the way it faces.
// state is not modified. rng may be nil for deterministic food.
func Step(state *game.GameState, moves map[string]game.Direction, rng *rand.Rand, settings Settings) (*game.GameState, []Elimination) {
	next := state.Clone()
	next.Turn++

	// Move every snake: the tail advances, growth is applied after feeding.
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if len(s.Body) == 0 {
			continue
		}
		d, ok := moves[s.ID]
		if !ok || !d.Valid() {
			d = lastMove(s)
		}
		body := make([]game.Point, 0, len(s.Body)+1)
		body = append(body, s.Head().Move(d))
		body = append(body, s.Body[:len(s.Body)-1]...)
		s.Body = body
		s.Length = 0
		s.Health--
	}

	// Hazards.
	if settings.HazardDamage > 0 && len(next.Hazards) > 0 {
		for i := range next.Snakes {
			s := &next.Snakes[i]
			if len(s.Body) == 0 {
				continue
			}
			for _, h := range next.Hazards {
				if s.Head() == h {
					s.Health -= settings.HazardDamage
					break
				}
			}
		}
	}

	// Feeding: every snake on a food eats it, and the food is consumed once.
	eaten := make(map[game.Point]bool)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if len(s.Body) == 0 {
			continue
		}
		for _, f := range next.Food {
			if s.Head() == f {
				s.Health = MaxHealth
				s.Body = append(s.Body, s.Tail())
				eaten[f] = true
				break
			}
		}
	}
	if len(eaten) > 0 {
		remaining := next.Food[:0]
		for _, f := range next.Food {
			if !eaten[f] {
				remaining = append(remaining, f)
			}
		}
		next.Food = remaining
	}

	elims := eliminate(next)

	applyFoodRules(next, rng, settings.Food, 0x464F4F445F535445) // "FOOD_STE"
	return next, elims
}

// eliminate removes dead snakes from state in place. Out-of-bounds and
// starvation are resolved first; collisions are checked against the snakes
// that survived that pass.
func eliminate(state *game.GameState) []Elimination {
	var elims []Elimination
	dead := make(map[string]bool)

	for _, s := range state.Snakes {
		if len(s.Body) == 0 {
			dead[s.ID] = true
			continue
		}
		h := s.Head()
		switch {
		case s.Health <= 0:
			dead[s.ID] = true
			elims = append(elims, Elimination{ID: s.ID, Cause: CauseStarvation, Turn: state.Turn})
		case h.X < 0 || h.X >= state.Width || h.Y < 0 || h.Y >= state.Height:
			dead[s.ID] = true
			elims = append(elims, Elimination{ID: s.ID, Cause: CauseWall, Turn: state.Turn})
		}
	}

	survivors := make([]*game.Snake, 0, len(state.Snakes))
	for i := range state.Snakes {
		if !dead[state.Snakes[i].ID] {
			survivors = append(survivors, &state.Snakes[i])
		}
	}

	collided := make(map[string]Elimination)
	for _, s := range survivors {
		h := s.Head()
		if e, hit := bodyCollision(s, h, survivors, state.Turn); hit {
			collided[s.ID] = e
			continue
		}
		for _, o := range survivors {
			if o.ID == s.ID || o.Head() != h {
				continue
			}
			if s.Len() <= o.Len() {
				collided[s.ID] = Elimination{ID: s.ID, Cause: CauseHeadToHead, By: o.ID, Turn: state.Turn}
				break
			}
		}
	}

	ids := make([]string, 0, len(collided))
	for id := range collided {
		ids = append(ids, id)
		dead[id] = true
	}
	sort.Strings(ids)
	for _, id := range ids {
		elims = append(elims, collided[id])
	}

	alive := state.Snakes[:0]
	for _, s := range state.Snakes {
		if !dead[s.ID] {
			alive = append(alive, s)
		}
	}
	state.Snakes = alive
	return elims
}

func bodyCollision(s *game.Snake, h game.Point, others []*game.Snake, turn int) (Elimination, bool) {
	for _, o := range others {
		for i, p := range o.Body {
			if i == 0 {
				continue
			}
			if p != h {
				continue
			}
			if o.ID == s.ID {
				return Elimination{ID: s.ID, Cause: CauseSelf, By: s.ID, Turn: turn}, true
			}
			return Elimination{ID: s.ID, Cause: CauseBody, By: o.ID, Turn: turn}, true
		}
	}
	return Elimination{}, false
}

// IsGameOver reports whether at most one snake is left. A solo game ends
// only when the last snake dies.
func IsGameOver(state *game.GameState, startedWith int) bool {
	if startedWith <= 1 {
		return len(state.Snakes) == 0
	}
	return len(state.Snakes) <= 1
}

// Winner returns the last snake standing, or "" for a draw or a game still in
// progress.
func Winner(state *game.GameState) string {
	if len(state.Snakes) == 1 {
		return state.Snakes[0].ID
	}
	return ""
}
