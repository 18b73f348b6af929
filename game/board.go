package game

import (
	"errors"
	"fmt"
)

// ErrMalformedSnapshot is returned by NewBoard when a turn is missing data
// every decision component relies on.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Board is an immutable per-turn snapshot. It owns a private deep copy of the
// state it was built from, so later edits to that state never leak in.
//
// The occupancy grid marks every body segment of every snake. Bodies are
// never aliased: Snakes() hands out the snapshot's own copy, which callers
// must treat as read-only.
type Board struct {
	state    *GameState
	you      int
	occupied []bool
	food     []bool
}

// NewBoard validates state and builds a snapshot from it.
func NewBoard(state *GameState) (*Board, error) {
	if err := Validate(state); err != nil {
		return nil, err
	}

	st := state.Clone()
	area := st.Width * st.Height
	b := &Board{
		state:    st,
		you:      -1,
		occupied: make([]bool, area),
		food:     make([]bool, area),
	}

	for i := range st.Snakes {
		if st.Snakes[i].ID == st.YouID {
			b.you = i
		}
		for _, p := range st.Snakes[i].Body {
			b.occupied[b.index(p)] = true
		}
	}
	for _, f := range st.Food {
		b.food[b.index(f)] = true
	}

	return b, nil
}

// Validate reports ErrMalformedSnapshot (wrapped with the reason) when state
// cannot be turned into a Board.
func Validate(state *GameState) error {
	if state == nil {
		return fmt.Errorf("%w: nil state", ErrMalformedSnapshot)
	}
	if state.Width <= 0 || state.Height <= 0 {
		return fmt.Errorf("%w: board %dx%d", ErrMalformedSnapshot, state.Width, state.Height)
	}
	if state.You() == nil {
		return fmt.Errorf("%w: snake %q not on board", ErrMalformedSnapshot, state.YouID)
	}

	in := func(p Point) bool {
		return p.X >= 0 && p.X < state.Width && p.Y >= 0 && p.Y < state.Height
	}
	for _, s := range state.Snakes {
		if len(s.Body) == 0 {
			return fmt.Errorf("%w: snake %q has no body", ErrMalformedSnapshot, s.ID)
		}
		for _, p := range s.Body {
			if !in(p) {
				return fmt.Errorf("%w: snake %q segment %v out of bounds", ErrMalformedSnapshot, s.ID, p)
			}
		}
	}
	for _, f := range state.Food {
		if !in(f) {
			return fmt.Errorf("%w: food %v out of bounds", ErrMalformedSnapshot, f)
		}
	}
	for _, h := range state.Hazards {
		if !in(h) {
			return fmt.Errorf("%w: hazard %v out of bounds", ErrMalformedSnapshot, h)
		}
	}
	return nil
}

func (b *Board) index(p Point) int {
	return p.Y*b.state.Width + p.X
}

func (b *Board) Width() int  { return b.state.Width }
func (b *Board) Height() int { return b.state.Height }
func (b *Board) Turn() int   { return b.state.Turn }
func (b *Board) Area() int   { return b.state.Width * b.state.Height }

// Index maps an in-bounds point to a dense grid index (row-major from the
// bottom-left). Used by components that keep their own per-cell arrays.
func (b *Board) Index(p Point) int {
	return b.index(p)
}

func (b *Board) InBounds(p Point) bool {
	return p.X >= 0 && p.X < b.state.Width && p.Y >= 0 && p.Y < b.state.Height
}

// OnEdge reports whether p lies on the outermost ring of the board.
func (b *Board) OnEdge(p Point) bool {
	return p.X == 0 || p.Y == 0 || p.X == b.state.Width-1 || p.Y == b.state.Height-1
}

// Occupied reports whether any snake segment sits on p. Out of bounds is
// reported as unoccupied; combine with InBounds.
func (b *Board) Occupied(p Point) bool {
	return b.InBounds(p) && b.occupied[b.index(p)]
}

func (b *Board) IsFood(p Point) bool {
	return b.InBounds(p) && b.food[b.index(p)]
}

// You returns the controlled snake.
func (b *Board) You() *Snake {
	return &b.state.Snakes[b.you]
}

// Health is the controlled snake's health this turn.
func (b *Board) Health() int {
	return b.state.Snakes[b.you].Health
}

// Snakes returns every snake on the board, the controlled one included.
func (b *Board) Snakes() []Snake {
	return b.state.Snakes
}

// Opponents returns every snake except the controlled one.
func (b *Board) Opponents() []*Snake {
	out := make([]*Snake, 0, len(b.state.Snakes))
	for i := range b.state.Snakes {
		if i == b.you {
			continue
		}
		out = append(out, &b.state.Snakes[i])
	}
	return out
}

func (b *Board) Food() []Point    { return b.state.Food }
func (b *Board) Hazards() []Point { return b.state.Hazards }

// Neighbors returns the in-bounds 4-neighbours of p in canonical direction order.
func (b *Board) Neighbors(p Point) []Point {
	out := make([]Point, 0, 4)
	for _, d := range Directions {
		n := p.Move(d)
		if b.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// State returns a deep copy of the snapshot's state.
func (b *Board) State() *GameState {
	return b.state.Clone()
}
