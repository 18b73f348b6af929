// Package game defines the per-turn Battlesnake board model.
//
// GameState is the plain, mutable description of a turn as it arrives off the
// wire. Board is the immutable snapshot every decision component reads from;
// it is rebuilt from a fresh GameState each turn and never mutated.
package game

// Point is a board coordinate.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type Point struct {
	X int
	Y int
}

// Manhattan returns the 4-connected grid distance between a and b.
func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Move returns the neighbouring point one step in direction d.
func (p Point) Move(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

type Snake struct {
	ID     string
	Health int
	Body   []Point
	// Length is the length reported by the server. It may exceed len(Body)
	// by one on the turn after eating. Zero means "use len(Body)".
	Length int
}

// Len returns the authoritative length of the snake.
func (s *Snake) Len() int {
	if s.Length > 0 {
		return s.Length
	}
	return len(s.Body)
}

// Head returns the first body segment. Body must be non-empty.
func (s *Snake) Head() Point {
	return s.Body[0]
}

// Tail returns the last body segment. Body must be non-empty.
func (s *Snake) Tail() Point {
	return s.Body[len(s.Body)-1]
}

// GameState is the complete description of one turn.
// YouID selects the controlled snake.
type GameState struct {
	Width   int
	Height  int
	Snakes  []Snake
	Food    []Point
	Hazards []Point
	YouID   string
	Turn    int
}

// You returns the controlled snake, or nil if it is not on the board.
func (s *GameState) You() *Snake {
	for i := range s.Snakes {
		if s.Snakes[i].ID == s.YouID {
			return &s.Snakes[i]
		}
	}
	return nil
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Width:  s.Width,
		Height: s.Height,
		YouID:  s.YouID,
		Turn:   s.Turn,
	}

	if len(s.Food) > 0 {
		out.Food = make([]Point, len(s.Food))
		copy(out.Food, s.Food)
	}
	if len(s.Hazards) > 0 {
		out.Hazards = make([]Point, len(s.Hazards))
		copy(out.Hazards, s.Hazards)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]Snake, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = Snake{ID: s.Snakes[i].ID, Health: s.Snakes[i].Health, Length: s.Snakes[i].Length}
			if len(s.Snakes[i].Body) > 0 {
				out.Snakes[i].Body = make([]Point, len(s.Snakes[i].Body))
				copy(out.Snakes[i].Body, s.Snakes[i].Body)
			}
		}
	}

	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
