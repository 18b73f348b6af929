package game

import "fmt"

// Direction is one of the four cardinal moves.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every move in canonical order. Anything that scans moves
// and breaks ties by "first wins" iterates in this order.
var Directions = [4]Direction{Up, Down, Left, Right}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Valid reports whether d is one of the four moves.
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

// Delta returns the coordinate offset of one step in direction d.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, 1
	case Down:
		return 0, -1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// ParseDirection maps a wire label onto a Direction.
func ParseDirection(label string) (Direction, error) {
	switch label {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Up, fmt.Errorf("unknown direction %q", label)
}

// DirectionTo returns the move that takes from to its neighbour to.
// ok is false when the points are not 4-adjacent.
func DirectionTo(from, to Point) (d Direction, ok bool) {
	for _, d := range Directions {
		if from.Move(d) == to {
			return d, true
		}
	}
	return Up, false
}
