package pathing

// RaceTime is the number of turns until the body segment at index of a snake
// with the given length vacates its cell. A snake next to food may grow this
// turn, which keeps every segment around one turn longer.
func RaceTime(length, index int, nearFood bool) int {
	t := length - index
	if nearFood {
		t++
	}
	return t
}

// StillOccupied reports whether a segment is predicted to still be there by
// the time our head could reach it, distance moves away.
func StillOccupied(length, index int, nearFood bool, distance int) bool {
	return RaceTime(length, index, nearFood) >= distance
}
