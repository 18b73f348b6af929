package arbiter

import "github.com/brensch/snekheat/game"

// Validate returns dir when its destination is on the board and not covered
// by any body segment. Otherwise it returns the first safe direction in
// canonical order. If nothing is safe it returns fallback; the snake is dead
// either way and the server still needs an answer.
func Validate(b *game.Board, dir, fallback game.Direction) (game.Direction, bool) {
	head := b.You().Head()
	if dir.Valid() && safeStep(b, head.Move(dir)) {
		return dir, false
	}
	for _, d := range game.Directions {
		if safeStep(b, head.Move(d)) {
			return d, true
		}
	}
	return fallback, dir != fallback
}

func safeStep(b *game.Board, p game.Point) bool {
	return b.InBounds(p) && !b.Occupied(p)
}
