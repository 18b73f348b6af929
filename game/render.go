package game

import (
	"fmt"
	"strings"
)

// Render draws the board top row first. Our snake is O/o, opponents S/s,
// food F. Anything off the board is skipped.
func Render(state *GameState) string {
	if state == nil || state.Width <= 0 || state.Height <= 0 {
		return "<empty board>\n"
	}

	grid := make([][]byte, state.Height)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(".", state.Width))
	}
	in := func(p Point) bool {
		return p.X >= 0 && p.X < state.Width && p.Y >= 0 && p.Y < state.Height
	}

	for _, f := range state.Food {
		if in(f) {
			grid[f.Y][f.X] = 'F'
		}
	}
	for _, s := range state.Snakes {
		body, head := byte('s'), byte('S')
		if s.ID == state.YouID {
			body, head = 'o', 'O'
		}
		// Draw tail first so the head wins on stacked segments.
		for i := len(s.Body) - 1; i >= 0; i-- {
			p := s.Body[i]
			if !in(p) {
				continue
			}
			if i == 0 {
				grid[p.Y][p.X] = head
			} else {
				grid[p.Y][p.X] = body
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Turn=%d Size=%dx%d You=%s\n", state.Turn, state.Width, state.Height, state.YouID)
	for y := state.Height - 1; y >= 0; y-- {
		for x := 0; x < state.Width; x++ {
			sb.WriteByte(grid[y][x])
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
