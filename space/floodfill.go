// Package space measures how much room a snake has to move in.
//
// The boundary ring is always treated as blocked here, so a cell on the edge
// of the board has zero reachable space even when nothing sits on it.
package space

import "github.com/brensch/snekheat/game"

// blocked reports whether p cannot be entered by the fill.
func blocked(b *game.Board, p game.Point) bool {
	return !b.InBounds(p) || b.OnEdge(p) || b.Occupied(p)
}

// FloodFill counts the open cells 4-connected to start, start included.
// A blocked start yields 0.
func FloodFill(b *game.Board, start game.Point) int {
	if blocked(b, start) {
		return 0
	}
	return fill(b, start)
}

// RegionSize is FloodFill with the origin itself treated as open. It is used
// to measure the region around an occupied head.
func RegionSize(b *game.Board, origin game.Point) int {
	if !b.InBounds(origin) {
		return 0
	}
	return fill(b, origin)
}

func fill(b *game.Board, start game.Point) int {
	visited := make([]bool, b.Area())
	visited[b.Index(start)] = true

	queue := make([]game.Point, 0, 64)
	queue = append(queue, start)
	count := 0

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		count++

		for _, d := range game.Directions {
			n := p.Move(d)
			if blocked(b, n) {
				continue
			}
			i := b.Index(n)
			if visited[i] {
				continue
			}
			visited[i] = true
			queue = append(queue, n)
		}
	}
	return count
}
