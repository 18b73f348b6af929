package space

import "github.com/brensch/snekheat/game"

// DefaultDepth is the lookahead horizon used when callers do not pick one.
const DefaultDepth = 2

type memoKey struct {
	cell  game.Point
	depth int
}

// Lookahead scores a head position by the best flood fill reachable after a
// fixed number of moves. A Lookahead belongs to one decision: its memo and
// path marker are tied to the board it was built for.
//
// Memo entries are keyed by (cell, depth) only, so a result computed under
// one recursive path is reused under another. That matches the scoring the
// engine has always used and keeps the search linear in area*depth.
type Lookahead struct {
	board  *game.Board
	memo   map[memoKey]int
	onPath []bool
}

func NewLookahead(b *game.Board) *Lookahead {
	return &Lookahead{
		board:  b,
		memo:   make(map[memoKey]int),
		onPath: make([]bool, b.Area()),
	}
}

// Score returns FloodFill(head) at depth 0. At depth > 0 it returns the
// maximum Score of any in-bounds neighbour that is not already on the current
// recursive path, or 0 when there is none. Occupied neighbours are walked
// through; they only score 0 when the walk ends on them.
func (l *Lookahead) Score(head game.Point, depth int) int {
	if depth <= 0 {
		return FloodFill(l.board, head)
	}

	key := memoKey{cell: head, depth: depth}
	if v, ok := l.memo[key]; ok {
		return v
	}

	headIdx := -1
	if l.board.InBounds(head) {
		headIdx = l.board.Index(head)
		l.onPath[headIdx] = true
	}

	best := 0
	for _, d := range game.Directions {
		n := head.Move(d)
		if !l.board.InBounds(n) {
			continue
		}
		if l.onPath[l.board.Index(n)] {
			continue
		}
		if v := l.Score(n, depth-1); v > best {
			best = v
		}
	}

	if headIdx >= 0 {
		l.onPath[headIdx] = false
	}

	l.memo[key] = best
	return best
}
