// Package pathing plans a route to food with A* over the board, treating
// cells predicted to still be occupied when we arrive as impassable.
package pathing

import (
	"container/heap"

	"github.com/brensch/snekheat/game"
)

// Search is a grid A* with unit step cost and a Manhattan heuristic. An edge
// is pruned when either endpoint is forbidden.
type Search struct {
	Width     int
	Height    int
	Forbidden func(game.Point) bool

	// OnExpand, when set, is called for every node popped off the open set
	// with its cost so far and heuristic estimate to the goal.
	OnExpand func(p game.Point, g, h int)
}

type openNode struct {
	p     game.Point
	g     int
	f     int
	seq   int
	index int
}

// openSet orders by f, then by larger g (deeper first), then insertion order.
type openSet []*openNode

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	if s[i].g != s[j].g {
		return s[i].g > s[j].g
	}
	return s[i].seq < s[j].seq
}
func (s openSet) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].index = i
	s[j].index = j
}
func (s *openSet) Push(x any) {
	n := x.(*openNode)
	n.index = len(*s)
	*s = append(*s, n)
}
func (s *openSet) Pop() any {
	old := *s
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*s = old[:len(old)-1]
	n.index = -1
	return n
}

func (s *Search) in(p game.Point) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

func (s *Search) forbidden(p game.Point) bool {
	return s.Forbidden != nil && s.Forbidden(p)
}

// Path returns the cells from start to goal inclusive, or nil when goal is
// unreachable. start == goal yields a single-cell path.
func (s *Search) Path(start, goal game.Point) []game.Point {
	if !s.in(start) || !s.in(goal) {
		return nil
	}
	if start == goal {
		return []game.Point{start}
	}

	area := s.Width * s.Height
	idx := func(p game.Point) int { return p.Y*s.Width + p.X }

	gScore := make([]int, area)
	for i := range gScore {
		gScore[i] = -1
	}
	closed := make([]bool, area)
	parent := make([]int, area)
	nodes := make(map[int]*openNode)

	open := &openSet{}
	seq := 0
	push := func(p game.Point, g int) {
		n := &openNode{p: p, g: g, f: g + game.Manhattan(p, goal), seq: seq}
		seq++
		nodes[idx(p)] = n
		heap.Push(open, n)
	}

	gScore[idx(start)] = 0
	parent[idx(start)] = -1
	push(start, 0)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*openNode)
		ci := idx(cur.p)
		delete(nodes, ci)
		if closed[ci] {
			continue
		}
		closed[ci] = true

		if s.OnExpand != nil {
			s.OnExpand(cur.p, cur.g, game.Manhattan(cur.p, goal))
		}
		if cur.p == goal {
			return s.walk(parent, ci, start)
		}

		curForbidden := s.forbidden(cur.p)
		for _, d := range game.Directions {
			n := cur.p.Move(d)
			if !s.in(n) {
				continue
			}
			ni := idx(n)
			if closed[ni] {
				continue
			}
			if curForbidden || s.forbidden(n) {
				continue
			}

			g := cur.g + 1
			if gScore[ni] >= 0 && g >= gScore[ni] {
				continue
			}
			gScore[ni] = g
			parent[ni] = ci

			if existing, ok := nodes[ni]; ok {
				existing.g = g
				existing.f = g + game.Manhattan(n, goal)
				heap.Fix(open, existing.index)
				continue
			}
			push(n, g)
		}
	}
	return nil
}

func (s *Search) walk(parent []int, end int, start game.Point) []game.Point {
	var rev []game.Point
	for i := end; i >= 0; i = parent[i] {
		rev = append(rev, game.Point{X: i % s.Width, Y: i / s.Width})
		if rev[len(rev)-1] == start {
			break
		}
	}
	out := make([]game.Point, len(rev))
	for i := range rev {
		out[i] = rev[len(rev)-1-i]
	}
	return out
}
