package pathing

import (
	"math/rand"
	"testing"

	"github.com/brensch/snekheat/game"
)

func TestPath_OpenBoardLengthIsManhattan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := &Search{Width: 11, Height: 11}

	for i := 0; i < 200; i++ {
		a := game.Point{X: rng.Intn(11), Y: rng.Intn(11)}
		b := game.Point{X: rng.Intn(11), Y: rng.Intn(11)}

		path := s.Path(a, b)
		if path == nil {
			t.Fatalf("no path %v->%v on open board", a, b)
		}
		if got, want := len(path)-1, game.Manhattan(a, b); got != want {
			t.Fatalf("%v->%v steps=%d want=%d", a, b, got, want)
		}
		if path[0] != a || path[len(path)-1] != b {
			t.Fatalf("endpoints=%v..%v want=%v..%v", path[0], path[len(path)-1], a, b)
		}
		for j := 1; j < len(path); j++ {
			if game.Manhattan(path[j-1], path[j]) != 1 {
				t.Fatalf("path not 4-connected at %d: %v", j, path)
			}
		}
	}
}

// bfsFrom returns the true step distance to goal from every cell, honouring
// the same edge pruning as Search.
func bfsFrom(w, h int, goal game.Point, forbidden func(game.Point) bool) map[game.Point]int {
	dist := map[game.Point]int{goal: 0}
	if forbidden(goal) {
		return dist
	}
	queue := []game.Point{goal}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range game.Directions {
			n := p.Move(d)
			if n.X < 0 || n.X >= w || n.Y < 0 || n.Y >= h || forbidden(n) {
				continue
			}
			if _, seen := dist[n]; seen {
				continue
			}
			dist[n] = dist[p] + 1
			queue = append(queue, n)
		}
	}
	return dist
}

func TestPath_HeuristicAdmissibleAndConsistent(t *testing.T) {
	walls := map[game.Point]bool{}
	for y := 0; y < 8; y++ {
		walls[game.Point{X: 4, Y: y}] = true
	}
	for x := 2; x < 9; x++ {
		walls[game.Point{X: x, Y: 2}] = true
	}
	delete(walls, game.Point{X: 6, Y: 2})
	forbidden := func(p game.Point) bool { return walls[p] }

	start, goal := game.Point{X: 1, Y: 1}, game.Point{X: 8, Y: 0}
	truth := bfsFrom(10, 10, goal, forbidden)

	lastF := -1
	expansions := 0
	s := &Search{
		Width:     10,
		Height:    10,
		Forbidden: forbidden,
		OnExpand: func(p game.Point, g, h int) {
			expansions++
			if d, ok := truth[p]; ok && h > d {
				t.Errorf("h(%v)=%d exceeds true cost %d", p, h, d)
			}
			if f := g + h; f < lastF {
				t.Errorf("f decreased to %d at %v after %d", f, p, lastF)
			} else {
				lastF = f
			}
		},
	}

	path := s.Path(start, goal)
	if path == nil {
		t.Fatalf("no path found")
	}
	if got, want := len(path)-1, truth[start]; got != want {
		t.Fatalf("steps=%d want=%d (optimal)", got, want)
	}
	for _, p := range path {
		if walls[p] {
			t.Fatalf("path crosses forbidden %v: %v", p, path)
		}
	}
	if expansions == 0 {
		t.Fatalf("OnExpand never called")
	}
}

func TestPath_ForbiddenEndpointPrunes(t *testing.T) {
	s := &Search{Width: 5, Height: 5, Forbidden: func(p game.Point) bool { return p == (game.Point{X: 2, Y: 2}) }}

	if path := s.Path(game.Point{X: 2, Y: 2}, game.Point{X: 2, Y: 4}); path != nil {
		t.Fatalf("forbidden start produced path %v", path)
	}
	if path := s.Path(game.Point{X: 0, Y: 2}, game.Point{X: 2, Y: 2}); path != nil {
		t.Fatalf("forbidden goal produced path %v", path)
	}
	if path := s.Path(game.Point{X: 0, Y: 0}, game.Point{X: 9, Y: 9}); path != nil {
		t.Fatalf("off-board goal produced path %v", path)
	}
	if path := s.Path(game.Point{X: 1, Y: 1}, game.Point{X: 1, Y: 1}); len(path) != 1 {
		t.Fatalf("start==goal path=%v want single cell", path)
	}
}
