package pathing

import "github.com/brensch/snekheat/game"

// ForbiddenSet is the set of cells A* must not enter this turn.
type ForbiddenSet struct {
	width int
	cells []bool
}

func newForbiddenSet(w, h int) *ForbiddenSet {
	return &ForbiddenSet{width: w, cells: make([]bool, w*h)}
}

func (f *ForbiddenSet) add(p game.Point) {
	i := p.Y*f.width + p.X
	if p.X < 0 || p.X >= f.width || i < 0 || i >= len(f.cells) {
		return
	}
	f.cells[i] = true
}

// Has reports whether p is forbidden. Off-board cells are not in the set.
func (f *ForbiddenSet) Has(p game.Point) bool {
	i := p.Y*f.width + p.X
	if p.X < 0 || p.X >= f.width || i < 0 || i >= len(f.cells) {
		return false
	}
	return f.cells[i]
}

// Cells lists the forbidden cells in row-major order.
func (f *ForbiddenSet) Cells() []game.Point {
	var out []game.Point
	for i, on := range f.cells {
		if on {
			out = append(out, game.Point{X: i % f.width, Y: i / f.width})
		}
	}
	return out
}

func (f *ForbiddenSet) Len() int {
	n := 0
	for _, on := range f.cells {
		if on {
			n++
		}
	}
	return n
}

// Forbidden builds the impassable set for b:
//   - the boundary ring
//   - non-neck neighbours of an opponent head that are within one step of our
//     head, when that opponent is at least our length
//   - opponent segments still occupied by race timing, where an opponent
//     whose head touches food may grow
//   - our own segments after the head, always timed as if we may grow
func Forbidden(b *game.Board) *ForbiddenSet {
	w, h := b.Width(), b.Height()
	f := newForbiddenSet(w, h)

	for x := 0; x < w; x++ {
		f.add(game.Point{X: x, Y: 0})
		f.add(game.Point{X: x, Y: h - 1})
	}
	for y := 0; y < h; y++ {
		f.add(game.Point{X: 0, Y: y})
		f.add(game.Point{X: w - 1, Y: y})
	}

	you := b.You()
	myHead := you.Head()
	myLen := you.Len()

	for _, o := range b.Opponents() {
		head := o.Head()
		nearFood := false
		for _, n := range b.Neighbors(head) {
			if len(o.Body) > 1 && n == o.Body[1] {
				continue
			}
			if b.IsFood(n) {
				nearFood = true
			}
			if o.Len() >= myLen && game.Manhattan(n, myHead) < 2 {
				f.add(n)
			}
		}
		for i, p := range o.Body {
			if StillOccupied(o.Len(), i, nearFood, game.Manhattan(p, myHead)) {
				f.add(p)
			}
		}
	}

	for i, p := range you.Body {
		if i == 0 {
			continue
		}
		if StillOccupied(myLen, i, true, game.Manhattan(p, myHead)) {
			f.add(p)
		}
	}
	return f
}
