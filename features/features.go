// Package features encodes a board into the fixed numeric vector consumed by
// the move classifier.
//
// The field order is a contract with the trained model. Any change to the
// order or meaning of a field must bump Version.
package features

import (
	"sync"

	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/heatmap"
	"github.com/brensch/snekheat/pathing"
	"github.com/brensch/snekheat/space"
)

const (
	Version = "v1"
	Count   = 36
)

// Vector is one encoded board, in Names order.
type Vector [Count]float32

// Names lists the column name of every Vector field.
var Names = [Count]string{
	"head_x",
	"head_y",
	"health",
	"width",
	"height",
	"closest_food_distance",
	"space",
	"future_space",
	"safe_up",
	"safe_down",
	"safe_left",
	"safe_right",
	"open_area_up",
	"open_area_down",
	"open_area_left",
	"open_area_right",
	"distance_to_nearest_wall",
	"tail_distance",
	"closest_food_is_safe",
	"is_biggest_snake",
	"needs_food",
	"closest_enemy_head_dist",
	"enemy_head_is_adjacent",
	"enemies_within_2",
	"kill_up",
	"kill_down",
	"kill_left",
	"kill_right",
	"dir_up",
	"dir_down",
	"dir_left",
	"dir_right",
	"center_bonus",
	"food_contest_count",
	"num_snakes",
	"path_distance_to_food",
}

// Index returns the position of the named field, or -1.
func Index(name string) int {
	for i, n := range Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Get returns the named field. Unknown names read as 0.
func (v *Vector) Get(name string) float32 {
	if i := Index(name); i >= 0 {
		return v[i]
	}
	return 0
}

// Slice returns a copy of v as a slice, for columnar writers.
func (v *Vector) Slice() []float32 {
	out := make([]float32, Count)
	copy(out, v[:])
	return out
}

var batchPool = sync.Pool{
	New: func() any {
		b := make([]float32, 0, Count*64)
		return &b
	},
}

// GetBatch returns a pooled flat buffer sized for n vectors.
// Callers must return it with PutBatch.
func GetBatch(n int) *[]float32 {
	p := batchPool.Get().(*[]float32)
	if cap(*p) < n*Count {
		*p = make([]float32, n*Count)
	}
	*p = (*p)[:n*Count]
	return p
}

func PutBatch(p *[]float32) {
	batchPool.Put(p)
}

// Extractor computes vectors. Solver supplies path_distance_to_food; a nil
// Solver uses the default one.
type Extractor struct {
	Solver         *pathing.Solver
	LookaheadDepth int
}

func bool01(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// Extract encodes b from the controlled snake's point of view.
func (e *Extractor) Extract(b *game.Board) Vector {
	var v Vector

	you := b.You()
	head := you.Head()
	w, h := b.Width(), b.Height()
	myLen := you.Len()

	depth := e.LookaheadDepth
	if depth <= 0 {
		depth = space.DefaultDepth
	}

	v[0] = float32(head.X)
	v[1] = float32(head.Y)
	v[2] = float32(you.Health)
	v[3] = float32(w)
	v[4] = float32(h)

	closestFood := w + h
	var nearest *game.Point
	for i, f := range b.Food() {
		if d := game.Manhattan(head, f); d < closestFood || nearest == nil {
			closestFood = d
			nearest = &b.Food()[i]
		}
	}
	v[5] = float32(closestFood)

	v[6] = float32(space.RegionSize(b, head))
	v[7] = float32(space.NewLookahead(b).Score(head, depth))

	for i, d := range game.Directions {
		n := head.Move(d)
		v[8+i] = bool01(safe(b, n))
		if b.InBounds(n) {
			v[12+i] = float32(space.FloodFill(b, n))
		}
	}

	v[16] = float32(min(head.X, w-1-head.X, head.Y, h-1-head.Y))
	v[17] = float32(game.Manhattan(head, you.Tail()))
	v[18] = bool01(nearest != nil && !heatmap.Contested(b, *nearest))

	biggest := true
	for _, o := range b.Opponents() {
		if o.Len() >= myLen {
			biggest = false
			break
		}
	}
	v[19] = bool01(biggest)
	v[20] = bool01(you.Health < 30 && !biggest)

	closestEnemy := w + h
	adjacent := false
	within2 := 0
	for _, o := range b.Opponents() {
		d := game.Manhattan(head, o.Head())
		closestEnemy = min(closestEnemy, d)
		if d == 1 {
			adjacent = true
		}
		if d <= 2 {
			within2++
		}
	}
	v[21] = float32(closestEnemy)
	v[22] = bool01(adjacent)
	v[23] = float32(within2)

	for i, d := range game.Directions {
		n := head.Move(d)
		for _, o := range b.Opponents() {
			if o.Head() == n && o.Len() < myLen {
				v[24+i] = 1
			}
		}
	}

	heading := game.Up
	if len(you.Body) >= 2 {
		if d, ok := game.DirectionTo(you.Body[1], head); ok {
			heading = d
		}
	}
	v[28+int(heading)] = 1

	c := game.Point{X: w / 2, Y: h / 2}
	v[32] = float32(max(0, 10-game.Manhattan(head, c)))

	contested := 0
	for _, f := range b.Food() {
		if heatmap.Contested(b, f) {
			contested++
		}
	}
	v[33] = float32(contested)
	v[34] = float32(len(b.Snakes()))

	solver := e.Solver
	if solver == nil {
		solver = pathing.NewSolver(0, nil)
	}
	if next, err := solver.Next(b); err == nil {
		v[35] = float32(game.Manhattan(head, next))
	}

	return v
}

// safe reports whether our head can step onto p: in bounds and clear of
// every body segment except our own tail.
func safe(b *game.Board, p game.Point) bool {
	if !b.InBounds(p) {
		return false
	}
	you := b.You()
	for _, o := range b.Opponents() {
		for _, s := range o.Body {
			if s == p {
				return false
			}
		}
	}
	for _, s := range you.Body[:len(you.Body)-1] {
		if s == p {
			return false
		}
	}
	return true
}
