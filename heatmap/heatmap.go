// Package heatmap scores every cell of the board by summing a fixed stack of
// additive layers: food, danger, wall, space, tail and center.
package heatmap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/space"
)

// Weights holds the per-layer constants. Penalties are stored negative.
type Weights struct {
	FoodHungry    int `yaml:"food_hungry"`
	FoodFed       int `yaml:"food_fed"`
	FoodContested int `yaml:"food_contested"`
	HungryBelow   int `yaml:"hungry_below"`
	Body          int `yaml:"body"`
	HeadNeighbor  int `yaml:"head_neighbor"`
	Wall          int `yaml:"wall"`
	InnerRing     int `yaml:"inner_ring"`
	SpaceCap      int `yaml:"space_cap"`
	Tail          int `yaml:"tail"`
	CenterMax     int `yaml:"center_max"`
}

func DefaultWeights() Weights {
	return Weights{
		FoodHungry:    50,
		FoodFed:       20,
		FoodContested: 5,
		HungryBelow:   60,
		Body:          -100,
		HeadNeighbor:  -50,
		Wall:          -20,
		InnerRing:     -5,
		SpaceCap:      50,
		Tail:          20,
		CenterMax:     10,
	}
}

// Heatmap is a dense score grid with the same dimensions as the board.
type Heatmap struct {
	Width  int
	Height int
	cells  []int
}

func newHeatmap(w, h int) *Heatmap {
	return &Heatmap{Width: w, Height: h, cells: make([]int, w*h)}
}

func (m *Heatmap) in(p game.Point) bool {
	return p.X >= 0 && p.X < m.Width && p.Y >= 0 && p.Y < m.Height
}

// At returns the score at p. Off-board cells score 0.
func (m *Heatmap) At(p game.Point) int {
	if !m.in(p) {
		return 0
	}
	return m.cells[p.Y*m.Width+p.X]
}

func (m *Heatmap) add(p game.Point, v int) {
	if !m.in(p) {
		return
	}
	m.cells[p.Y*m.Width+p.X] += v
}

// String renders the grid top row first.
func (m *Heatmap) String() string {
	var sb strings.Builder
	for y := m.Height - 1; y >= 0; y-- {
		for x := 0; x < m.Width; x++ {
			fmt.Fprintf(&sb, "%5d", m.cells[y*m.Width+x])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Builder produces a fresh Heatmap per call. It holds no per-board state and
// is safe for concurrent use.
type Builder struct {
	Weights Weights
	Logger  *slog.Logger
}

func NewBuilder(w Weights, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{Weights: w, Logger: logger}
}

// Build applies every layer in order and returns the summed grid.
func (bl *Builder) Build(b *game.Board, health int) *Heatmap {
	m := newHeatmap(b.Width(), b.Height())

	bl.food(m, b, health)
	bl.danger(m, b)
	bl.walls(m, b)
	bl.space(m, b)
	bl.tail(m, b)
	bl.center(m, b)

	if bl.Logger != nil && bl.Logger.Enabled(context.Background(), slog.LevelDebug) {
		bl.Logger.Debug("heatmap built", "turn", b.Turn(), "health", health, "grid", "\n"+m.String())
	}
	return m
}

// Contested reports whether f is 4-adjacent to any snake's head, ours included.
func Contested(b *game.Board, f game.Point) bool {
	for _, s := range b.Snakes() {
		if game.Manhattan(s.Head(), f) == 1 {
			return true
		}
	}
	return false
}

func (bl *Builder) food(m *Heatmap, b *game.Board, health int) {
	bonus := bl.Weights.FoodFed
	if health < bl.Weights.HungryBelow {
		bonus = bl.Weights.FoodHungry
	}
	for _, f := range b.Food() {
		if Contested(b, f) {
			m.add(f, bl.Weights.FoodContested)
			continue
		}
		m.add(f, bonus)
	}
}

func (bl *Builder) danger(m *Heatmap, b *game.Board) {
	for _, s := range b.Snakes() {
		for _, p := range s.Body {
			m.add(p, bl.Weights.Body)
		}
		for _, n := range b.Neighbors(s.Head()) {
			m.add(n, bl.Weights.HeadNeighbor)
		}
	}
}

// walls penalises each edge line and the line one step inward. Lines overlap
// at corners, so corner cells are penalised once per line they sit on.
func (bl *Builder) walls(m *Heatmap, b *game.Board) {
	w, h := b.Width(), b.Height()
	for x := 0; x < w; x++ {
		m.add(game.Point{X: x, Y: 0}, bl.Weights.Wall)
		m.add(game.Point{X: x, Y: h - 1}, bl.Weights.Wall)
	}
	for y := 0; y < h; y++ {
		m.add(game.Point{X: 0, Y: y}, bl.Weights.Wall)
		m.add(game.Point{X: w - 1, Y: y}, bl.Weights.Wall)
	}
	for x := 0; x < w; x++ {
		m.add(game.Point{X: x, Y: 1}, bl.Weights.InnerRing)
		m.add(game.Point{X: x, Y: h - 2}, bl.Weights.InnerRing)
	}
	for y := 0; y < h; y++ {
		m.add(game.Point{X: 1, Y: y}, bl.Weights.InnerRing)
		m.add(game.Point{X: w - 2, Y: y}, bl.Weights.InnerRing)
	}
}

func (bl *Builder) space(m *Heatmap, b *game.Board) {
	for _, n := range b.Neighbors(b.You().Head()) {
		m.add(n, min(space.FloodFill(b, n), bl.Weights.SpaceCap))
	}
}

func (bl *Builder) tail(m *Heatmap, b *game.Board) {
	m.add(b.You().Tail(), bl.Weights.Tail)
}

func (bl *Builder) center(m *Heatmap, b *game.Board) {
	c := game.Point{X: b.Width() / 2, Y: b.Height() / 2}
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			p := game.Point{X: x, Y: y}
			m.add(p, max(0, bl.Weights.CenterMax-game.Manhattan(p, c)))
		}
	}
}
