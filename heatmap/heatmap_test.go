package heatmap

import (
	"reflect"
	"testing"

	"github.com/brensch/snekheat/game"
)

func mustBoard(t *testing.T, st *game.GameState) *game.Board {
	t.Helper()
	b, err := game.NewBoard(st)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return b
}

func centreState() *game.GameState {
	return &game.GameState{
		Width:  11,
		Height: 11,
		YouID:  "me",
		Snakes: []game.Snake{{ID: "me", Health: 100, Body: []game.Point{{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}}}},
		Food:   []game.Point{{X: 5, Y: 6}},
	}
}

func foodOnly() Weights {
	return Weights{FoodHungry: 50, FoodFed: 20, FoodContested: 5, HungryBelow: 60}
}

func TestBuild_ElevenByElevenPrefersFood(t *testing.T) {
	st := centreState()
	b := mustBoard(t, st)
	m := NewBuilder(DefaultWeights(), nil).Build(b, 100)

	up := m.At(game.Point{X: 5, Y: 6})
	for _, p := range []game.Point{{X: 4, Y: 5}, {X: 6, Y: 5}, {X: 5, Y: 4}} {
		if m.At(p) >= up {
			t.Fatalf("neighbour %v=%d not below up=%d\n%s\n%s", p, m.At(p), up, game.Render(st), m)
		}
	}
	// contested food 5, head neighbour -50, capped space 50, center 9
	if up != 14 {
		t.Fatalf("up=%d want=14\n%s", up, m)
	}
}

func TestBuild_IsPure(t *testing.T) {
	st := centreState()
	st.Snakes = append(st.Snakes, game.Snake{ID: "o", Health: 50, Body: []game.Point{{X: 8, Y: 8}, {X: 8, Y: 7}}})
	b := mustBoard(t, st)
	before := b.State()

	bl := NewBuilder(DefaultWeights(), nil)
	m1 := bl.Build(b, 40)
	m2 := bl.Build(b, 40)

	if !reflect.DeepEqual(m1, m2) {
		t.Fatalf("two builds differ\n%s\n%s", m1, m2)
	}
	if m1 == m2 {
		t.Fatalf("builds must return a fresh grid")
	}
	if !reflect.DeepEqual(before, b.State()) {
		t.Fatalf("board changed by Build")
	}
	if m1.Width != b.Width() || m1.Height != b.Height() {
		t.Fatalf("dims=%dx%d want=%dx%d", m1.Width, m1.Height, b.Width(), b.Height())
	}
}

func TestFoodLayer_ContestedGetsFlatBonus(t *testing.T) {
	st := &game.GameState{
		Width:  11,
		Height: 11,
		YouID:  "me",
		Snakes: []game.Snake{
			{ID: "me", Health: 90, Body: []game.Point{{X: 5, Y: 2}, {X: 5, Y: 1}}},
			{ID: "o", Health: 90, Body: []game.Point{{X: 3, Y: 6}, {X: 3, Y: 7}}},
		},
		// Both five steps from our head; (3,5) touches the enemy head.
		Food: []game.Point{{X: 3, Y: 5}, {X: 7, Y: 5}},
	}
	b := mustBoard(t, st)
	bl := NewBuilder(foodOnly(), nil)

	fed := bl.Build(b, 90)
	if got := fed.At(game.Point{X: 3, Y: 5}); got != 5 {
		t.Fatalf("contested=%d want=5", got)
	}
	if got := fed.At(game.Point{X: 7, Y: 5}); got != 20 {
		t.Fatalf("uncontested fed=%d want=20", got)
	}

	hungry := bl.Build(b, 30)
	if got := hungry.At(game.Point{X: 3, Y: 5}); got != 5 {
		t.Fatalf("contested hungry=%d want=5", got)
	}
	if got := hungry.At(game.Point{X: 7, Y: 5}); got != 50 {
		t.Fatalf("uncontested hungry=%d want=50", got)
	}
}

func TestFoodLayer_OwnHeadContests(t *testing.T) {
	b := mustBoard(t, centreState())
	if got := NewBuilder(foodOnly(), nil).Build(b, 10).At(game.Point{X: 5, Y: 6}); got != 5 {
		t.Fatalf("food next to our head=%d want=5", got)
	}
}

func TestWallLayer_Rings(t *testing.T) {
	st := &game.GameState{
		Width: 5, Height: 5, YouID: "me",
		Snakes: []game.Snake{{ID: "me", Health: 100, Body: []game.Point{{X: 2, Y: 2}}}},
	}
	m := NewBuilder(Weights{Wall: -20, InnerRing: -5}, nil).Build(mustBoard(t, st), 100)

	cases := map[game.Point]int{
		{X: 0, Y: 0}: -40,
		{X: 0, Y: 1}: -25,
		{X: 2, Y: 0}: -20,
		{X: 1, Y: 1}: -10,
		{X: 1, Y: 2}: -5,
		{X: 2, Y: 2}: 0,
	}
	for p, want := range cases {
		if got := m.At(p); got != want {
			t.Fatalf("wall at %v=%d want=%d\n%s", p, got, want, m)
		}
	}
}

func TestTailAndCenterLayers(t *testing.T) {
	st := &game.GameState{
		Width: 7, Height: 7, YouID: "me",
		Snakes: []game.Snake{{ID: "me", Health: 100, Body: []game.Point{{X: 3, Y: 3}, {X: 2, Y: 3}, {X: 1, Y: 3}}}},
	}
	m := NewBuilder(Weights{Tail: 20, CenterMax: 10}, nil).Build(mustBoard(t, st), 100)

	if got := m.At(game.Point{X: 1, Y: 3}); got != 20+8 {
		t.Fatalf("tail=%d want=28", got)
	}
	if got := m.At(game.Point{X: 3, Y: 3}); got != 10 {
		t.Fatalf("center=%d want=10", got)
	}
	if got := m.At(game.Point{X: 0, Y: 0}); got != 4 {
		t.Fatalf("corner=%d want=4", got)
	}
}
