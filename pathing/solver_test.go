package pathing

import (
	"errors"
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

func withMe(w, h int, body ...game.Point) *game.GameState {
	return &game.GameState{
		Width: w, Height: h, YouID: "me",
		Snakes: []game.Snake{{ID: "me", Health: 90, Body: body}},
	}
}

func TestRaceTime_FoodAddsOneTurn(t *testing.T) {
	if got := RaceTime(5, 1, false); got != 4 {
		t.Fatalf("RaceTime=%d want=4", got)
	}
	if got := RaceTime(5, 1, true); got != 5 {
		t.Fatalf("RaceTime near food=%d want=5", got)
	}
	// Same segment, same distance: only the snake that might grow still blocks.
	if StillOccupied(3, 2, false, 2) {
		t.Fatalf("segment should have vacated without food")
	}
	if !StillOccupied(3, 2, true, 2) {
		t.Fatalf("segment should still be occupied near food")
	}
	if !StillOccupied(4, 0, false, 4) {
		t.Fatalf("move_time equal to distance counts as occupied")
	}
}

func TestForbidden_OpponentHeadAndRaceTiming(t *testing.T) {
	st := withMe(11, 11, game.Point{X: 5, Y: 5}, game.Point{X: 5, Y: 4}, game.Point{X: 5, Y: 3})
	st.Snakes = append(st.Snakes, game.Snake{ID: "o", Health: 90, Body: []game.Point{{X: 7, Y: 5}, {X: 8, Y: 5}, {X: 9, Y: 5}}})
	f := Forbidden(mustBoard(t, st))

	for _, p := range []game.Point{{X: 0, Y: 4}, {X: 10, Y: 10}, {X: 6, Y: 5}, {X: 7, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}} {
		if !f.Has(p) {
			t.Fatalf("%v should be forbidden, have %v", p, f.Cells())
		}
	}
	for _, p := range []game.Point{{X: 8, Y: 5}, {X: 7, Y: 6}, {X: 5, Y: 5}, {X: 5, Y: 6}} {
		if f.Has(p) {
			t.Fatalf("%v should be open, have %v", p, f.Cells())
		}
	}

	st.Food = []game.Point{{X: 7, Y: 6}}
	f = Forbidden(mustBoard(t, st))
	if !f.Has(game.Point{X: 8, Y: 5}) {
		t.Fatalf("neck should stay occupied when opponent head touches food")
	}
	if f.Has(game.Point{X: 9, Y: 5}) {
		t.Fatalf("tail should vacate even near food")
	}
}

func TestForbidden_ShorterOpponentHeadNeighbourIsOpen(t *testing.T) {
	st := withMe(11, 11, game.Point{X: 5, Y: 5}, game.Point{X: 5, Y: 4}, game.Point{X: 5, Y: 3}, game.Point{X: 5, Y: 2})
	st.Snakes = append(st.Snakes, game.Snake{ID: "o", Health: 90, Body: []game.Point{{X: 7, Y: 5}, {X: 8, Y: 5}}})
	if f := Forbidden(mustBoard(t, st)); f.Has(game.Point{X: 6, Y: 5}) {
		t.Fatalf("cell next to a shorter opponent's head should be open")
	}
}

func TestGoals_FiltersContestedFood(t *testing.T) {
	base := func(oppBody ...game.Point) *game.GameState {
		st := withMe(11, 11, game.Point{X: 5, Y: 5}, game.Point{X: 5, Y: 4}, game.Point{X: 5, Y: 3})
		st.Snakes = append(st.Snakes, game.Snake{ID: "o", Health: 90, Body: oppBody})
		st.Food = []game.Point{{X: 6, Y: 5}, {X: 2, Y: 8}}
		return st
	}

	// Shorter opponent, we are adjacent too: keep.
	if got := Goals(mustBoard(t, base(game.Point{X: 7, Y: 5}, game.Point{X: 8, Y: 5}))); len(got) != 2 {
		t.Fatalf("goals=%v want both", got)
	}
	// Equal length: drop.
	got := Goals(mustBoard(t, base(game.Point{X: 7, Y: 5}, game.Point{X: 8, Y: 5}, game.Point{X: 9, Y: 5})))
	if len(got) != 1 || got[0] != (game.Point{X: 2, Y: 8}) {
		t.Fatalf("goals=%v want=[(2,8)]", got)
	}
	// Shorter opponent but we are two away: drop.
	got = Goals(mustBoard(t, base(game.Point{X: 2, Y: 7}, game.Point{X: 2, Y: 6})))
	if len(got) != 1 || got[0] != (game.Point{X: 6, Y: 5}) {
		t.Fatalf("goals=%v want=[(6,5)]", got)
	}
}

func TestSolver_ElevenByElevenFoodAbove(t *testing.T) {
	st := withMe(11, 11, game.Point{X: 5, Y: 5}, game.Point{X: 5, Y: 4}, game.Point{X: 5, Y: 3})
	st.Food = []game.Point{{X: 5, Y: 6}}

	next, err := NewSolver(0, nil).Next(mustBoard(t, st))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != (game.Point{X: 5, Y: 6}) {
		t.Fatalf("next=%v want=(5,6)", next)
	}
}

func crampedState() *game.GameState {
	st := withMe(11, 11, game.Point{X: 5, Y: 5}, game.Point{X: 5, Y: 4}, game.Point{X: 5, Y: 3})
	// Pocket (3..4, 5..6) sealed off except through (4,5).
	st.Snakes = append(st.Snakes, game.Snake{ID: "o", Health: 90, Body: []game.Point{
		{X: 9, Y: 1}, {X: 5, Y: 6}, {X: 4, Y: 7}, {X: 3, Y: 7}, {X: 2, Y: 6}, {X: 2, Y: 5}, {X: 3, Y: 4}, {X: 4, Y: 4},
	}})
	st.Food = []game.Point{{X: 3, Y: 5}, {X: 8, Y: 5}}
	return st
}

func TestSolver_CrampedShortestPathIsOverridden(t *testing.T) {
	st := crampedState()
	b := mustBoard(t, st)

	plan, err := NewSolver(DefaultMinSpace, nil).Plan(b)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Candidates) != 2 {
		t.Fatalf("candidates=%+v want 2\n%s", plan.Candidates, game.Render(st))
	}
	if c := plan.Candidates[0]; c.Goal != (game.Point{X: 3, Y: 5}) || c.PathLen != 3 || c.Space != 4 {
		t.Fatalf("best candidate=%+v", c)
	}
	if plan.Next != (game.Point{X: 6, Y: 5}) {
		t.Fatalf("next=%v want=(6,5)\n%s", plan.Next, game.Render(st))
	}

	next, err := NewSolver(1, nil).Next(b)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != (game.Point{X: 4, Y: 5}) {
		t.Fatalf("with a tiny threshold next=%v want=(4,5)", next)
	}
}

func TestSolver_NoFoodFallsBackToRoomiestNeighbour(t *testing.T) {
	st := withMe(11, 11, game.Point{X: 5, Y: 5}, game.Point{X: 5, Y: 4}, game.Point{X: 5, Y: 3})
	plan, err := NewSolver(0, nil).Plan(mustBoard(t, st))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !plan.Fallback || plan.Next != (game.Point{X: 5, Y: 6}) {
		t.Fatalf("plan=%+v want fallback to (5,6)", plan)
	}
}

func TestSolver_HeadOnEdgeOnlyFallsBack(t *testing.T) {
	st := withMe(11, 11, game.Point{X: 0, Y: 5}, game.Point{X: 0, Y: 4})
	st.Food = []game.Point{{X: 3, Y: 5}}

	plan, err := NewSolver(0, nil).Plan(mustBoard(t, st))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !plan.Fallback || plan.Next != (game.Point{X: 1, Y: 5}) {
		t.Fatalf("plan=%+v want fallback to (1,5)", plan)
	}
}

func TestSolver_BoxedReturnsErrNoPath(t *testing.T) {
	st := withMe(11, 11, game.Point{X: 0, Y: 0}, game.Point{X: 0, Y: 1})
	st.Food = []game.Point{{X: 5, Y: 5}}

	if _, err := NewSolver(0, nil).Next(mustBoard(t, st)); !errors.Is(err, ErrNoPath) {
		t.Fatalf("err=%v want=%v", err, ErrNoPath)
	}
}
