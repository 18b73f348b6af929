package game

import "testing"

func TestSnakeAdvance_NoGrowthDropsTail(t *testing.T) {
	s := Snake{ID: "a", Body: []Point{{2, 2}, {2, 1}, {2, 0}}, Length: 3}
	s.Advance(Point{2, 3}, 3)

	want := []Point{{2, 3}, {2, 2}, {2, 1}}
	if len(s.Body) != len(want) {
		t.Fatalf("body=%v want=%v", s.Body, want)
	}
	for i := range want {
		if s.Body[i] != want[i] {
			t.Fatalf("body=%v want=%v", s.Body, want)
		}
	}
}

func TestSnakeAdvance_GrowthKeepsTail(t *testing.T) {
	s := Snake{ID: "a", Body: []Point{{2, 2}, {2, 1}, {2, 0}}, Length: 3}
	s.Advance(Point{3, 2}, 4)

	if len(s.Body) != 4 || s.Tail() != (Point{2, 0}) {
		t.Fatalf("body=%v want 4 segments ending at (2,0)", s.Body)
	}
	if s.Len() != 4 {
		t.Fatalf("Len=%d want=4", s.Len())
	}
}

func TestGameStateAdvance_TracksGrowthAndRemoval(t *testing.T) {
	cur := &GameState{
		Width: 11, Height: 11, YouID: "me", Turn: 1,
		Snakes: []Snake{
			{ID: "me", Health: 99, Body: []Point{{1, 1}, {1, 0}, {0, 0}}, Length: 3},
			{ID: "gone", Health: 99, Body: []Point{{9, 9}, {9, 8}, {9, 7}}, Length: 3},
		},
	}
	next := &GameState{
		Width: 11, Height: 11, YouID: "me", Turn: 2,
		Snakes: []Snake{
			{ID: "me", Health: 100, Body: []Point{{1, 2}, {1, 1}, {1, 0}, {1, 0}}, Length: 4},
		},
		Food: []Point{{4, 4}},
	}

	grew, removed := cur.Advance(next)
	if len(grew) != 1 || grew[0] != "me" {
		t.Fatalf("grew=%v want=[me]", grew)
	}
	if len(removed) != 1 || removed[0] != "gone" {
		t.Fatalf("removed=%v want=[gone]", removed)
	}
	if cur.Turn != 2 || len(cur.Snakes) != 1 || cur.Snakes[0].Health != 100 {
		t.Fatalf("unexpected state after advance:\n%s", Render(cur))
	}
	if cur.Snakes[0].Head() != (Point{1, 2}) {
		t.Fatalf("head=%v want=(1,2)", cur.Snakes[0].Head())
	}
	if len(cur.Food) != 1 || cur.Food[0] != (Point{4, 4}) {
		t.Fatalf("food=%v", cur.Food)
	}
}

func TestGameStateAdvance_TurnZeroIsNoop(t *testing.T) {
	cur := &GameState{Width: 3, Height: 3, YouID: "me", Snakes: []Snake{{ID: "me", Body: []Point{{1, 1}}}}}
	grew, removed := cur.Advance(&GameState{Turn: 0})
	if grew != nil || removed != nil || len(cur.Snakes) != 1 {
		t.Fatalf("turn 0 advance changed state")
	}
}
