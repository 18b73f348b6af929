package rules

import (
	"math/rand"

	"github.com/brensch/snekheat/game"
)

// startCorners picks the near (-1) or far (+1) side on each axis.
var startCorners = [][2]int{{1, 1}, {-1, -1}, {1, -1}, {-1, 1}}

// NewGame places snakes stacked three deep at the standard start positions
// (corners one in from the wall, then mid-edges) and tops up food. The first
// id becomes YouID.
func NewGame(rng *rand.Rand, width, height int, ids []string) *game.GameState {
	state := &game.GameState{Width: width, Height: height}
	if len(ids) > 0 {
		state.YouID = ids[0]
	}

	starts := startPoints(width, height)
	if rng != nil {
		rng.Shuffle(len(starts), func(i, j int) { starts[i], starts[j] = starts[j], starts[i] })
	}

	for i, id := range ids {
		if i >= len(starts) {
			break
		}
		p := starts[i]
		body := make([]game.Point, DefaultStartLength)
		for j := range body {
			body[j] = p
		}
		state.Snakes = append(state.Snakes, game.Snake{ID: id, Health: MaxHealth, Body: body})
	}

	ApplyFoodSettings(state, rng, FoodSettings{MinimumFood: len(state.Snakes), FoodSpawnChance: 0})
	return state
}

func startPoints(width, height int) []game.Point {
	xs := [3]int{1, width / 2, width - 2}
	ys := [3]int{1, height / 2, height - 2}
	pts := make([]game.Point, 0, 8)
	for _, c := range startCorners {
		pts = append(pts, game.Point{X: xs[c[0]+1], Y: ys[c[1]+1]})
	}
	// Mid-edges for 5+ player games.
	pts = append(pts,
		game.Point{X: xs[1], Y: ys[0]},
		game.Point{X: xs[1], Y: ys[2]},
		game.Point{X: xs[0], Y: ys[1]},
		game.Point{X: xs[2], Y: ys[1]},
	)
	return pts
}
