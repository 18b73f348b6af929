package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/game"
)

func frame(turn int, snakes ...game.Snake) *game.GameState {
	return &game.GameState{Width: 11, Height: 11, YouID: "me", Turn: turn, Snakes: snakes}
}

func snake(id string, body ...game.Point) game.Snake {
	return game.Snake{ID: id, Health: 90, Body: body}
}

func TestTracker_ObserveCountsGrowthAndEliminations(t *testing.T) {
	tr := NewTracker(nil)

	t0 := frame(0,
		snake("me", game.Point{X: 5, Y: 5}, game.Point{X: 5, Y: 4}, game.Point{X: 5, Y: 3}),
		snake("o", game.Point{X: 1, Y: 1}, game.Point{X: 1, Y: 2}, game.Point{X: 1, Y: 3}),
	)
	tr.Start("g1", t0)
	tr.Observe("g1", t0, arbiter.Decision{Move: game.Up, Tier: arbiter.TierHeatmap, Elapsed: time.Millisecond})

	// We ate: the server reports length 4 with the tail stacked.
	me := snake("me", game.Point{X: 5, Y: 6}, game.Point{X: 5, Y: 5}, game.Point{X: 5, Y: 4}, game.Point{X: 5, Y: 4})
	me.Length = 4
	t1 := frame(1, me,
		snake("o", game.Point{X: 1, Y: 0}, game.Point{X: 1, Y: 1}, game.Point{X: 1, Y: 2}),
	)
	tr.Observe("g1", t1, arbiter.Decision{Move: game.Up, Tier: arbiter.TierPath, Overridden: true, Elapsed: 3 * time.Millisecond})

	// Opponent gone.
	t2 := frame(2, snake("me", game.Point{X: 5, Y: 7}, game.Point{X: 5, Y: 6}, game.Point{X: 5, Y: 5}, game.Point{X: 5, Y: 4}))
	tr.Observe("g1", t2, arbiter.Decision{Move: game.Up, Tier: arbiter.TierHeatmap})

	sum, ok := tr.Get("g1")
	require.True(t, ok)
	assert.Equal(t, 3, sum.Turns)
	assert.Equal(t, 2, sum.LastTurn)
	assert.Equal(t, 1, sum.OurGrowth)
	assert.Equal(t, 1, sum.Growth)
	assert.Equal(t, []string{"o"}, sum.Eliminated)
	assert.Equal(t, 1, sum.Overrides)
	assert.Equal(t, 3*time.Millisecond, sum.MaxLatency)
	assert.Equal(t, map[string]int{arbiter.TierHeatmap: 2, arbiter.TierPath: 1}, sum.Tiers)
	assert.Equal(t, []string{arbiter.TierHeatmap, arbiter.TierPath}, sum.TierOrder())
	assert.True(t, sum.Alive)
}

func TestTracker_ObserveWithoutStart(t *testing.T) {
	tr := NewTracker(nil)
	st := frame(7, snake("me", game.Point{X: 2, Y: 2}))
	tr.Observe("late", st, arbiter.Decision{Tier: arbiter.TierMalformed})

	sum, ok := tr.Get("late")
	require.True(t, ok)
	assert.Equal(t, 7, sum.LastTurn)
	assert.Equal(t, 1, sum.Malformed)
	assert.Equal(t, []string{"late"}, tr.Active())
}

func TestTracker_EndRemovesGame(t *testing.T) {
	tr := NewTracker(nil)
	st := frame(0, snake("me", game.Point{X: 2, Y: 2}))
	tr.Start("g", st)

	final := frame(12, snake("other", game.Point{X: 0, Y: 0}))
	sum, ok := tr.End("g", final)
	require.True(t, ok)
	assert.False(t, sum.Alive)
	assert.Equal(t, 12, sum.LastTurn)

	_, ok = tr.Get("g")
	assert.False(t, ok)
	_, ok = tr.End("g", final)
	assert.False(t, ok)
	assert.Empty(t, tr.Active())
}

func TestTracker_SummaryIsACopy(t *testing.T) {
	tr := NewTracker(nil)
	tr.Observe("g", frame(1, snake("me", game.Point{X: 1, Y: 1})), arbiter.Decision{Tier: arbiter.TierDefault})

	sum, _ := tr.Get("g")
	sum.Tiers[arbiter.TierDefault] = 99

	again, _ := tr.Get("g")
	assert.Equal(t, 1, again.Tiers[arbiter.TierDefault])
}
