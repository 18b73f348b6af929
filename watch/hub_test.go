package watch

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/game"
)

func TestHub_PublishFiltersByGame(t *testing.T) {
	h := NewHub(4, nil)
	all, cancelAll := h.Subscribe("")
	defer cancelAll()
	one, cancelOne := h.Subscribe("g1")
	defer cancelOne()

	h.Publish(Event{Game: "g2", Turn: 1})
	h.Publish(Event{Game: "g1", Turn: 2})

	assert.Equal(t, 1, (<-all).Turn)
	assert.Equal(t, 2, (<-all).Turn)
	assert.Equal(t, 2, (<-one).Turn)
	assert.Len(t, one, 0)
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	h := NewHub(1, nil)
	ch, cancel := h.Subscribe("")

	h.Publish(Event{Turn: 1})
	h.Publish(Event{Turn: 2})

	assert.Equal(t, 0, h.Subscribers())
	ev, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, 1, ev.Turn)
	_, ok = <-ch
	assert.False(t, ok)

	cancel()
}

func TestNewEvent(t *testing.T) {
	st := &game.GameState{
		Width: 3, Height: 3, YouID: "me", Turn: 4,
		Snakes: []game.Snake{{ID: "me", Body: []game.Point{{X: 1, Y: 1}}}},
	}
	d := arbiter.Decision{
		Move: game.Left, Proposed: game.Up, Tier: arbiter.TierPath, Overridden: true,
		Elapsed: 2500 * time.Microsecond,
		Trace: []arbiter.Attempt{
			{Tier: arbiter.TierHeatmap, Err: arbiter.ErrNoMove},
			{Tier: arbiter.TierPath, Move: game.Up},
		},
	}
	ev := NewEvent("g", st, d)
	assert.Equal(t, "left", ev.Move)
	assert.Equal(t, "up", ev.Proposed)
	assert.Equal(t, 4, ev.Turn)
	assert.InDelta(t, 2.5, ev.ElapsedMs, 1e-9)
	require.Len(t, ev.Trace, 2)
	assert.True(t, strings.HasPrefix(ev.Trace[0], "heatmap: "))
	assert.Equal(t, "path: up", ev.Trace[1])
	assert.NotEmpty(t, ev.Board)
}

func TestHub_ServeHTTP(t *testing.T) {
	h := NewHub(8, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?game=g1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	h.Publish(Event{Game: "other", Turn: 1})
	h.Publish(Event{Game: "g1", Turn: 9, Move: "down"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, 9, got.Turn)
	assert.Equal(t, "down", got.Move)

	conn.Close()
	require.Eventually(t, func() bool { return h.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
