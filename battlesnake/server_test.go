package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/snekheat/api"
	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/session"
	"github.com/brensch/snekheat/store"
	"github.com/brensch/snekheat/watch"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	archive, err := store.OpenArchive(store.ArchiveOptions{Dir: dir, FlushGames: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = archive.Close() })

	return &Server{
		Engine:     arbiter.New(arbiter.DefaultOptions()),
		Archive:    archive,
		Hub:        watch.NewHub(8, nil),
		Tracker:    session.NewTracker(nil),
		Info:       api.InfoResponse{APIVersion: "1", Author: "test"},
		Overhead:   200 * time.Millisecond,
		MinCompute: 50 * time.Millisecond,
	}, dir
}

func moveRequest(gameID string, turn int) api.GameRequest {
	me := api.Battlesnake{
		ID: "me", Name: "me", Health: 90, Length: 3,
		Body: []api.Coord{{X: 5, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 3}},
		Head: api.Coord{X: 5, Y: 5},
	}
	return api.GameRequest{
		Game: api.Game{ID: gameID, Timeout: 500},
		Turn: turn,
		Board: api.Board{
			Width: 11, Height: 11,
			Food:   []api.Coord{{X: 5, Y: 6}},
			Snakes: []api.Battlesnake{me},
		},
		You: me,
	}
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, &buf))
	return rec
}

func decodeMove(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.MoveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Move
}

func TestIndex(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var info api.InfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, "test", info.Author)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMove_FullGameLifecycle(t *testing.T) {
	srv, dir := newTestServer(t)
	h := srv.Handler()

	events, cancel := srv.Hub.Subscribe("g1")
	defer cancel()

	require.Equal(t, http.StatusOK, post(t, h, "/start", moveRequest("g1", 0)).Code)
	assert.Equal(t, "up", decodeMove(t, post(t, h, "/move", moveRequest("g1", 0))))

	ev := <-events
	assert.Equal(t, "up", ev.Move)
	assert.Equal(t, arbiter.TierHeatmap, ev.Tier)
	assert.Equal(t, 1, srv.Archive.Pending("g1"))

	sum, ok := srv.Tracker.Get("g1")
	require.True(t, ok)
	assert.Equal(t, 1, sum.Turns)

	require.Equal(t, http.StatusOK, post(t, h, "/end", moveRequest("g1", 1)).Code)

	files, err := filepath.Glob(filepath.Join(dir, "decisions_*.parquet"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	rows, err := store.ReadDecisions(files[0])
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "up", rows[0].Move)
	assert.Equal(t, "live", rows[0].Source)

	_, ok = srv.Tracker.Get("g1")
	assert.False(t, ok)
}

func TestMove_MalformedStillAnswers(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := moveRequest("bad", 3)
	req.Board.Width = 0
	assert.Equal(t, "up", decodeMove(t, post(t, h, "/move", req)))

	sum, ok := srv.Tracker.Get("bad")
	require.True(t, ok)
	assert.Equal(t, 1, sum.Malformed)

	assert.Equal(t, "up", decodeMove(t, post(t, h, "/move", "{not json")))
}

func TestMove_BoxedHead(t *testing.T) {
	srv, _ := newTestServer(t)

	me := api.Battlesnake{
		ID: "me", Health: 90,
		Body: []api.Coord{{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}, {X: 3, Y: 2}},
	}
	other := api.Battlesnake{
		ID: "o", Health: 90,
		Body: []api.Coord{{X: 1, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}},
	}
	req := api.GameRequest{
		Game:  api.Game{ID: "boxed"},
		Board: api.Board{Width: 7, Height: 7, Snakes: []api.Battlesnake{me, other}},
		You:   me,
	}
	assert.Equal(t, "right", decodeMove(t, post(t, srv.Handler(), "/move", req)))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	decodeMove(t, post(t, h, "/move", moveRequest("m", 0)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "snekheat_arbiter_decisions_total")
}

func TestComputeBudget(t *testing.T) {
	srv := &Server{Overhead: 200 * time.Millisecond, MinCompute: 50 * time.Millisecond}
	assert.Equal(t, 300*time.Millisecond, srv.computeBudget(500))
	assert.Equal(t, 300*time.Millisecond, srv.computeBudget(0))
	assert.Equal(t, 50*time.Millisecond, srv.computeBudget(100))
}
