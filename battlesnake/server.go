package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brensch/snekheat/api"
	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/features"
	"github.com/brensch/snekheat/game"
	"github.com/brensch/snekheat/session"
	"github.com/brensch/snekheat/store"
	"github.com/brensch/snekheat/watch"
)

const (
	DefaultMoveTimeout = 500 * time.Millisecond
	archiveSource      = "live"
)

// Server answers the Battlesnake API. Archive and Hub are optional.
type Server struct {
	Engine    *arbiter.Engine
	Extractor *features.Extractor
	Archive   *store.Archive
	Hub       *watch.Hub
	Tracker   *session.Tracker
	Info      api.InfoResponse

	MoveTimeout time.Duration
	Overhead    time.Duration
	MinCompute  time.Duration

	Logger *slog.Logger
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// Handler wires every route onto a fresh mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/move", s.handleMove)
	mux.HandleFunc("/end", s.handleEnd)
	mux.Handle("/metrics", promhttp.Handler())
	if s.Hub != nil {
		mux.Handle("/watch", s.Hub)
	}
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, s.Info)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req api.GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.Tracker != nil {
		s.Tracker.Start(req.Game.ID, req.State())
	}
	s.logger().Info("game started", "game", req.Game.ID, "ruleset", req.Game.Ruleset.Name, "you", req.You.Name, "timeout_ms", req.Game.Timeout)
	w.WriteHeader(http.StatusOK)
}

// computeBudget is the game timeout minus overhead, never below MinCompute.
func (s *Server) computeBudget(gameTimeoutMs int) time.Duration {
	timeout := s.MoveTimeout
	if timeout <= 0 {
		timeout = DefaultMoveTimeout
	}
	if gameTimeoutMs > 0 {
		timeout = time.Duration(gameTimeoutMs) * time.Millisecond
	}
	budget := timeout - s.Overhead
	if budget < s.MinCompute {
		budget = s.MinCompute
	}
	return budget
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req api.GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An unreadable body still gets a move; the engine's own rejection
		// path would pick the same one.
		s.logger().Warn("undecodable move request", "error", err)
		writeJSON(w, api.MoveResponse{Move: game.Up.String()})
		return
	}

	state := req.State()

	ctx, cancel := context.WithTimeout(r.Context(), s.computeBudget(req.Game.Timeout))
	defer cancel()
	d := s.Engine.Decide(ctx, state)

	writeJSON(w, api.MoveResponse{Move: d.Move.String()})

	s.logger().Debug("move",
		"game", req.Game.ID,
		"turn", req.Turn,
		"move", d.Move.String(),
		"tier", d.Tier,
		"overridden", d.Overridden,
		"elapsed", d.Elapsed,
	)
	s.record(req.Game.ID, state, d)
}

// record feeds the collaborators after the response is written.
func (s *Server) record(gameID string, state *game.GameState, d arbiter.Decision) {
	if s.Tracker != nil {
		s.Tracker.Observe(gameID, state, d)
	}
	if s.Hub != nil {
		s.Hub.Publish(watch.NewEvent(gameID, state, d))
	}
	if s.Archive != nil {
		row, err := store.NewDecisionRow(gameID, archiveSource, state, d, s.Extractor)
		if err != nil {
			s.logger().Warn("skipping archive row", "game", gameID, "error", err)
			return
		}
		s.Archive.Record(row)
	}
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req api.GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	youAlive := false
	for _, snake := range req.Board.Snakes {
		if snake.ID == req.You.ID {
			youAlive = true
			break
		}
	}
	result := "lost"
	if youAlive {
		result = "won"
	} else if len(req.Board.Snakes) == 0 {
		result = "draw"
	}

	attrs := []any{"game", req.Game.ID, "turn", req.Turn, "result", result}
	if s.Tracker != nil {
		if sum, ok := s.Tracker.End(req.Game.ID, req.State()); ok {
			attrs = append(attrs, "overrides", sum.Overrides, "tiers", sum.Tiers)
		}
	}
	if s.Archive != nil {
		if err := s.Archive.EndGame(req.Game.ID); err != nil {
			s.logger().Error("archive game", "game", req.Game.ID, "error", err)
		}
	}
	s.logger().Info("game over", attrs...)
	w.WriteHeader(http.StatusOK)
}
