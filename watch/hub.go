// Package watch streams live decisions to websocket subscribers.
package watch

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brensch/snekheat/arbiter"
	"github.com/brensch/snekheat/game"
)

const (
	DefaultBuffer = 64
	writeWait     = 2 * time.Second
)

// Event is one decision as published to watchers.
type Event struct {
	Game       string    `json:"game"`
	Turn       int       `json:"turn"`
	Move       string    `json:"move"`
	Proposed   string    `json:"proposed"`
	Tier       string    `json:"tier"`
	Overridden bool      `json:"overridden"`
	ElapsedMs  float64   `json:"elapsed_ms"`
	Trace      []string  `json:"trace,omitempty"`
	Board      string    `json:"board,omitempty"`
	At         time.Time `json:"at"`
}

// NewEvent summarises a decision for the feed.
func NewEvent(gameID string, state *game.GameState, d arbiter.Decision) Event {
	ev := Event{
		Game:       gameID,
		Move:       d.Move.String(),
		Proposed:   d.Proposed.String(),
		Tier:       d.Tier,
		Overridden: d.Overridden,
		ElapsedMs:  float64(d.Elapsed.Microseconds()) / 1000,
		At:         time.Now(),
	}
	for _, a := range d.Trace {
		if a.Err != nil {
			ev.Trace = append(ev.Trace, a.Tier+": "+a.Err.Error())
		} else {
			ev.Trace = append(ev.Trace, a.Tier+": "+a.Move.String())
		}
	}
	if state != nil {
		ev.Turn = state.Turn
		if state.Width > 0 && state.Height > 0 {
			ev.Board = game.Render(state)
		}
	}
	return ev
}

type subscriber struct {
	id   string
	game string
	ch   chan Event
}

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full is dropped.
type Hub struct {
	mu       sync.Mutex
	subs     map[string]*subscriber
	buffer   int
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		subs:   make(map[string]*subscriber),
		buffer: buffer,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe registers a listener. An empty gameID receives every game.
// The returned cancel func is safe to call more than once.
func (h *Hub) Subscribe(gameID string) (<-chan Event, func()) {
	s := &subscriber{id: uuid.NewString(), game: gameID, ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	h.subs[s.id] = s
	h.mu.Unlock()

	return s.ch, func() { h.remove(s.id) }
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
	}
}

func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.subs {
		if s.game != "" && s.game != ev.Game {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			h.logger.Warn("dropping slow watcher", "subscriber", id)
			delete(h.subs, id)
			close(s.ch)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP upgrades to a websocket and streams events as JSON. The optional
// game query parameter filters to one game.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()

	events, cancel := h.Subscribe(r.URL.Query().Get("game"))
	defer cancel()
	h.logger.Info("watcher connected", "remote", r.RemoteAddr)

	// Watchers never send anything meaningful; reading only surfaces the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"),
					time.Now().Add(writeWait))
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(ev); err != nil {
				h.logger.Debug("watcher write failed", "error", err)
				return
			}
		case <-closed:
			h.logger.Info("watcher disconnected", "remote", r.RemoteAddr)
			return
		}
	}
}
