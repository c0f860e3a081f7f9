package server

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"studyhall/internal/flashcards"
	"studyhall/internal/logging"
)

const (
	hubSendBuffer = 16
	hubWriteWait  = 10 * time.Second
	hubPongWait   = 60 * time.Second
	hubPingPeriod = hubPongWait * 9 / 10
)

// Hub fans document status events out to each owner's websocket subscribers.
type Hub struct {
	mu       sync.Mutex
	subs     map[string]map[*subscriber]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *Metrics
}

type subscriber struct {
	send chan flashcards.StatusEvent
}

// NewHub builds a hub accepting browser origins from allowedOrigins ("*"
// allows any). Requests without an Origin header are always accepted.
func NewHub(allowedOrigins []string, logger *slog.Logger, metrics *Metrics) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &Hub{
		subs:    make(map[string]map[*subscriber]struct{}),
		logger:  logger.With(logging.String(logging.FieldComponent, "status-hub")),
		metrics: metrics,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Publish delivers event to every subscriber of owner. Slow subscribers drop
// events rather than block the publisher.
func (h *Hub) Publish(owner string, event flashcards.StatusEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[owner] {
		select {
		case sub.send <- event:
		default:
			h.logger.Debug("dropping status event for slow subscriber",
				logging.DocumentID(event.DocumentID))
		}
	}
}

// Subscribers returns the number of open connections for owner.
func (h *Hub) Subscribers(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for owner, subs := range h.subs {
		for sub := range subs {
			close(sub.send)
			h.metrics.subscribers(-1)
		}
		delete(h.subs, owner)
	}
}

func (h *Hub) add(owner string) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub := &subscriber{send: make(chan flashcards.StatusEvent, hubSendBuffer)}
	if h.subs[owner] == nil {
		h.subs[owner] = make(map[*subscriber]struct{})
	}
	h.subs[owner][sub] = struct{}{}
	h.metrics.subscribers(1)
	return sub
}

func (h *Hub) remove(owner string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subs[owner]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.subs, owner)
	}
	h.metrics.subscribers(-1)
}

// serve upgrades the request and streams owner's events until either side
// closes.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, owner string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	sub := h.add(owner)
	defer h.remove(owner, sub)
	logger := logging.WithContext(r.Context(), h.logger)
	logger.Debug("status subscriber connected")

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(hubPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(hubPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(hubPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-readerDone:
			logger.Debug("status subscriber disconnected")
			return
		case event, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
