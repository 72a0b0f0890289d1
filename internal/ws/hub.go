package ws

import (
	"context"
	"encoding/json"
	"sync"

	"rps_arena/internal/events"
	"rps_arena/internal/logger"
)

// Hub tracks websocket watchers per game and pushes committed game events
// to them. It is an events.Publisher.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.watchers[c.GameID]
	if !ok {
		set = make(map[*Client]struct{})
		h.watchers[c.GameID] = set
	}
	set[c] = struct{}{}
	wsWatchers.Inc()
	logger.Debug("ws watcher registered", "game_id", c.GameID, "identity", string(c.Identity), "watchers", len(set))
}

// Unregister removes c and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.watchers[c.GameID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	wsWatchers.Dec()
	if len(set) == 0 {
		delete(h.watchers, c.GameID)
	}
}

// Watchers returns how many clients currently watch a game.
func (h *Hub) Watchers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[gameID])
}

// deliver queues msg for c unless c was already unregistered or its queue is full.
func (h *Hub) deliver(c *Client, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.watchers[c.GameID][c]; !ok {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.watchers[ev.GameID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// a watcher that cannot keep up is dropped; it can reconnect and refetch the game
	for _, c := range slow {
		logger.Warn("dropping slow ws watcher", "game_id", c.GameID, "identity", string(c.Identity))
		h.Unregister(c)
	}
	return nil
}
