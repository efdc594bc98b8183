package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a realtime notification pushed to connected clients.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub tracks connected clients grouped by the user they belong to. A user
// may hold several connections at once.
type Hub struct {
	mu     sync.RWMutex
	users  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		users:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	conns, ok := h.users[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.users[c.userID] = conns
	}
	conns[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes c and closes its send channel. Repeated calls are no-ops.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.users, c.userID)
	}
}

// Broadcast sends msg to every connected client.
func (h *Hub) Broadcast(msg Message) {
	data, ok := h.encode(msg)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.users {
		h.deliver(conns, data, msg.Type)
	}
}

// BroadcastTo sends msg to the connections of the listed users only.
// Duplicate ids receive a single copy.
func (h *Hub) BroadcastTo(userIDs []int64, msg Message) {
	if len(userIDs) == 0 {
		return
	}
	data, ok := h.encode(msg)
	if !ok {
		return
	}
	seen := make(map[int64]struct{}, len(userIDs))
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		h.deliver(h.users[id], data, msg.Type)
	}
}

func (h *Hub) encode(msg Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "type", msg.Type, "error", err)
		return nil, false
	}
	return data, true
}

// deliver never blocks; a client whose buffer is full misses the message.
func (h *Hub) deliver(conns map[*Client]struct{}, data []byte, msgType string) {
	for c := range conns {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("client buffer full, dropping message", "user_id", c.userID, "type", msgType)
		}
	}
}

// ClientCount reports open connections across all users.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.users {
		n += len(conns)
	}
	return n
}
