package ws

import (
	"encoding/json"
	"sync"

	"wyn/internal/models"
)

// Client is one WebSocket connection tagged with its principal.
type Client struct {
	PrincipalID   uint
	PrincipalType string
	Send          chan []byte
	mu            sync.Mutex
	closed        bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// trySend queues data for the writer goroutine. Returns false for closed or
// saturated clients; never blocks and never sends on a closed channel.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Room is one conversation, keyed by its request.
type Room struct {
	RequestID uint
	mu        sync.RWMutex
	clients   map[*Client]struct{}
}

func newRoom(requestID uint) *Room {
	return &Room{RequestID: requestID, clients: make(map[*Client]struct{})}
}

func (r *Room) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

func (r *Room) Leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
}

func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast fans a payload out to everyone in the room except the sender.
// Slow consumers are skipped rather than blocked on.
func (r *Room) Broadcast(from *Client, payload interface{}) {
	data, _ := json.Marshal(payload)
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		if c != from {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

// Hub holds the conversation rooms by request ID.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]*Room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[uint]*Room)}
}

func (h *Hub) GetOrCreateRoom(requestID uint) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[requestID]; ok {
		return r
	}
	r := newRoom(requestID)
	h.rooms[requestID] = r
	return r
}

func (h *Hub) GetRoom(requestID uint) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[requestID]
}

func (h *Hub) RemoveRoom(requestID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, requestID)
}

// Publish pushes a message persisted over HTTP into the conversation's room,
// if anyone is connected.
func (h *Hub) Publish(requestID uint, msg *models.ChatMessage) {
	room := h.GetRoom(requestID)
	if room == nil {
		return
	}
	room.Broadcast(nil, messagePayload(msg))
}

func messagePayload(m *models.ChatMessage) map[string]interface{} {
	return map[string]interface{}{
		"type":        "message",
		"id":          m.ID,
		"request_id":  m.RequestID,
		"sender_id":   m.SenderID,
		"sender_type": m.SenderType,
		"sender_name": m.SenderName,
		"content":     m.Content,
		"sent_at":     m.SentAt,
	}
}
