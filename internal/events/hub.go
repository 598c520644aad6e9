package events

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Envelope is the wire shape of every pushed event.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	SentAt  time.Time   `json:"sentAt"`
}

// Hub fans agent events out to every connected UI. Clients are pure
// subscribers; the agent never waits for them.
type Hub struct {
	// Registered clients map: ClientID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Outbound event frames
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// a reconnecting client replaces its old connection
			if old, ok := h.clients[client.ID]; ok {
				close(old.send)
			}
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("📱 UI connected: %s", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("📴 UI disconnected: %s", client.ID)

		case frame := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// buffer full, the client is not keeping up; it will
					// catch up from /api/status on reconnect
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues one event for every connected client. It never blocks: with
// no hub loop draining, or a burst filling the buffer, the event is dropped.
func (h *Hub) Publish(event string, payload interface{}) {
	frame, err := json.Marshal(Envelope{Type: event, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		log.Printf("⚠️ Could not encode event %q: %v", event, err)
		return
	}
	select {
	case h.broadcast <- frame:
	default:
	}
}

// Clients reports how many UIs are connected.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
