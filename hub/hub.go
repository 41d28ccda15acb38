package hub

import (
	"context"
	"log"

	"github.com/ddnowicki/live-captioning/types"
)

// Hub fans produced messages out to every live viewer. Delivery to a
// viewer whose socket is no longer open is silently skipped, not
// queued, not retried. Per-viewer order equals submission order; there
// is no cross-viewer ordering guarantee.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan types.Message
	done       chan struct{}
}

// NewHub creates an empty Hub. Call Run before registering clients.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan types.Message, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client registry until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				client.Close()
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("viewer %s joined, %d online", client.ID, len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				log.Printf("viewer %s left, %d online", client.ID, len(h.clients))
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				if !client.Alive() {
					continue
				}
				if err := client.Send(message); err != nil {
					log.Printf("send to viewer %s failed: %v", client.ID, err)
					client.Close()
					delete(h.clients, client)
				}
			}
		}
	}
}

// Register adds a viewer to the fan-out set. A no-op once the hub has
// shut down, so late handlers never hang.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a viewer from the fan-out set.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast delivers message to every currently-live viewer.
func (h *Hub) Broadcast(message types.Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}
