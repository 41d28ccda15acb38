package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/ddnowicki/live-captioning/types"
)

// Client wraps one viewer's websocket connection.
type Client struct {
	ID   uuid.UUID
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{ID: uuid.New(), conn: conn}
}

// Alive reports whether the socket is still usable for sends.
func (c *Client) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Send writes one wire message. Writes are serialized; gorilla-based
// connections allow only one concurrent writer.
func (c *Client) Send(message types.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.conn.WriteJSON(message)
}

// Close marks the client dead and closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}

// HandleConn serves one viewer connection: registers it for fan-out,
// replays readiness, and dispatches inbound control messages to the
// shared session until the socket closes.
func (h *Hub) HandleConn(ws *websocket.Conn, session *Session) {
	client := NewClient(ws)
	h.Register(client)
	defer func() {
		h.Unregister(client)
		client.Close()
	}()

	if session.Ready() {
		if err := client.Send(types.Message{Type: types.TypeReady}); err != nil {
			return
		}
	}

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("viewer %s closed: %v", client.ID, err)
			} else {
				log.Printf("viewer %s read error: %v", client.ID, err)
			}
			return
		}

		var message types.Message
		if err := json.Unmarshal(raw, &message); err != nil {
			// malformed input is reported, never fatal to the connection
			client.Send(types.Message{Type: types.TypeError, Message: "invalid JSON"})
			continue
		}

		switch message.Type {
		case types.TypeStart:
			if err := session.Start(); err != nil {
				client.Send(types.Message{Type: types.TypeError, Message: err.Error()})
			}
		case types.TypeStop:
			session.Stop()
		case types.TypeAudio:
			if err := session.ForwardAudio(message.Audio); err != nil {
				client.Send(types.Message{Type: types.TypeError, Message: err.Error()})
			}
		case types.TypeError:
			log.Printf("viewer %s reported: %s", client.ID, message.Message)
		default:
			client.Send(types.Message{Type: types.TypeError, Message: "unknown message type"})
		}
	}
}
