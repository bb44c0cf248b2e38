package activity

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"core/internal/model"

	"github.com/gorilla/websocket"
)

const (
	clientSendBuffer = 16
	writeWait        = 10 * time.Second
)

// Hub broadcasts back-office activity events to connected WebSocket clients.
// Delivery is best-effort: events published while no client is connected are
// dropped, and a client that cannot keep up is disconnected.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	clients    map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an activity hub; call Run to start dispatching.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*client]struct{}),
	}
}

// Run dispatches events to clients until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case payload := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Slow client: drop it rather than block the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Publish enqueues an event for broadcast. Non-blocking: if the hub is
// saturated the event is dropped.
func (h *Hub) Publish(event model.ActivityEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal activity event: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

// Serve registers a WebSocket connection and pumps events to it until the
// connection drops.
func (h *Hub) Serve(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.register <- c

	go c.writePump()
	c.readPump(h)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames; the feed is one-way. Its real job is to
// notice the connection closing so the client can be unregistered.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
