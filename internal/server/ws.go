package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type message struct {
	session string
	data    []byte
}

// Hub fans out session events to the WebSocket clients subscribed to that
// session. Its client map is owned by the run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	clients    map[*Client]bool
	broadcast  chan message
	done       chan struct{}
	count      atomic.Int64
	logger     *slog.Logger
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session string
	send    chan []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.count.Add(1)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				if c.session != msg.session {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					h.logger.Warn("ws client too slow, dropping", "session", c.session)
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
}

// publish queues v for the subscribers of session. It returns without
// sending once the hub has stopped.
func (h *Hub) publish(session string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("ws encode", "session", session, "error", err)
		return
	}
	select {
	case h.broadcast <- message{session: session, data: b}:
	case <-h.done:
	}
}

func (h *Hub) clientCount() int {
	return int(h.count.Load())
}

func newUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
		if allowedOrigin == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowedOrigin
	}}
}

// serveWS upgrades the request and subscribes it to session. first, when
// non-nil, is delivered before any broadcast.
func serveWS(h *Hub, up *websocket.Upgrader, session string, first []byte, w http.ResponseWriter, r *http.Request) {
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade", "error", err)
		return
	}
	client := &Client{hub: h, conn: conn, session: session, send: make(chan []byte, 256)}
	if first != nil {
		client.send <- first
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound frames; it exists to process control frames
// and notice when the peer goes away.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
