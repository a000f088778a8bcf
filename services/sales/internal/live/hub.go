// Package live pushes completed sales to owners' open dashboards over
// websockets.
package live

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 32
	readLimit  = 512
)

// NewUpgrader allows any origin when origins is empty.
func NewUpgrader(origins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 5 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, o := range origins {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to the connections of one owner scope.
type Hub struct {
	mu      sync.Mutex
	clients map[uuid.UUID]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: map[uuid.UUID]map[*client]struct{}{}}
}

func (h *Hub) add(owner uuid.UUID, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[owner]
	if !ok {
		set = map[*client]struct{}{}
		h.clients[owner] = set
	}
	set[c] = struct{}{}
}

// remove must be called with h.mu held.
func (h *Hub) remove(owner uuid.UUID, c *client) {
	set, ok := h.clients[owner]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, owner)
	}
}

// Publish queues payload for every client of owner and returns how many got
// it. A client whose buffer is full is disconnected.
func (h *Hub) Publish(owner uuid.UUID, payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := range h.clients[owner] {
		select {
		case c.send <- payload:
			n++
		default:
			h.remove(owner, c)
		}
	}
	return n
}

func (h *Hub) Clients(owner uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[owner])
}

// Close disconnects everyone.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for owner, set := range h.clients {
		for c := range set {
			h.remove(owner, c)
		}
	}
}

// Serve registers conn under owner and blocks until the peer goes away.
func (h *Hub) Serve(conn *websocket.Conn, owner uuid.UUID) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(owner, c)
	go c.writePump()
	c.readPump()

	h.mu.Lock()
	h.remove(owner, c)
	h.mu.Unlock()
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
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

// readPump only services control frames; the feed is one-way.
func (c *client) readPump() {
	c.conn.SetReadLimit(readLimit)
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
