// Package wshub pushes order notifications to every connected pickup
// display over websockets.
package wshub

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/notivlaai-service/internal/domain"
	"github.com/example/notivlaai-service/internal/protocol"
)

const writeTimeout = 5 * time.Second

// Hub upgrades display connections and fans notifications out to them.
// Every new display first gets an initialize frame with the current board.
type Hub struct {
	repo     domain.OrderRepository
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	mu   sync.Mutex // serializes writes to the connection
	conn *websocket.Conn
}

func (c *client) write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func NewHub(repo domain.OrderRepository) *Hub {
	return &Hub{
		repo: repo,
		// Displays live on the counter's local network.
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*client]struct{}),
	}
}

// Handle upgrades the request and serves the display until it disconnects.
// Any inbound frame is treated as a resync request and answered with a
// fresh initialize.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wshub: upgrade: %v", err)
		return
	}
	cl := &client{conn: conn}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, cl)
		h.mu.Unlock()
		conn.Close()
	}()

	if err := h.sendInitialize(r.Context(), cl); err != nil {
		log.Printf("wshub: initialize: %v", err)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		// The display asked for a resync.
		if err := h.sendInitialize(r.Context(), cl); err != nil {
			log.Printf("wshub: resync: %v", err)
			return
		}
	}
}

func (h *Hub) sendInitialize(ctx context.Context, cl *client) error {
	pending, err := h.repo.PendingOrders(ctx)
	if err != nil {
		return err
	}
	frame, err := protocol.Encode(protocol.Initialize(pending))
	if err != nil {
		return err
	}
	return cl.write(frame)
}

// Broadcast sends one notification to every connected display. A display
// that cannot be written to is dropped; it will resync on reconnect.
func (h *Hub) Broadcast(n protocol.Notification) {
	frame, err := protocol.Encode(n)
	if err != nil {
		log.Printf("wshub: encode: %v", err)
		return
	}

	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		if err := cl.write(frame); err != nil {
			log.Printf("wshub: write: %v", err)
			h.mu.Lock()
			delete(h.clients, cl)
			h.mu.Unlock()
			cl.conn.Close()
		}
	}
}

// ClientCount reports the number of connected displays.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
