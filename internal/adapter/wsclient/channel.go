// Package wsclient is the live push channel of a display: a websocket
// connection to the backend delivering raw notification frames.
package wsclient

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/example/notivlaai-service/internal/domain"
)

// Channel wraps one websocket connection. Frames are handed to the
// subscribed handler one at a time by a single read pump, so downstream
// mutations never interleave.
type Channel struct {
	URL string

	mu     sync.Mutex
	conn   *websocket.Conn
	closed chan struct{}
}

func NewChannel(url string) *Channel {
	return &Channel{URL: url, closed: make(chan struct{})}
}

// Subscribe dials the backend and starts the read pump. It returns once the
// handshake succeeded; Closed() fires when the pump stops.
func (c *Channel) Subscribe(ctx context.Context, handler func(ctx context.Context, frame []byte) error) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = make(chan struct{})
	closed := c.closed
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(closed)
		defer conn.Close()
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("wsclient: read: %v", err)
				}
				return
			}
			if err := handler(ctx, frame); err != nil {
				log.Printf("wsclient: handler: %v", err)
			}
		}
	}()
	return nil
}

// Send writes one text frame to the backend.
func (c *Channel) Send(ctx context.Context, frame []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return domain.ErrConnection
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Channel) Closed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var _ domain.FrameChannel = (*Channel)(nil)
