// Package demo substitutes the live push channel with a fixed two-order
// script, so the board can be shown without any backend running.
package demo

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/example/notivlaai-service/internal/domain"
	"github.com/example/notivlaai-service/internal/protocol"
)

// Generator implements domain.FrameChannel with a deterministic script:
// one order on activation, a second one after Delay. The script runs once;
// the started flag is owned by the caller so that a rebuilt generator
// sharing the same flag does not replay it.
type Generator struct {
	// Delay before the second order appears.
	Delay time.Duration

	mu      sync.Mutex
	started *bool
	closed  chan struct{}
}

func NewGenerator(started *bool) *Generator {
	return &Generator{
		Delay:   time.Second,
		started: started,
		closed:  make(chan struct{}),
	}
}

func scriptOrders() [2]domain.Order {
	return [2]domain.Order{
		{
			ID:           0,
			CustomerName: "Tim de Jager",
			InTransit:    true,
			Rows: []domain.OrderRow{
				{Vlaai: domain.Kers, Amount: 3},
				{Vlaai: domain.Abrikoos, Amount: 3},
			},
		},
		{
			ID:           1,
			CustomerName: "Saskia Winkeler",
			InTransit:    true,
			Rows: []domain.OrderRow{
				{Vlaai: domain.Kers, Amount: 3},
				{Vlaai: domain.Abrikoos, Amount: 3},
			},
		},
	}
}

// Subscribe plays the script into the handler. The frames go through the
// real notification codec, so the demo path and the live path share one
// decoder.
func (g *Generator) Subscribe(ctx context.Context, handler func(ctx context.Context, frame []byte) error) error {
	g.mu.Lock()
	if *g.started {
		g.mu.Unlock()
		return nil
	}
	*g.started = true
	g.mu.Unlock()

	orders := scriptOrders()
	g.emit(ctx, handler, orders[0])

	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(g.Delay):
			g.emit(ctx, handler, orders[1])
		}
	}()
	return nil
}

func (g *Generator) emit(ctx context.Context, handler func(ctx context.Context, frame []byte) error, o domain.Order) {
	frame, err := protocol.Encode(protocol.AddOrder(o))
	if err != nil {
		log.Printf("demo: encode: %v", err)
		return
	}
	if err := handler(ctx, frame); err != nil {
		log.Printf("demo: handler: %v", err)
	}
}

// Send is a no-op: there is no backend to talk to in demo mode.
func (g *Generator) Send(ctx context.Context, frame []byte) error { return nil }

// Closed never fires: the demo channel stays up for the whole session.
func (g *Generator) Closed() <-chan struct{} { return g.closed }

var _ domain.FrameChannel = (*Generator)(nil)
