// Package lifecycle wires one notification source to the order store and
// routes operator intents through the command gateway. This is the
// composition root of a display session.
package lifecycle

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/notivlaai-service/internal/domain"
	"github.com/example/notivlaai-service/internal/protocol"
	"github.com/example/notivlaai-service/internal/store"
)

// State of the session relative to the push channel.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// RetryPolicy decides whether and when to re-establish a lost channel.
// The zero value never retries, which matches the original behaviour.
type RetryPolicy struct {
	// Retry enables reconnection attempts.
	Retry bool
	// Base is the first backoff delay; doubles per attempt up to Max.
	Base time.Duration
	Max  time.Duration
}

// NoRetry — stay disconnected after a channel loss.
func NoRetry() RetryPolicy { return RetryPolicy{} }

// ExponentialBackoff — reconnect with doubling delays between base and max.
func ExponentialBackoff(base, max time.Duration) RetryPolicy {
	return RetryPolicy{Retry: true, Base: base, Max: max}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Base
	for i := 0; i < attempt && d < p.Max; i++ {
		d *= 2
	}
	if d > p.Max {
		d = p.Max
	}
	return d
}

// Controller owns the session state machine: Disconnected until the channel
// is up, Connected while frames flow. Inbound notifications mutate the store
// directly; operator intents only mutate it after the gateway confirms.
type Controller struct {
	store   *store.OrderStore
	channel domain.FrameChannel
	gateway domain.CommandGateway
	policy  RetryPolicy

	mu    sync.Mutex
	state State
}

func NewController(st *store.OrderStore, ch domain.FrameChannel, gw domain.CommandGateway, policy RetryPolicy) *Controller {
	return &Controller{
		store:   st,
		channel: ch,
		gateway: gw,
		policy:  policy,
		state:   Disconnected,
	}
}

// Store exposes the read side of the session to the presentation layer.
func (c *Controller) Store() *store.OrderStore { return c.store }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Connect establishes the channel and starts applying notifications to the
// store. It returns once the channel is up; frame handling continues in the
// background until the channel closes or ctx is cancelled.
func (c *Controller) Connect(ctx context.Context) error {
	if err := c.subscribe(ctx); err != nil {
		return err
	}
	go c.watch(ctx)
	return nil
}

func (c *Controller) subscribe(ctx context.Context) error {
	err := c.channel.Subscribe(ctx, func(ctx context.Context, frame []byte) error {
		n, err := protocol.Decode(frame)
		if err != nil {
			// Bad frame: drop it, keep the session alive.
			log.Printf("lifecycle: dropping frame: %v", err)
			return nil
		}
		c.store.Apply(n)
		return nil
	})
	if err != nil {
		c.setState(Disconnected)
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	c.setState(Connected)
	return nil
}

// watch tracks channel closure and applies the retry policy.
func (c *Controller) watch(ctx context.Context) {
	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			c.setState(Disconnected)
			return
		case <-c.channel.Closed():
			c.setState(Disconnected)
			log.Printf("lifecycle: channel closed")
		}

		if !c.policy.Retry {
			return
		}

		delay := c.policy.delay(attempt)
		log.Printf("lifecycle: reconnecting in %s", delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if err := c.subscribe(ctx); err != nil {
			log.Printf("lifecycle: reconnect failed: %v", err)
			continue
		}
		attempt = -1
	}
}

// MarkInTransit requests the backend to move a pending order into transit
// and mirrors the change locally once confirmed.
func (c *Controller) MarkInTransit(ctx context.Context, id int) error {
	if err := c.checkTransition(id, domain.StatusPending); err != nil {
		return err
	}
	if err := c.gateway.SetInTransit(ctx, id); err != nil {
		return err
	}
	c.store.SetInTransit(id)
	return nil
}

// MarkPickedUp requests the backend to finish an in-transit order. On
// confirmation the order leaves the board, so the store entry is removed.
func (c *Controller) MarkPickedUp(ctx context.Context, id int) error {
	if err := c.checkTransition(id, domain.StatusInTransit); err != nil {
		return err
	}
	if err := c.gateway.SetPickedUp(ctx, id); err != nil {
		return err
	}
	c.store.RemoveOrder(id)
	return nil
}

// checkTransition enforces the one-way Pending, InTransit, PickedUp order
// for operator commands on orders the store knows about. Orders outside the
// active set (the search view handles those) are left to the backend to
// validate. Push notifications are exempt: a full resync may put any order
// in any status.
func (c *Controller) checkTransition(id int, want domain.Status) error {
	for _, o := range c.store.Orders() {
		if o.ID == id {
			if o.Status() != want {
				return fmt.Errorf("%w: order %d is %s", domain.ErrCommand, id, o.Status())
			}
			return nil
		}
	}
	return nil
}

// Resync asks the backend for a fresh snapshot of the active set.
func (c *Controller) Resync(ctx context.Context) error {
	if c.State() != Connected {
		return fmt.Errorf("%w: not connected", domain.ErrConnection)
	}
	return c.channel.Send(ctx, []byte(`{"resync":true}`))
}
