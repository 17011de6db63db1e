// Package natsstan consumes newly placed shop orders from a NATS Streaming
// subject and feeds them into the backend.
package natsstan

import (
	"context"
	"fmt"
	"log"
	"time"

	stan "github.com/nats-io/stan.go"
)

// Subscriber is a durable queue subscriber for placed-order messages.
// A handler error leaves the message unacked so it gets redelivered.
type Subscriber struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string
	Durable   string
	Queue     string
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	clientID := s.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("notivlaai-svc-%d", time.Now().UnixNano())
	}
	queue := s.Queue
	if queue == "" {
		queue = "notivlaai-workers"
	}

	sc, err := stan.Connect(s.ClusterID, clientID, stan.NatsURL(s.URL))
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		sc.Close()
	}()

	_, err = sc.QueueSubscribe(s.Subject, queue, func(m *stan.Msg) {
		hCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := handler(hCtx, m.Data); err != nil {
			// No ack: let the message come around again.
			log.Printf("natsstan: handler error: %v", err)
			return
		}
		if err := m.Ack(); err != nil {
			log.Printf("natsstan: ack failed: %v", err)
		}
	}, stan.DurableName(s.Durable), stan.SetManualAckMode(), stan.AckWait(10*time.Second), stan.DeliverAllAvailable())
	return err
}
