// Package store holds the local projection of orders currently shown at the
// pickup counter. One store instance exists per display session and is the
// only owner of the active set; everything else mutates it through the
// operations below.
package store

import (
	"sync"

	"github.com/example/notivlaai-service/internal/domain"
	"github.com/example/notivlaai-service/internal/protocol"
)

// OrderStore — the active set of orders, in display order.
type OrderStore struct {
	mu        sync.RWMutex
	orders    []domain.Order
	last      *protocol.Notification
	observers []observer
	nextObsID int
}

type observer struct {
	id int
	fn func()
}

func NewOrderStore() *OrderStore {
	return &OrderStore{}
}

// Initialize replaces the whole active set with a fresh snapshot,
// preserving the given order. The source is authoritative, so no
// duplicate checking happens here.
func (s *OrderStore) Initialize(orders []domain.Order) {
	s.mu.Lock()
	s.orders = append([]domain.Order(nil), orders...)
	s.mu.Unlock()
	s.notify()
}

// AddOrder appends an order to the end of the active set. Adding an id that
// is already present is a no-op, so replays and races cannot create
// duplicates.
func (s *OrderStore) AddOrder(o domain.Order) {
	s.mu.Lock()
	for _, existing := range s.orders {
		if existing.ID == o.ID {
			s.mu.Unlock()
			return
		}
	}
	s.orders = append(s.orders, o)
	s.mu.Unlock()
	s.notify()
}

// RemoveOrder drops the order with the given id. Removing an absent id is a
// no-op: a push notification and a confirmed pickup command may both try to
// remove the same order.
func (s *OrderStore) RemoveOrder(id int) {
	s.mu.Lock()
	kept := s.orders[:0]
	for _, o := range s.orders {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	changed := len(kept) != len(s.orders)
	s.orders = kept
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// SetInTransit marks the order with the given id as in transit.
// No-op if the id is absent.
func (s *OrderStore) SetInTransit(id int) {
	s.setStatus(id, true, false)
}

// SetPickedUp marks the order with the given id as picked up.
// No-op if the id is absent.
func (s *OrderStore) SetPickedUp(id int) {
	s.setStatus(id, false, true)
}

func (s *OrderStore) setStatus(id int, inTransit, pickedUp bool) {
	s.mu.Lock()
	changed := false
	for i := range s.orders {
		if s.orders[i].ID == id {
			s.orders[i].InTransit = inTransit
			s.orders[i].PickedUp = pickedUp
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Apply maps a decoded notification onto the matching store operation and
// records it as the last notification received.
func (s *OrderStore) Apply(n protocol.Notification) {
	s.mu.Lock()
	s.last = &n
	s.mu.Unlock()

	switch n.Kind {
	case protocol.KindInitialize:
		s.Initialize(n.Orders)
	case protocol.KindAddOrder:
		s.AddOrder(n.Order)
	case protocol.KindRemoveOrder:
		s.RemoveOrder(n.OrderID)
	}
}

// Orders returns a copy of the active set in display order.
func (s *OrderStore) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Order(nil), s.orders...)
}

func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// LastNotification returns the most recent notification applied through
// Apply, and false before the first one.
func (s *OrderStore) LastNotification() (protocol.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return protocol.Notification{}, false
	}
	return *s.last, true
}

// Subscribe registers an observer called synchronously after every mutation,
// in registration order. The returned function unsubscribes it.
func (s *OrderStore) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextObsID
	s.nextObsID++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, obs := range s.observers {
			if obs.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// notify runs outside the write lock so observers see the mutation fully
// applied and may read the store.
func (s *OrderStore) notify() {
	s.mu.RLock()
	observers := append([]observer(nil), s.observers...)
	s.mu.RUnlock()
	for _, obs := range observers {
		obs.fn()
	}
}
