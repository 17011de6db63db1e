// Package protocol implements the notification frames exchanged between the
// backend and the pickup displays. Exactly one frame is one JSON object with
// exactly one of the keys "initialize", "addOrder" or "removeOrder".
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/example/notivlaai-service/internal/domain"
)

// Kind discriminates the notification union.
type Kind int

const (
	KindInitialize Kind = iota
	KindAddOrder
	KindRemoveOrder
)

func (k Kind) String() string {
	switch k {
	case KindAddOrder:
		return "addOrder"
	case KindRemoveOrder:
		return "removeOrder"
	default:
		return "initialize"
	}
}

// Notification — one decoded push message. Only the field matching Kind is
// meaningful.
type Notification struct {
	Kind    Kind
	Orders  []domain.Order // KindInitialize
	Order   domain.Order   // KindAddOrder
	OrderID int            // KindRemoveOrder
}

func Initialize(orders []domain.Order) Notification {
	return Notification{Kind: KindInitialize, Orders: orders}
}

func AddOrder(o domain.Order) Notification {
	return Notification{Kind: KindAddOrder, Order: o}
}

func RemoveOrder(id int) Notification {
	return Notification{Kind: KindRemoveOrder, OrderID: id}
}

// wire names of the three variants
const (
	keyInitialize  = "initialize"
	keyAddOrder    = "addOrder"
	keyRemoveOrder = "removeOrder"
)

// Decode classifies a raw frame into one Notification.
//
// Classification is by key presence, not value truthiness: {"removeOrder":0}
// removes the order with id 0 and is not treated as an empty frame. A frame
// with zero or more than one of the known keys fails with domain.ErrProtocol.
func Decode(frame []byte) (Notification, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", domain.ErrProtocol, err)
	}

	var (
		found Notification
		seen  int
	)
	if raw, ok := fields[keyInitialize]; ok {
		seen++
		var orders []domain.Order
		if err := json.Unmarshal(raw, &orders); err != nil {
			return Notification{}, fmt.Errorf("%w: initialize payload: %v", domain.ErrProtocol, err)
		}
		found = Initialize(orders)
	}
	if raw, ok := fields[keyAddOrder]; ok {
		seen++
		var o domain.Order
		if err := json.Unmarshal(raw, &o); err != nil {
			return Notification{}, fmt.Errorf("%w: addOrder payload: %v", domain.ErrProtocol, err)
		}
		found = AddOrder(o)
	}
	if raw, ok := fields[keyRemoveOrder]; ok {
		seen++
		var id int
		if err := json.Unmarshal(raw, &id); err != nil {
			return Notification{}, fmt.Errorf("%w: removeOrder payload: %v", domain.ErrProtocol, err)
		}
		found = RemoveOrder(id)
	}

	switch seen {
	case 1:
		return found, nil
	case 0:
		return Notification{}, fmt.Errorf("%w: no known key present", domain.ErrProtocol)
	default:
		return Notification{}, fmt.Errorf("%w: %d variant keys in one frame", domain.ErrProtocol, seen)
	}
}

// Encode renders a Notification as one wire frame.
func Encode(n Notification) ([]byte, error) {
	switch n.Kind {
	case KindInitialize:
		orders := n.Orders
		if orders == nil {
			orders = []domain.Order{}
		}
		return json.Marshal(map[string][]domain.Order{keyInitialize: orders})
	case KindAddOrder:
		return json.Marshal(map[string]domain.Order{keyAddOrder: n.Order})
	case KindRemoveOrder:
		return json.Marshal(map[string]int{keyRemoveOrder: n.OrderID})
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", domain.ErrProtocol, n.Kind)
	}
}
