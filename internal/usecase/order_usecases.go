package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/notivlaai-service/internal/domain"
	"github.com/example/notivlaai-service/internal/protocol"
)

// NotificationBroadcaster — port for pushing notifications to the connected
// pickup displays.
type NotificationBroadcaster interface {
	Broadcast(n protocol.Notification)
}

// placedOrder is the shape of an incoming shop order on the ingest subject.
type placedOrder struct {
	CustomerName string            `json:"customerName"`
	Rows         []domain.OrderRow `json:"rows"`
}

// ProcessIncomingOrder — store a newly placed shop order. The order starts
// pending and does not reach the board until it goes in transit, so no
// notification is sent here.
type ProcessIncomingOrder struct {
	Repo domain.OrderRepository
}

func (uc ProcessIncomingOrder) Execute(ctx context.Context, raw []byte) (domain.Order, error) {
	var placed placedOrder
	if err := json.Unmarshal(raw, &placed); err != nil {
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if placed.CustomerName == "" || len(placed.Rows) == 0 {
		return domain.Order{}, domain.ErrValidation
	}
	return uc.Repo.InsertOrder(ctx, placed.CustomerName, placed.Rows)
}

// MarkOrderInTransit — the order is on its way to the counter: update the
// backend state and put it on every board.
type MarkOrderInTransit struct {
	Repo domain.OrderRepository
	Hub  NotificationBroadcaster
}

func (uc MarkOrderInTransit) Execute(ctx context.Context, id int) error {
	if err := uc.Repo.SetInTransit(ctx, id); err != nil {
		return err
	}
	order, err := uc.Repo.OrderByID(ctx, id)
	if err != nil {
		return err
	}
	uc.Hub.Broadcast(protocol.AddOrder(order))
	return nil
}

// MarkOrderPickedUp — the customer has the order: update the backend state
// and take it off every board.
type MarkOrderPickedUp struct {
	Repo domain.OrderRepository
	Hub  NotificationBroadcaster
}

func (uc MarkOrderPickedUp) Execute(ctx context.Context, id int) error {
	if err := uc.Repo.SetPickedUp(ctx, id); err != nil {
		return err
	}
	uc.Hub.Broadcast(protocol.RemoveOrder(id))
	return nil
}

// SuggestCustomers — name suggestions for the search view.
type SuggestCustomers struct {
	Repo domain.OrderRepository
}

func (uc SuggestCustomers) Execute(ctx context.Context, query string) ([]domain.Customer, error) {
	return uc.Repo.CustomersWithName(ctx, query)
}

// OrdersForCustomer — all orders of one customer, for the search view.
type OrdersForCustomer struct {
	Repo domain.OrderRepository
}

func (uc OrdersForCustomer) Execute(ctx context.Context, customerID int) ([]domain.Order, error) {
	return uc.Repo.OrdersForCustomer(ctx, customerID)
}
