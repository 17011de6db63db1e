package domain

import "context"

// OrderRepository — port for order persistence on the backend side.
type OrderRepository interface {
	// PendingOrders returns the orders currently on the board:
	// in transit and not yet picked up.
	PendingOrders(ctx context.Context) ([]Order, error)
	OrderByID(ctx context.Context, id int) (Order, error)
	SetInTransit(ctx context.Context, id int) error
	SetPickedUp(ctx context.Context, id int) error
	InsertOrder(ctx context.Context, customerName string, rows []OrderRow) (Order, error)
	CustomersWithName(ctx context.Context, pattern string) ([]Customer, error)
	OrdersForCustomer(ctx context.Context, customerID int) ([]Order, error)
}

// FrameChannel — port for a push connection delivering raw text frames.
// Implemented by the live websocket client and by the demo generator.
type FrameChannel interface {
	// Subscribe registers the handler and establishes the connection.
	// The handler is invoked once per inbound frame, one frame at a time.
	Subscribe(ctx context.Context, handler func(ctx context.Context, frame []byte) error) error
	// Send writes one raw text frame to the backend.
	Send(ctx context.Context, frame []byte) error
	// Closed is closed when the connection is gone for good.
	Closed() <-chan struct{}
}

// CommandGateway — port for backend-confirmed status transitions.
// The local projection may only change after a nil return.
type CommandGateway interface {
	SetInTransit(ctx context.Context, id int) error
	SetPickedUp(ctx context.Context, id int) error
}

// Common domain errors
var (
	ErrNotFound   = notFoundError("not found")
	ErrValidation = validationError("invalid data")
	// ErrProtocol — a frame matches none of the known notification shapes.
	ErrProtocol = protocolError("unknown notification frame")
	// ErrConnection — the push channel could not be established or was lost.
	ErrConnection = connectionError("channel unavailable")
	// ErrCommand — the backend rejected or failed a status transition.
	ErrCommand = commandError("command rejected")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

type protocolError string

func (e protocolError) Error() string { return string(e) }

type connectionError string

func (e connectionError) Error() string { return string(e) }

type commandError string

func (e commandError) Error() string { return string(e) }
