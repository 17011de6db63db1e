package domain

// VlaaiType — the kind of vlaai on an order row.
type VlaaiType string

const (
	Abrikoos       VlaaiType = "Abrikoos"
	Kruimelpudding VlaaiType = "Kruimelpudding"
	HalfHalf       VlaaiType = "HalfHalf"
	Rijst          VlaaiType = "Rijst"
	Kers           VlaaiType = "Kers"
	Appel          VlaaiType = "Appel"
)

// OrderRow — one line of an order: a vlaai and how many of it.
type OrderRow struct {
	Vlaai  VlaaiType `json:"vlaai"`
	Amount int       `json:"amount"`
}

// Order — one pending transaction for a customer. The id is assigned by the
// backend and is unique within the active set. Rows never change after
// construction; only the status flags and store membership do.
type Order struct {
	ID           int        `json:"id"`
	CustomerName string     `json:"customerName"`
	InTransit    bool       `json:"inTransit"`
	PickedUp     bool       `json:"pickedUp"`
	Rows         []OrderRow `json:"rows"`
}

// Status — lifecycle status of an order.
type Status int

const (
	StatusPending Status = iota
	StatusInTransit
	StatusPickedUp
)

func (s Status) String() string {
	switch s {
	case StatusInTransit:
		return "in transit"
	case StatusPickedUp:
		return "picked up"
	default:
		return "pending"
	}
}

// Status derives the lifecycle status from the two wire flags.
// At most one flag is true at a time; PickedUp wins if both are set.
func (o Order) Status() Status {
	switch {
	case o.PickedUp:
		return StatusPickedUp
	case o.InTransit:
		return StatusInTransit
	default:
		return StatusPending
	}
}

// Customer — a customer known to the backend, used by the search view.
type Customer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
