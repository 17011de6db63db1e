package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/notivlaai-service/internal/domain"
)

type PostgresOrderRepo struct {
	Pool *pgxpool.Pool
}

func NewPostgresOrderRepo(pool *pgxpool.Pool) *PostgresOrderRepo {
	return &PostgresOrderRepo{Pool: pool}
}

// EnsureSchema — create the required tables if absent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS customer (
  id serial PRIMARY KEY,
  name text NOT NULL,
  email text NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS vlaai (
  id serial PRIMARY KEY,
  name text UNIQUE NOT NULL
);
CREATE TABLE IF NOT EXISTS orders (
  id serial PRIMARY KEY,
  customer_id integer NOT NULL REFERENCES customer(id),
  in_transit boolean NOT NULL DEFAULT false,
  picked_up boolean NOT NULL DEFAULT false
);
CREATE TABLE IF NOT EXISTS vlaai_to_order (
  id serial PRIMARY KEY,
  order_id integer NOT NULL REFERENCES orders(id),
  vlaai_id integer NOT NULL REFERENCES vlaai(id),
  amount integer NOT NULL
);`)
	return err
}

// PendingOrders returns the orders shown on the pickup board: in transit and
// not yet picked up, oldest first.
func (r *PostgresOrderRepo) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	return r.queryOrders(ctx, `
SELECT o.id, c.name, o.in_transit, o.picked_up
  FROM orders o JOIN customer c ON c.id = o.customer_id
 WHERE o.in_transit AND NOT o.picked_up
 ORDER BY o.id`)
}

func (r *PostgresOrderRepo) OrderByID(ctx context.Context, id int) (domain.Order, error) {
	row := r.Pool.QueryRow(ctx, `
SELECT o.id, c.name, o.in_transit, o.picked_up
  FROM orders o JOIN customer c ON c.id = o.customer_id
 WHERE o.id = $1`, id)

	var o domain.Order
	if err := row.Scan(&o.ID, &o.CustomerName, &o.InTransit, &o.PickedUp); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}
	if err := r.loadRows(ctx, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *PostgresOrderRepo) SetInTransit(ctx context.Context, id int) error {
	return r.setStatus(ctx, id, true, false)
}

func (r *PostgresOrderRepo) SetPickedUp(ctx context.Context, id int) error {
	return r.setStatus(ctx, id, false, true)
}

func (r *PostgresOrderRepo) setStatus(ctx context.Context, id int, inTransit, pickedUp bool) error {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE orders SET in_transit = $2, picked_up = $3 WHERE id = $1`,
		id, inTransit, pickedUp)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// InsertOrder stores a newly placed order. The customer is created when the
// name is not known yet; vlaai names must exist (seeded at install time).
func (r *PostgresOrderRepo) InsertOrder(ctx context.Context, customerName string, rows []domain.OrderRow) (domain.Order, error) {
	if customerName == "" || len(rows) == 0 {
		return domain.Order{}, domain.ErrValidation
	}

	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer tx.Rollback(ctx)

	var customerID int
	err = tx.QueryRow(ctx, `SELECT id FROM customer WHERE name = $1`, customerName).Scan(&customerID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx, `INSERT INTO customer(name) VALUES($1) RETURNING id`, customerName).Scan(&customerID)
	}
	if err != nil {
		return domain.Order{}, err
	}

	var orderID int
	if err := tx.QueryRow(ctx,
		`INSERT INTO orders(customer_id) VALUES($1) RETURNING id`, customerID).Scan(&orderID); err != nil {
		return domain.Order{}, err
	}

	for _, row := range rows {
		if row.Amount <= 0 {
			return domain.Order{}, domain.ErrValidation
		}
		tag, err := tx.Exec(ctx, `
INSERT INTO vlaai_to_order(order_id, vlaai_id, amount)
SELECT $1, v.id, $3 FROM vlaai v WHERE v.name = $2`,
			orderID, string(row.Vlaai), row.Amount)
		if err != nil {
			return domain.Order{}, err
		}
		if tag.RowsAffected() == 0 {
			return domain.Order{}, fmt.Errorf("%w: unknown vlaai %q", domain.ErrValidation, row.Vlaai)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return domain.Order{ID: orderID, CustomerName: customerName, Rows: rows}, nil
}

// CustomersWithName matches customers by a case-insensitive name pattern,
// for the search view's suggestions.
func (r *PostgresOrderRepo) CustomersWithName(ctx context.Context, pattern string) ([]domain.Customer, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, name FROM customer WHERE name ILIKE $1 ORDER BY name`,
		"%"+pattern+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *PostgresOrderRepo) OrdersForCustomer(ctx context.Context, customerID int) ([]domain.Order, error) {
	return r.queryOrders(ctx, `
SELECT o.id, c.name, o.in_transit, o.picked_up
  FROM orders o JOIN customer c ON c.id = o.customer_id
 WHERE o.customer_id = $1
 ORDER BY o.id`, customerID)
}

func (r *PostgresOrderRepo) queryOrders(ctx context.Context, sql string, args ...any) ([]domain.Order, error) {
	rows, err := r.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.InTransit, &o.PickedUp); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := r.loadRows(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *PostgresOrderRepo) loadRows(ctx context.Context, o *domain.Order) error {
	rows, err := r.Pool.Query(ctx, `
SELECT v.name, vo.amount
  FROM vlaai_to_order vo JOIN vlaai v ON v.id = vo.vlaai_id
 WHERE vo.order_id = $1
 ORDER BY vo.id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var amount int
		if err := rows.Scan(&name, &amount); err != nil {
			return err
		}
		o.Rows = append(o.Rows, domain.OrderRow{Vlaai: domain.VlaaiType(name), Amount: amount})
	}
	return rows.Err()
}

var _ domain.OrderRepository = (*PostgresOrderRepo)(nil)
