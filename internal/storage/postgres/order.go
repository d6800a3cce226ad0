package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/digital-hub/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, display_id, session_id, items, total, status, payment_status, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getOrderSQL = `SELECT id, display_id, session_id, items, total, status, payment_status, payment_method, created_at
		FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, display_id, session_id, items, total, status, payment_status, payment_method, created_at
		FROM orders WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2`

	transitionSQL = `UPDATE orders SET status = $4, payment_status = $5, updated_at = now()
		WHERE id = $1 AND status = $2 AND payment_status = $3`

	orderExistsSQL = `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`
)

// maxSessionOrders caps the order history returned for one session.
const maxSessionOrders = 100

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. The order items are serialized to JSON for
// storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.DisplayID, o.SessionID, itemsJSON, o.Total,
		string(o.Status), string(o.PaymentStatus), string(o.PaymentMethod), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// Get returns the order with the given id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListBySession returns the most recent orders of a session, newest first.
func (r *OrderRepository) ListBySession(ctx context.Context, session string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, session, maxSessionOrders)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// Transition updates the status pair of an order if it still has the From
// pair. The compare and the write are one statement.
func (r *OrderRepository) Transition(ctx context.Context, id string, t order.Transition) error {
	tag, err := r.pool.Exec(ctx, transitionSQL, id,
		string(t.FromStatus), string(t.FromPaymentStatus),
		string(t.Status), string(t.PaymentStatus),
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, orderExistsSQL, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking order %q: %w", id, err)
	}
	if !exists {
		return order.ErrNotFound
	}
	return order.ErrInvalidTransition
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		status    string
		payStatus string
		payMethod string
	)
	if err := row.Scan(
		&o.ID, &o.DisplayID, &o.SessionID, &itemsJSON, &o.Total,
		&status, &payStatus, &payMethod, &o.CreatedAt,
	); err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(payStatus)
	o.PaymentMethod = order.PaymentMethod(payMethod)
	return o, nil
}
