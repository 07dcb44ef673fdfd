package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalipos/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (order_number, telegram_user_id, status)
		VALUES ($1, $2, $3) RETURNING id, created_at`

	createOrderItemSQL = `INSERT INTO order_items (order_id, item_name, quantity, category)
		VALUES ($1, $2, $3, $4)`

	recentOrdersSQL = `SELECT id, order_number, telegram_user_id, status, created_at
		FROM orders WHERE telegram_user_id = $1 ORDER BY created_at DESC LIMIT $2`

	orderItemsSQL = `SELECT item_name, quantity, COALESCE(category, '')
		FROM order_items WHERE order_id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateHeader persists the order header and fills in the generated id and
// creation timestamp.
func (r *OrderRepository) CreateHeader(ctx context.Context, o *order.Order) error {
	err := r.pool.QueryRow(ctx, createOrderSQL, o.Number, o.UserID, o.Status).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.Number, err)
	}
	return nil
}

// CreateLines persists all lines for the given order id in one batch.
func (r *OrderRepository) CreateLines(ctx context.Context, orderID string, lines []order.Line) error {
	batch := &pgx.Batch{}
	for _, line := range lines {
		category := any(line.Category)
		if line.Category == "" {
			category = nil
		}
		batch.Queue(createOrderItemSQL, orderID, line.ItemName, line.Quantity, category)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("creating %d order items for %q: %w", len(lines), orderID, err)
	}
	return nil
}

// RecentByUser returns up to limit most recent orders with their lines.
func (r *OrderRepository) RecentByUser(ctx context.Context, userID int64, limit int) ([]order.OrderWithLines, error) {
	rows, err := r.pool.Query(ctx, recentOrdersSQL, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %d: %w", userID, err)
	}

	headers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		var o order.Order
		err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.Status, &o.CreatedAt)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning orders for user %d: %w", userID, err)
	}

	out := make([]order.OrderWithLines, 0, len(headers))
	for _, o := range headers {
		lineRows, err := r.pool.Query(ctx, orderItemsSQL, o.ID)
		if err != nil {
			return nil, fmt.Errorf("listing items for order %q: %w", o.Number, err)
		}
		lines, err := pgx.CollectRows(lineRows, func(row pgx.CollectableRow) (order.Line, error) {
			var line order.Line
			err := row.Scan(&line.ItemName, &line.Quantity, &line.Category)
			return line, err
		})
		if err != nil {
			return nil, fmt.Errorf("scanning items for order %q: %w", o.Number, err)
		}
		out = append(out, order.OrderWithLines{Order: o, Lines: lines})
	}
	return out, nil
}
