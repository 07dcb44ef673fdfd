package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalipos/storefront/internal/domain/cart"
)

const (
	createCartSQL = `INSERT INTO carts (cart_name, telegram_user_id, is_template)
		VALUES ($1, $2, $3) RETURNING id`

	createCartItemSQL = `INSERT INTO cart_items (cart_id, item_name, quantity, category)
		VALUES ($1, $2, $3, $4)`

	loadCartItemsSQL = `SELECT id, item_name, quantity, COALESCE(category, '')
		FROM cart_items WHERE cart_id = $1`

	listCartsByUserSQL = `SELECT id, cart_name, telegram_user_id, is_template, created_at
		FROM carts WHERE telegram_user_id = $1 ORDER BY created_at DESC`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Save stores the lines under a new named cart and returns its id.
func (r *CartRepository) Save(ctx context.Context, name string, userID int64, isTemplate bool, lines []cart.Line) (string, error) {
	var cartID string
	err := r.pool.QueryRow(ctx, createCartSQL, name, userID, isTemplate).Scan(&cartID)
	if err != nil {
		return "", fmt.Errorf("creating cart %q: %w", name, err)
	}

	batch := &pgx.Batch{}
	for _, line := range lines {
		category := any(line.Category)
		if line.Category == "" {
			category = nil
		}
		batch.Queue(createCartItemSQL, cartID, line.Name, line.Quantity, category)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return "", fmt.Errorf("creating %d cart items for %q: %w", len(lines), name, err)
	}

	return cartID, nil
}

// Load returns the lines of a previously saved cart.
func (r *CartRepository) Load(ctx context.Context, cartID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, loadCartItemsSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("loading cart %q: %w", cartID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Line, error) {
		var line cart.Line
		err := row.Scan(&line.ID, &line.Name, &line.Quantity, &line.Category)
		return line, err
	})
}

// ListByUser returns the user's saved cart headers, newest first.
func (r *CartRepository) ListByUser(ctx context.Context, userID int64) ([]cart.SavedCart, error) {
	rows, err := r.pool.Query(ctx, listCartsByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing carts for user %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.SavedCart, error) {
		var sc cart.SavedCart
		err := row.Scan(&sc.ID, &sc.Name, &sc.UserID, &sc.IsTemplate, &sc.CreatedAt)
		return sc, err
	})
}
