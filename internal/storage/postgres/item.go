package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kalipos/storefront/internal/domain/catalog"
)

const (
	listItemsSQL = `SELECT item_name, category, default_supplier, unit
		FROM items ORDER BY item_name LIMIT $1`

	getItemByNameSQL = `SELECT item_name, category, default_supplier, unit
		FROM items WHERE lower(item_name) = lower($1)`

	listItemsByCategorySQL = `SELECT item_name, category, default_supplier, unit
		FROM items WHERE category ILIKE '%' || $1 || '%' ORDER BY item_name LIMIT $2`

	searchItemsSQL = `SELECT item_name, category, default_supplier, unit
		FROM items WHERE item_name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%'
		ORDER BY item_name LIMIT $2`
)

var _ catalog.Repository = (*ItemRepository)(nil)

// ItemRepository implements catalog.Repository backed by PostgreSQL.
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns an ItemRepository that uses the given pool.
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

// List returns up to limit items ordered by name.
func (r *ItemRepository) List(ctx context.Context, limit int) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// GetByName returns the item whose name equals the given one,
// case-insensitively.
func (r *ItemRepository) GetByName(ctx context.Context, name string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemByNameSQL, name)
	if err != nil {
		return nil, fmt.Errorf("getting item %q: %w", name, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %q: %w", name, err)
	}
	return &item, nil
}

// ListByCategory returns up to limit items whose category contains the
// fragment, case-insensitively.
func (r *ItemRepository) ListByCategory(ctx context.Context, category string, limit int) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsByCategorySQL, category, limit)
	if err != nil {
		return nil, fmt.Errorf("listing items by category %q: %w", category, err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// Search returns up to limit items whose name or category contains the
// query, case-insensitively.
func (r *ItemRepository) Search(ctx context.Context, query string, limit int) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, searchItemsSQL, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching items %q: %w", query, err)
	}
	return pgx.CollectRows(rows, scanItem)
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var item catalog.Item
	err := row.Scan(&item.Name, &item.Category, &item.Supplier, &item.Unit)
	item.Origin = catalog.OriginCatalog
	return item, err
}
