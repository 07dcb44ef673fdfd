package catalog

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested catalog item does not exist.
var ErrNotFound = errors.New("item not found")

// Origin distinguishes items that come from the persisted catalog from
// ad-hoc items synthesized out of free-text input.
type Origin int8

const (
	// OriginCatalog marks an item backed by a catalog row. Category and
	// Supplier carry whatever the row holds, possibly empty.
	OriginCatalog Origin = iota
	// OriginAdHoc marks an item created on the fly from search text. Only
	// Name is user-provided; Category and Supplier hold placeholders.
	OriginAdHoc
)

// Item is a browsable, orderable product record. Identity is the name.
type Item struct {
	Name     string
	Category string
	Supplier string
	Unit     string
	Origin   Origin
}

// AdHoc builds an item for a name that has no catalog row behind it.
func AdHoc(name string) Item {
	return Item{
		Name:     name,
		Category: "New Item",
		Supplier: "Unknown",
		Origin:   OriginAdHoc,
	}
}

// Repository defines read operations over the item catalog.
type Repository interface {
	// List returns up to limit items ordered by name.
	List(ctx context.Context, limit int) ([]Item, error)
	// GetByName returns the item whose name equals the given one,
	// case-insensitively.
	GetByName(ctx context.Context, name string) (*Item, error)
	// ListByCategory returns up to limit items whose category contains the
	// given fragment, case-insensitively.
	ListByCategory(ctx context.Context, category string, limit int) ([]Item, error)
	// Search returns up to limit items whose name or category contains the
	// query, case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]Item, error)
}
