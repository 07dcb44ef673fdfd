package cart

import (
	"context"
	"time"
)

// SavedCart is the persisted header of a cart stored under a name, e.g. a
// weekly reorder template.
type SavedCart struct {
	ID         string
	Name       string
	UserID     int64
	IsTemplate bool
	CreatedAt  time.Time
}

// Repository persists named carts. Like orders, a cart is written as a
// header plus a batch of line rows.
type Repository interface {
	// Save stores the lines under a new named cart and returns its id.
	Save(ctx context.Context, name string, userID int64, isTemplate bool, lines []Line) (string, error)
	// Load returns the lines of a previously saved cart.
	Load(ctx context.Context, cartID string) ([]Line, error)
	// ListByUser returns the user's saved cart headers, newest first.
	ListByUser(ctx context.Context, userID int64) ([]SavedCart, error)
}
