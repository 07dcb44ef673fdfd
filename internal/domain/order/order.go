package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StatusNew is the status every order carries at creation. Transitions
// happen outside this service.
const StatusNew = "New"

// Order is a persisted order header.
type Order struct {
	ID        string
	Number    string
	UserID    int64
	Status    string
	CreatedAt time.Time
}

// Line is a persisted order line item.
type Line struct {
	ItemName string
	Quantity decimal.Decimal
	Category string
}

// Repository defines persistence operations for orders. CreateHeader and
// CreateLines are deliberately separate: the two writes are sequential and
// non-transactional, and a failure between them leaves a header with zero
// lines behind.
type Repository interface {
	// CreateHeader persists the order header and fills in o.ID.
	CreateHeader(ctx context.Context, o *Order) error
	// CreateLines persists all lines for the given order id in one batch.
	CreateLines(ctx context.Context, orderID string, lines []Line) error
	// RecentByUser returns up to limit most recent orders for the user,
	// newest first, with their lines attached.
	RecentByUser(ctx context.Context, userID int64, limit int) ([]OrderWithLines, error)
}

// OrderWithLines pairs a header with its line items for read-back views.
type OrderWithLines struct {
	Order Order
	Lines []Line
}

// Notifier forwards a human-readable order summary to the user's chat.
// Delivery is best-effort; implementations report errors, callers log and
// discard them.
type Notifier interface {
	NotifyOrder(ctx context.Context, userID int64, message string, lines []Line) error
}
