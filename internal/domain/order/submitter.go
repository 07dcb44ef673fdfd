package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kalipos/storefront/internal/domain/cart"
)

// Sentinel errors for submission preconditions.
var (
	ErrEmptyCart   = fmt.Errorf("cart is empty")
	ErrMissingUser = fmt.Errorf("user identity required")
)

// PersistenceError indicates the order header write failed. Nothing was
// committed; the whole submission is safe to retry.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist order header: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PartialPersistenceError indicates the header committed but the line batch
// failed. The order identified by Number exists with zero lines; the
// inconsistency is accepted and never rolled back here.
type PartialPersistenceError struct {
	Number string
	Err    error
}

func (e *PartialPersistenceError) Error() string {
	return fmt.Sprintf("order %s created but line items failed: %v", e.Number, e.Err)
}

func (e *PartialPersistenceError) Unwrap() error { return e.Err }

// Receipt is the successful result of a submission.
type Receipt struct {
	Number    string
	LineCount int
}

// numberPrefix values for the two order-entry paths.
const (
	WebNumberPrefix = "ORD"
	BotNumberPrefix = "TG"
)

// Number derives an order number from the given prefix and time. Uniqueness
// rests on millisecond resolution plus the UNIQUE constraint on the orders
// table.
func Number(prefix string, t time.Time) string {
	return fmt.Sprintf("%s-%d", prefix, t.UnixMilli())
}

// Submitter turns a consolidated cart into a persisted order: one header
// row, one batch of line rows, and a best-effort notification.
type Submitter struct {
	orders   Repository
	notifier Notifier
	lg       *zap.Logger
	now      func() time.Time
}

// SubmitterOption customizes a Submitter.
type SubmitterOption func(*Submitter)

// WithClock overrides the time source used for order numbers.
func WithClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) { s.now = now }
}

// NewSubmitter creates a Submitter. The notifier may be nil, in which case
// no notification is attempted.
func NewSubmitter(orders Repository, notifier Notifier, lg *zap.Logger, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		orders:   orders,
		notifier: notifier,
		lg:       lg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit persists the cart as an order for the given user. On success the
// cart is cleared and a notification is sent in the background. The two
// persistence writes are sequential and non-transactional: a header-only
// order can remain behind when the line batch fails (reported via
// *PartialPersistenceError).
func (s *Submitter) Submit(ctx context.Context, c *cart.Cart, userID int64) (*Receipt, error) {
	if c.Len() == 0 {
		return nil, ErrEmptyCart
	}
	if userID == 0 {
		return nil, ErrMissingUser
	}

	o := &Order{
		Number: Number(WebNumberPrefix, s.now()),
		UserID: userID,
		Status: StatusNew,
	}
	if err := s.orders.CreateHeader(ctx, o); err != nil {
		return nil, &PersistenceError{Err: err}
	}

	lines := toLines(c.Lines())
	if err := s.orders.CreateLines(ctx, o.ID, lines); err != nil {
		return nil, &PartialPersistenceError{Number: o.Number, Err: err}
	}

	c.Clear()
	s.notify(o.Number, o.UserID, lines)

	return &Receipt{Number: o.Number, LineCount: len(lines)}, nil
}

// notify sends the order summary in a detached goroutine. Failures are
// logged and never affect the submission result.
func (s *Submitter) notify(number string, userID int64, lines []Line) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.notifier.NotifyOrder(ctx, userID, FormatSummary(number, lines), lines); err != nil {
			s.lg.Warn("order notification failed",
				zap.String("order_number", number),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}()
}

// FormatSummary renders the human-readable order message sent to the chat.
func FormatSummary(number string, lines []Line) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\U0001F6D2 New Order: %s\n\n", number)
	for _, line := range lines {
		fmt.Fprintf(&b, "• %s x %s\n", line.ItemName, line.Quantity.String())
	}
	fmt.Fprintf(&b, "\nTotal Items: %d", len(lines))
	return b.String()
}

func toLines(cartLines []cart.Line) []Line {
	lines := make([]Line, len(cartLines))
	for i, cl := range cartLines {
		lines[i] = Line{
			ItemName: cl.Name,
			Quantity: cl.Quantity,
			Category: cl.Category,
		}
	}
	return lines
}
