package telegram

import (
	"context"

	"github.com/kalipos/storefront/internal/domain/order"
)

// OrderNotifier relays order summaries to the submitting user's chat. The
// user id doubles as the chat id for private bot conversations.
type OrderNotifier struct {
	api BotAPI
}

var _ order.Notifier = (*OrderNotifier)(nil)

// NewOrderNotifier creates an OrderNotifier over the given API.
func NewOrderNotifier(api BotAPI) *OrderNotifier {
	return &OrderNotifier{api: api}
}

// NotifyOrder sends the formatted summary as a chat message. The lines are
// already rendered into the message; they travel separately only so other
// notifier implementations can re-render them.
func (n *OrderNotifier) NotifyOrder(ctx context.Context, userID int64, message string, _ []order.Line) error {
	return n.api.SendMessage(ctx, userID, message, nil)
}
