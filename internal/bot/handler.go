// Package bot implements the Telegram order-entry path: inline catalog
// search, per-tap order creation, and the /start command. Each update is
// handled to completion independently; there is no cross-update state.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kalipos/storefront/internal/domain/catalog"
	"github.com/kalipos/storefront/internal/domain/order"
	"github.com/kalipos/storefront/internal/telegram"
)

const (
	// resultLimit bounds how many catalog items one inline answer carries.
	resultLimit = 50
	// inlineCacheSeconds is the cache_time sent with inline answers.
	inlineCacheSeconds = 300
	// recentOrdersLimit bounds the show_orders read-back.
	recentOrdersLimit = 5
	// categoryPrefix starts the category-selection inline flow.
	categoryPrefix = "cat"
)

// categories is the fixed menu offered by the "cat" inline flow.
var categories = []string{"cleaning", "box", "ustensil", "plastic bag", "kitchen roll", "cheese"}

// Config holds non-dependency settings for the Handler.
type Config struct {
	// WebAppURL is the storefront URL attached to the /start keyboard.
	WebAppURL string
}

// Handler processes one webhook update per invocation. It always answers
// the transport with 200 and a JSON body; internal failures surface to the
// user as callback acknowledgments, never as 5xx.
type Handler struct {
	cfg     Config
	catalog catalog.Repository
	orders  order.Repository
	api     telegram.BotAPI
	now     func() time.Time
}

// Option customizes a Handler.
type Option func(*Handler)

// WithClock overrides the time source used for order numbers.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New creates a bot Handler.
func New(cfg Config, cat catalog.Repository, orders order.Repository, api telegram.BotAPI, opts ...Option) *Handler {
	h := &Handler{
		cfg:     cfg,
		catalog: cat,
		orders:  orders,
		api:     api,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP is the webhook endpoint. Malformed bodies and unrecognized
// update shapes are logged and acknowledged with success so the platform
// does not retry them forever.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		lg.Warn("malformed webhook update", zap.Error(err))
		writeWebhookResult(w, false)
		return
	}

	ok := true
	switch {
	case update.InlineQuery != nil:
		ok = h.handleInlineQuery(ctx, update.InlineQuery)
	case update.CallbackQuery != nil:
		ok = h.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		ok = h.handleMessage(ctx, update.Message)
	default:
		lg.Debug("update carries no known payload", zap.Int64("update_id", update.UpdateID))
	}

	writeWebhookResult(w, ok)
}

// handleInlineQuery answers search-as-you-type requests with catalog items,
// each carrying the fixed quantity keyboard.
func (h *Handler) handleInlineQuery(ctx context.Context, q *telegram.InlineQuery) bool {
	lg := zctx.From(ctx)

	results, err := h.inlineResults(ctx, q.Query)
	if err != nil {
		lg.Error("inline query lookup failed", zap.String("query", q.Query), zap.Error(err))
		results = nil // answer with an empty set rather than leaving a spinner
	}

	if err := h.api.AnswerInlineQuery(ctx, q.ID, results, inlineCacheSeconds); err != nil {
		lg.Error("answer inline query failed", zap.Error(err))
		return false
	}
	return true
}

// inlineResults resolves the query into article results. The "cat" prefix
// opens the fixed category menu; "cat <n>" lists that category; an empty
// query lists the catalog head; anything else is a fuzzy search.
func (h *Handler) inlineResults(ctx context.Context, query string) ([]telegram.ArticleResult, error) {
	if rest, ok := categoryRest(query); ok {
		if rest == "" {
			return categoryMenu(), nil
		}
		num := 0
		if _, err := fmt.Sscanf(rest, "%d", &num); err == nil && num >= 1 && num <= len(categories) {
			items, err := h.catalog.ListByCategory(ctx, categories[num-1], resultLimit)
			if err != nil {
				return nil, errors.Wrap(err, "list by category")
			}
			return itemResults(fmt.Sprintf("item_%d", num), items), nil
		}
		return nil, nil
	}

	if strings.TrimSpace(query) == "" {
		items, err := h.catalog.List(ctx, resultLimit)
		if err != nil {
			return nil, errors.Wrap(err, "list items")
		}
		return itemResults("all_item", items), nil
	}

	items, err := h.catalog.Search(ctx, query, resultLimit)
	if err != nil {
		return nil, errors.Wrap(err, "search items")
	}
	return itemResults("search", items), nil
}

// categoryRest reports whether the query enters the category flow and
// returns the remainder after the prefix.
func categoryRest(query string) (string, bool) {
	if strings.TrimSpace(query) == categoryPrefix {
		return "", true
	}
	if rest, ok := strings.CutPrefix(query, categoryPrefix+" "); ok {
		return strings.TrimSpace(rest), true
	}
	return "", false
}

func categoryMenu() []telegram.ArticleResult {
	results := make([]telegram.ArticleResult, len(categories))
	for i, cat := range categories {
		title := strings.ToUpper(cat[:1]) + cat[1:]
		results[i] = telegram.ArticleResult{
			ID:          fmt.Sprintf("category_%d", i+1),
			Title:       fmt.Sprintf("%d. %s", i+1, title),
			Description: fmt.Sprintf("Type %q to see %s items", fmt.Sprintf("cat %d", i+1), cat),
			MessageText: "Category: " + cat,
		}
	}
	return results
}

func itemResults(idPrefix string, items []catalog.Item) []telegram.ArticleResult {
	results := make([]telegram.ArticleResult, len(items))
	for i, item := range items {
		results[i] = telegram.ArticleResult{
			ID:          fmt.Sprintf("%s_%d", idPrefix, i),
			Title:       item.Name,
			Description: item.Category + " - " + item.Supplier,
			MessageText: "Selected: " + item.Name,
			Keyboard:    quantityKeyboard(item.Name),
		}
	}
	return results
}

// quantityKeyboard builds the fixed quantity-selection actions attached to
// every item result.
func quantityKeyboard(name string) *telegram.InlineKeyboard {
	btn := func(label, qty string) telegram.InlineKeyboardButton {
		return telegram.InlineKeyboardButton{
			Text:         label,
			CallbackData: "add_item:" + name + ":" + qty,
		}
	}
	return &telegram.InlineKeyboard{Rows: [][]telegram.InlineKeyboardButton{
		{btn("1", "1"), btn("2", "2"), btn("3", "3")},
		{btn("5", "5"), btn("10", "10"), {Text: "Custom", CallbackData: "custom_qty:" + name}},
	}}
}

// handleCallbackQuery dispatches a button tap by its colon-delimited action
// token. Every path acknowledges the callback, even on failure, so the
// client UI never shows a stuck spinner.
func (h *Handler) handleCallbackQuery(ctx context.Context, cb *telegram.CallbackQuery) bool {
	lg := zctx.From(ctx)

	chatID := int64(0)
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}

	switch {
	case cb.Data == "show_orders":
		return h.showOrders(ctx, cb, chatID)
	case strings.HasPrefix(cb.Data, "add_item:"):
		return h.addItem(ctx, cb, chatID)
	case strings.HasPrefix(cb.Data, "custom_qty:"):
		return h.ack(ctx, cb.ID, "Use the numeric buttons to pick a quantity")
	default:
		lg.Debug("unknown callback action", zap.String("data", cb.Data))
		return h.ack(ctx, cb.ID, "")
	}
}

// addItem creates a brand-new single-line order for one tapped item. Taps
// deliberately do not consolidate: each one is an independent order.
func (h *Handler) addItem(ctx context.Context, cb *telegram.CallbackQuery, chatID int64) bool {
	lg := zctx.From(ctx)

	name, qty, err := parseAddItem(cb.Data)
	if err != nil {
		lg.Warn("bad add_item callback", zap.String("data", cb.Data), zap.Error(err))
		h.ack(ctx, cb.ID, "Invalid action")
		return false
	}

	item, err := h.catalog.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			h.ack(ctx, cb.ID, "Item not found")
			return false
		}
		lg.Error("catalog lookup failed", zap.String("item", name), zap.Error(err))
		h.ack(ctx, cb.ID, "Error looking up item")
		return false
	}

	o := &order.Order{
		Number: order.Number(order.BotNumberPrefix, h.now()),
		UserID: cb.From.ID,
		Status: order.StatusNew,
	}
	if err := h.orders.CreateHeader(ctx, o); err != nil {
		lg.Error("create order failed", zap.String("order_number", o.Number), zap.Error(err))
		h.ack(ctx, cb.ID, "Error saving order")
		return false
	}

	line := order.Line{ItemName: item.Name, Quantity: qty, Category: item.Category}
	if err := h.orders.CreateLines(ctx, o.ID, []order.Line{line}); err != nil {
		// Header already committed; accepted inconsistency, reported to the
		// user as a failure.
		lg.Error("create order line failed", zap.String("order_number", o.Number), zap.Error(err))
		h.ack(ctx, cb.ID, "Error saving order")
		return false
	}

	ok := h.ack(ctx, cb.ID, fmt.Sprintf("Added %q to your order!", item.Name))
	if chatID != 0 {
		text := fmt.Sprintf("Order Created:\n%s\n\n%s (Qty: %s)", o.Number, item.Name, qty.String())
		if err := h.api.SendMessage(ctx, chatID, text, nil); err != nil {
			lg.Warn("order confirmation message failed", zap.Error(err))
		}
	}
	return ok
}

// parseAddItem splits "add_item:<name>:<qty>". Item names may themselves
// contain colons, so the quantity is taken from the last segment.
func parseAddItem(data string) (string, decimal.Decimal, error) {
	rest, ok := strings.CutPrefix(data, "add_item:")
	if !ok {
		return "", decimal.Zero, errors.New("missing add_item prefix")
	}
	sep := strings.LastIndexByte(rest, ':')
	if sep <= 0 || sep == len(rest)-1 {
		return "", decimal.Zero, errors.New("malformed add_item payload")
	}
	qty, err := decimal.NewFromString(rest[sep+1:])
	if err != nil || qty.Sign() <= 0 {
		return "", decimal.Zero, errors.Errorf("bad quantity %q", rest[sep+1:])
	}
	return rest[:sep], qty, nil
}

// showOrders renders the user's most recent orders into a summary message.
func (h *Handler) showOrders(ctx context.Context, cb *telegram.CallbackQuery, chatID int64) bool {
	lg := zctx.From(ctx)

	recent, err := h.orders.RecentByUser(ctx, cb.From.ID, recentOrdersLimit)
	if err != nil {
		lg.Error("fetch recent orders failed", zap.Int64("user_id", cb.From.ID), zap.Error(err))
		h.ack(ctx, cb.ID, "Error fetching orders")
		return false
	}

	var b strings.Builder
	b.WriteString("Your Recent Orders:\n\n")
	if len(recent) == 0 {
		b.WriteString("No orders found. Start ordering using the POS app!")
	}
	for _, ow := range recent {
		fmt.Fprintf(&b, "%s (%s)\nStatus: %s\n", ow.Order.Number, ow.Order.CreatedAt.Format("2006-01-02"), ow.Order.Status)
		for _, line := range ow.Lines {
			fmt.Fprintf(&b, "• %s: %s\n", line.ItemName, line.Quantity.String())
		}
		b.WriteString("\n")
	}

	if chatID != 0 {
		if err := h.api.SendMessage(ctx, chatID, b.String(), nil); err != nil {
			lg.Warn("send order summary failed", zap.Error(err))
		}
	}
	return h.ack(ctx, cb.ID, "Orders displayed")
}

// handleMessage covers the plain-message path: /start gets the POS keyboard,
// anything else gets a usage hint.
func (h *Handler) handleMessage(ctx context.Context, msg *telegram.Message) bool {
	lg := zctx.From(ctx)
	if msg.Text == "" {
		return true
	}

	var (
		text     string
		keyboard *telegram.InlineKeyboard
	)
	if strings.TrimSpace(msg.Text) == "/start" {
		name := ""
		if msg.From != nil {
			name = msg.From.FirstName
		}
		text = fmt.Sprintf("Hi %s!\n\nStart ordering by typing the bot name and an item,\nor order from the POS app below.", name)
		keyboard = &telegram.InlineKeyboard{Rows: [][]telegram.InlineKeyboardButton{
			{{Text: "Open POS App", WebAppURL: h.cfg.WebAppURL}},
			{{Text: "My Orders", CallbackData: "show_orders"}},
		}}
	} else {
		text = fmt.Sprintf("Received: %s\n\nUse inline search to find items, or the POS app button from /start.", msg.Text)
	}

	if err := h.api.SendMessage(ctx, msg.Chat.ID, text, keyboard); err != nil {
		lg.Warn("send message failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		return false
	}
	return true
}

// ack answers a callback query, logging but swallowing transport errors.
func (h *Handler) ack(ctx context.Context, callbackID, text string) bool {
	if err := h.api.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		zctx.From(ctx).Warn("answer callback failed", zap.Error(err))
		return false
	}
	return true
}

func writeWebhookResult(w http.ResponseWriter, ok bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if ok {
		_, _ = w.Write([]byte(`{"success":true}`))
		return
	}
	_, _ = w.Write([]byte(`{"success":false}`))
}
