package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kalipos/storefront/internal/domain/cart"
	"github.com/kalipos/storefront/internal/domain/catalog"
	"github.com/kalipos/storefront/internal/domain/order"
)

// --- Mock implementations ---

type mockCatalog struct {
	items []catalog.Item
	err   error
}

func (m *mockCatalog) List(_ context.Context, limit int) ([]catalog.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.items) > limit {
		return m.items[:limit], nil
	}
	return m.items, nil
}

func (m *mockCatalog) GetByName(_ context.Context, name string) (*catalog.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.items {
		if strings.EqualFold(m.items[i].Name, name) {
			return &m.items[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *mockCatalog) ListByCategory(_ context.Context, category string, _ int) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, item := range m.items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockCatalog) Search(_ context.Context, query string, _ int) ([]catalog.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	q := strings.ToLower(query)
	var out []catalog.Item
	for _, item := range m.items {
		if strings.Contains(strings.ToLower(item.Name), q) {
			out = append(out, item)
		}
	}
	return out, nil
}

type savedCart struct {
	name       string
	userID     int64
	isTemplate bool
	lines      []cart.Line
}

type mockCartRepo struct {
	saveErr error
	saved   []savedCart
}

func (m *mockCartRepo) Save(_ context.Context, name string, userID int64, isTemplate bool, lines []cart.Line) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.saved = append(m.saved, savedCart{name: name, userID: userID, isTemplate: isTemplate, lines: lines})
	return cartIDFor(len(m.saved) - 1), nil
}

func (m *mockCartRepo) Load(_ context.Context, cartID string) ([]cart.Line, error) {
	for i, sc := range m.saved {
		if cartIDFor(i) == cartID {
			return sc.lines, nil
		}
	}
	return nil, nil
}

func (m *mockCartRepo) ListByUser(_ context.Context, userID int64) ([]cart.SavedCart, error) {
	var out []cart.SavedCart
	for i, sc := range m.saved {
		if sc.userID == userID {
			out = append(out, cart.SavedCart{
				ID:         cartIDFor(i),
				Name:       sc.name,
				UserID:     sc.userID,
				IsTemplate: sc.isTemplate,
				CreatedAt:  time.UnixMilli(1700000000000),
			})
		}
	}
	return out, nil
}

func cartIDFor(i int) string {
	return "cart-" + strconv.Itoa(i+1)
}

type mockOrderRepo struct {
	headerErr error
	linesErr  error

	seq     int
	headers []order.Order
	lines   map[string][]order.Line
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{lines: make(map[string][]order.Line)}
}

func (m *mockOrderRepo) CreateHeader(_ context.Context, o *order.Order) error {
	if m.headerErr != nil {
		return m.headerErr
	}
	m.seq++
	o.ID = "order-" + strconv.Itoa(m.seq)
	m.headers = append(m.headers, *o)
	return nil
}

func (m *mockOrderRepo) CreateLines(_ context.Context, orderID string, lines []order.Line) error {
	if m.linesErr != nil {
		return m.linesErr
	}
	m.lines[orderID] = append(m.lines[orderID], lines...)
	return nil
}

func (m *mockOrderRepo) RecentByUser(_ context.Context, _ int64, _ int) ([]order.OrderWithLines, error) {
	return nil, nil
}

// --- Test harness ---

type testAPI struct {
	mux    *http.ServeMux
	carts  *mockCartRepo
	orders *mockOrderRepo
}

func newTestAPI(t *testing.T, items ...catalog.Item) *testAPI {
	t.Helper()
	carts := &mockCartRepo{}
	orders := newMockOrderRepo()
	submitter := order.NewSubmitter(orders, nil, zaptest.NewLogger(t),
		order.WithClock(func() time.Time { return time.UnixMilli(1700000000000) }))

	mux := http.NewServeMux()
	New(&mockCatalog{items: items}, carts, submitter).Register(mux)
	return &testAPI{mux: mux, carts: carts, orders: orders}
}

func (a *testAPI) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, req)

	var decoded map[string]any
	if b := w.Body.Bytes(); len(b) > 0 && b[0] == '{' {
		require.NoError(t, json.Unmarshal(b, &decoded), "body: %s", b)
	}
	return w, decoded
}

func sponge() catalog.Item {
	return catalog.Item{Name: "Sponge", Category: "cleaning", Supplier: "Acme", Origin: catalog.OriginCatalog}
}

func bigBox() catalog.Item {
	return catalog.Item{Name: "Big Box", Category: "box", Supplier: "Acme", Origin: catalog.OriginCatalog}
}

func cartLines(t *testing.T, body map[string]any) []any {
	t.Helper()
	c, ok := body["cart"].(map[string]any)
	if !ok {
		c = body
	}
	lines, _ := c["lines"].([]any)
	return lines
}

// --- Catalog ---

func TestListItems(t *testing.T) {
	api := newTestAPI(t, sponge(), bigBox())

	w, _ := api.do(t, http.MethodGet, "/api/items", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Sponge", items[0]["item_name"])
	assert.Equal(t, "cleaning", items[0]["category"])
}

func TestListItems_Query(t *testing.T) {
	api := newTestAPI(t, sponge(), bigBox())

	w, _ := api.do(t, http.MethodGet, "/api/items?q=box", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Big Box", items[0]["item_name"])
}

// --- Cart input grammar over HTTP ---

func TestCartInput_DigitAddsFilteredItem(t *testing.T) {
	api := newTestAPI(t, sponge(), bigBox())

	w, body := api.do(t, http.MethodPost, "/api/cart/input",
		`{"user_id":7,"text":"spon","key":"3"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "add_item", body["command"])
	assert.Equal(t, true, body["clear_search"])

	lines := cartLines(t, body)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, "Sponge", line["item_name"])
	assert.Equal(t, "3", line["quantity"])
}

func TestCartInput_EnterAdHocItem(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, body := api.do(t, http.MethodPost, "/api/cart/input",
		`{"user_id":7,"text":"Mystery Widget","key":"enter"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	lines := cartLines(t, body)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, "Mystery Widget", line["item_name"])
	assert.Equal(t, "New Item", line["category"])
	assert.Equal(t, "1", line["quantity"])
}

func TestCartInput_ExactNameWinsBeyondListCap(t *testing.T) {
	// An item sorted past the capped list view must still resolve by its
	// exact name instead of losing to the first filtered entry.
	items := make([]catalog.Item, 0, catalogLimit+2)
	items = append(items, catalog.Item{Name: "Apple Juice", Category: "drinks", Origin: catalog.OriginCatalog})
	for i := range catalogLimit - 1 {
		items = append(items, catalog.Item{Name: fmt.Sprintf("Filler %04d", i), Category: "misc", Origin: catalog.OriginCatalog})
	}
	items = append(items, catalog.Item{Name: "Apple", Category: "fruit", Origin: catalog.OriginCatalog})

	api := newTestAPI(t, items...)

	w, body := api.do(t, http.MethodPost, "/api/cart/input",
		`{"user_id":7,"text":"apple","key":"enter"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	lines := cartLines(t, body)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, "Apple", line["item_name"])
	assert.Equal(t, "fruit", line["category"])
}

func TestCartInput_RepeatedAddsConsolidate(t *testing.T) {
	api := newTestAPI(t, sponge())

	api.do(t, http.MethodPost, "/api/cart/input", `{"user_id":7,"text":"spon","key":"2"}`)
	w, body := api.do(t, http.MethodPost, "/api/cart/input", `{"user_id":7,"text":"spon","key":"3"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	lines := cartLines(t, body)
	require.Len(t, lines, 1, "same item and category merge into one line")
	assert.Equal(t, "5", lines[0].(map[string]any)["quantity"])
}

func TestCartInput_SaveCart(t *testing.T) {
	api := newTestAPI(t, sponge())
	api.do(t, http.MethodPost, "/api/cart/input", `{"user_id":7,"text":"spon","key":"1"}`)

	w, body := api.do(t, http.MethodPost, "/api/cart/input",
		`{"user_id":7,"text":"save+Weekly Restock","key":"enter"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "save_cart", body["command"])
	require.Len(t, api.carts.saved, 1)
	assert.Equal(t, "Weekly Restock", api.carts.saved[0].name)
	assert.Equal(t, int64(7), api.carts.saved[0].userID)
	require.Len(t, api.carts.saved[0].lines, 1)
}

func TestCartInput_SaveWithoutName(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, body := api.do(t, http.MethodPost, "/api/cart/input",
		`{"user_id":7,"text":"save+  ","key":"enter"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid", body["command"])
	assert.Equal(t, false, body["clear_search"], "malformed command keeps the search text")
	assert.Empty(t, api.carts.saved)
}

func TestCartInput_SaveEmptyCart(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, _ := api.do(t, http.MethodPost, "/api/cart/input",
		`{"user_id":7,"text":"save+Weekly","key":"enter"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, api.carts.saved)
}

func TestCartInput_CreateOrder(t *testing.T) {
	api := newTestAPI(t, sponge())
	api.do(t, http.MethodPost, "/api/cart/input", `{"user_id":7,"text":"spon","key":"2"}`)

	w, body := api.do(t, http.MethodPost, "/api/cart/input",
		`{"user_id":7,"text":"Create Order","key":"enter"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ORD-1700000000000", body["order_number"])
	require.Len(t, api.orders.headers, 1)

	// The session cart is emptied after a successful submission.
	_, after := api.do(t, http.MethodGet, "/api/cart?user_id=7", "")
	assert.Empty(t, cartLines(t, after))
}

func TestCartInput_DigitWithEmptyFilterIsNoOp(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, body := api.do(t, http.MethodPost, "/api/cart/input",
		`{"user_id":7,"text":"zzz","key":"4"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "noop", body["command"])
	assert.Empty(t, cartLines(t, body))
}

func TestCartInput_BadKey(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, _ := api.do(t, http.MethodPost, "/api/cart/input",
		`{"user_id":7,"text":"spon","key":"0"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartInput_MissingUser(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, _ := api.do(t, http.MethodPost, "/api/cart/input", `{"text":"spon","key":"1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Direct cart manipulation ---

func TestAddCartItem_SessionsAreIndependent(t *testing.T) {
	api := newTestAPI(t, sponge())

	api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"2"}`)
	api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":8,"item_name":"Sponge","category":"cleaning","quantity":"9"}`)

	_, first := api.do(t, http.MethodGet, "/api/cart?user_id=7", "")
	_, second := api.do(t, http.MethodGet, "/api/cart?user_id=8", "")

	require.Len(t, cartLines(t, first), 1)
	assert.Equal(t, "2", cartLines(t, first)[0].(map[string]any)["quantity"])
	require.Len(t, cartLines(t, second), 1)
	assert.Equal(t, "9", cartLines(t, second)[0].(map[string]any)["quantity"])
}

func TestAddCartItem_RejectsNonPositiveQuantity(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, _ := api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"0"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUpdateCartItem_ZeroRemovesLine(t *testing.T) {
	api := newTestAPI(t, sponge())
	_, body := api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"2"}`)
	lineID := cartLines(t, body)[0].(map[string]any)["id"].(string)

	w, after := api.do(t, http.MethodPatch, "/api/cart/items/"+lineID,
		`{"user_id":7,"quantity":"0"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, cartLines(t, after))
}

func TestUpdateCartItem_OverwritesQuantity(t *testing.T) {
	api := newTestAPI(t, sponge())
	_, body := api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"2"}`)
	lineID := cartLines(t, body)[0].(map[string]any)["id"].(string)

	w, after := api.do(t, http.MethodPatch, "/api/cart/items/"+lineID,
		`{"user_id":7,"quantity":"7.5"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, cartLines(t, after), 1)
	assert.Equal(t, "7.5", cartLines(t, after)[0].(map[string]any)["quantity"])
}

func TestRemoveCartItem_AbsentLineSucceeds(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, _ := api.do(t, http.MethodDelete, "/api/cart/items/no-such-line?user_id=7", "")

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Saving carts ---

func TestSaveCart(t *testing.T) {
	api := newTestAPI(t, sponge())
	api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"2"}`)

	w, body := api.do(t, http.MethodPost, "/api/cart/save",
		`{"user_id":7,"name":"Weekly","is_template":true}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cart-1", body["cart_id"])
	require.Len(t, api.carts.saved, 1)
	assert.True(t, api.carts.saved[0].isTemplate)
}

func TestSavedCartRoundTrip(t *testing.T) {
	api := newTestAPI(t, sponge())
	api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"2"}`)

	w, body := api.do(t, http.MethodPost, "/api/cart/save", `{"user_id":7,"name":"Weekly"}`)
	require.Equal(t, http.StatusOK, w.Code)
	cartID := body["cart_id"].(string)

	// Wipe the session cart, then restore the saved one into it.
	api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"1"}`)
	w, restored := api.do(t, http.MethodPost, "/api/cart/restore",
		`{"user_id":7,"cart_id":"`+cartID+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	lines := cartLines(t, restored)
	require.Len(t, lines, 1)
	assert.Equal(t, "Sponge", lines[0].(map[string]any)["item_name"])
	assert.Equal(t, "2", lines[0].(map[string]any)["quantity"], "restore replaces, not merges")
}

func TestRestoreCart_Unknown(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, _ := api.do(t, http.MethodPost, "/api/cart/restore",
		`{"user_id":7,"cart_id":"no-such-cart"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSavedCarts(t *testing.T) {
	api := newTestAPI(t, sponge())
	api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"2"}`)
	api.do(t, http.MethodPost, "/api/cart/save", `{"user_id":7,"name":"Weekly","is_template":true}`)

	w, _ := api.do(t, http.MethodGet, "/api/carts?user_id=7", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var saved []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, "Weekly", saved[0]["name"])
	assert.Equal(t, true, saved[0]["is_template"])

	// Another user sees nothing.
	w, _ = api.do(t, http.MethodGet, "/api/carts?user_id=8", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestSaveCart_Empty(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, _ := api.do(t, http.MethodPost, "/api/cart/save", `{"user_id":7,"name":"Weekly"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// --- Orders ---

func TestPlaceOrder(t *testing.T) {
	api := newTestAPI(t, sponge(), bigBox())
	api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"2"}`)
	api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Big Box","category":"box","quantity":"1"}`)

	w, body := api.do(t, http.MethodPost, "/api/orders", `{"user_id":7}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ORD-1700000000000", body["order_number"])
	assert.Equal(t, float64(2), body["line_count"])

	require.Len(t, api.orders.headers, 1)
	lines := api.orders.lines[api.orders.headers[0].ID]
	require.Len(t, lines, 2)
	assert.Equal(t, "Sponge", lines[0].ItemName)
	assert.True(t, decimal.NewFromInt(2).Equal(lines[0].Quantity))
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	api := newTestAPI(t, sponge())

	w, body := api.do(t, http.MethodPost, "/api/orders", `{"user_id":7}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cart is empty", body["message"])
	assert.Empty(t, api.orders.headers)
}

func TestPlaceOrder_PartialWrite(t *testing.T) {
	api := newTestAPI(t, sponge())
	api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"2"}`)
	api.orders.linesErr = errors.New("db down")

	w, body := api.do(t, http.MethodPost, "/api/orders", `{"user_id":7}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "ORD-1700000000000", body["order_number"], "committed header number is reported")

	// The cart survives so the user does not lose their work.
	_, after := api.do(t, http.MethodGet, "/api/cart?user_id=7", "")
	require.Len(t, cartLines(t, after), 1)
}

func TestPlaceOrder_HeaderFailure(t *testing.T) {
	api := newTestAPI(t, sponge())
	api.do(t, http.MethodPost, "/api/cart/items",
		`{"user_id":7,"item_name":"Sponge","category":"cleaning","quantity":"2"}`)
	api.orders.headerErr = errors.New("db down")

	w, body := api.do(t, http.MethodPost, "/api/orders", `{"user_id":7}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to create order", body["message"])
}
