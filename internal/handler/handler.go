// Package handler exposes the storefront JSON API: catalog search, the
// session cart with its search-box command grammar, and order submission.
package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/kalipos/storefront/internal/domain/cart"
	"github.com/kalipos/storefront/internal/domain/catalog"
	"github.com/kalipos/storefront/internal/domain/order"
)

// catalogLimit bounds how many items the full-catalog view used for exact
// name resolution and listing carries.
const catalogLimit = 500

// Handler serves the storefront API.
type Handler struct {
	catalog   catalog.Repository
	carts     cart.Repository
	submitter *order.Submitter
	sessions  *Sessions
}

// New constructs a Handler with the required domain dependencies.
func New(cat catalog.Repository, carts cart.Repository, submitter *order.Submitter) *Handler {
	return &Handler{
		catalog:   cat,
		carts:     carts,
		submitter: submitter,
		sessions:  NewSessions(),
	}
}

// Register mounts all API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/items", h.listItems)
	mux.HandleFunc("POST /api/cart/input", h.cartInput)
	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeCartItem)
	mux.HandleFunc("POST /api/cart/save", h.saveCart)
	mux.HandleFunc("POST /api/cart/restore", h.restoreCart)
	mux.HandleFunc("GET /api/carts", h.listSavedCarts)
	mux.HandleFunc("POST /api/orders", h.placeOrder)
}

// writeJSON writes a jx-encoded body with the given status.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the {code, message} error shape.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.ObjStart()
	e.FieldStart("item_count")
	e.Int(c.Len())
	e.FieldStart("total_quantity")
	e.Str(c.TotalQuantity().String())
	e.FieldStart("lines")
	e.ArrStart()
	for _, line := range c.Lines() {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(line.ID)
		e.FieldStart("item_name")
		e.Str(line.Name)
		e.FieldStart("category")
		e.Str(line.Category)
		e.FieldStart("quantity")
		e.Str(line.Quantity.String())
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeItem(e *jx.Encoder, item catalog.Item) {
	e.ObjStart()
	e.FieldStart("item_name")
	e.Str(item.Name)
	e.FieldStart("category")
	e.Str(item.Category)
	e.FieldStart("default_supplier")
	e.Str(item.Supplier)
	if item.Unit != "" {
		e.FieldStart("unit")
		e.Str(item.Unit)
	}
	e.ObjEnd()
}
