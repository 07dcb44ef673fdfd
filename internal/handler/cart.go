package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kalipos/storefront/internal/domain/cart"
	"github.com/kalipos/storefront/internal/domain/catalog"
)

type cartInputRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
	Key    string `json:"key"` // "enter" or a digit "1".."9"
}

type addItemRequest struct {
	UserID   int64           `json:"user_id"`
	ItemName string          `json:"item_name"`
	Category string          `json:"category"`
	Quantity decimal.Decimal `json:"quantity"`
}

type updateItemRequest struct {
	UserID   int64           `json:"user_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type saveCartRequest struct {
	UserID     int64  `json:"user_id"`
	Name       string `json:"name"`
	IsTemplate bool   `json:"is_template"`
}

// cartInput routes one search-box event through the command grammar and
// executes the resulting command against the session cart.
func (h *Handler) cartInput(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)

	var req cartInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	key := cart.KeyEnter
	if req.Key != "enter" && req.Key != "" {
		d, err := strconv.Atoi(req.Key)
		if err != nil {
			writeError(w, http.StatusBadRequest, "key must be \"enter\" or a digit 1-9")
			return
		}
		k, ok := cart.DigitKey(d)
		if !ok {
			writeError(w, http.StatusBadRequest, "key must be \"enter\" or a digit 1-9")
			return
		}
		key = k
	}

	full, err := h.catalog.List(ctx, catalogLimit)
	if err != nil {
		lg.Error("load catalog failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	// The list view is capped, so an exact name match is resolved through a
	// direct lookup; an item past the cap must still win over the first
	// filtered entry.
	if trimmed := strings.TrimSpace(req.Text); trimmed != "" {
		exact, err := h.catalog.GetByName(ctx, trimmed)
		switch {
		case err == nil:
			full = append([]catalog.Item{*exact}, full...)
		case !errors.Is(err, catalog.ErrNotFound):
			lg.Error("resolve item failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load catalog")
			return
		}
	}

	filtered := full
	if req.Text != "" {
		filtered, err = h.catalog.Search(ctx, req.Text, catalogLimit)
		if err != nil {
			lg.Error("filter catalog failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load catalog")
			return
		}
	}

	cmd := cart.Evaluate(cart.Input{
		Text:     req.Text,
		Key:      key,
		Catalog:  full,
		Filtered: filtered,
	})

	h.executeCommand(w, r, req.UserID, cmd)
}

// executeCommand applies one parsed command and writes the outcome. The
// response carries clear_search so the client knows when to reset the box.
func (h *Handler) executeCommand(w http.ResponseWriter, r *http.Request, userID int64, cmd cart.Command) {
	ctx := r.Context()
	c := h.sessions.Cart(userID)

	respond := func(status int, op, message string) {
		writeJSON(w, status, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("command")
			e.Str(op)
			e.FieldStart("clear_search")
			e.Bool(cmd.ClearsSearch())
			e.FieldStart("message")
			e.Str(message)
			e.FieldStart("cart")
			encodeCart(e, c)
			e.ObjEnd()
		})
	}

	switch cmd.Op {
	case cart.OpAddItem:
		c.Add(cmd.Item.Name, cmd.Item.Category, cmd.Quantity)
		respond(http.StatusOK, "add_item", cmd.Item.Name+" added to cart")

	case cart.OpSaveCart:
		if c.Len() == 0 {
			respond(http.StatusUnprocessableEntity, "save_cart", "cannot save an empty cart")
			return
		}
		if _, err := h.carts.Save(ctx, cmd.Name, userID, false, c.Lines()); err != nil {
			zctx.From(ctx).Error("save cart failed", zap.String("name", cmd.Name), zap.Error(err))
			respond(http.StatusInternalServerError, "save_cart", "failed to save cart")
			return
		}
		respond(http.StatusOK, "save_cart", "cart saved as "+cmd.Name)

	case cart.OpCreateOrder:
		h.submitCart(w, r, userID)

	case cart.OpInvalid:
		respond(http.StatusUnprocessableEntity, "invalid", "specify a cart name: save+MyCart")

	default:
		respond(http.StatusOK, "noop", "")
	}
}

// getCart returns the session cart.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, h.sessions.Cart(userID))
	})
}

// addCartItem merges one item into the session cart directly, bypassing the
// command grammar (the tap-to-add path of the catalog table).
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || req.ItemName == "" {
		writeError(w, http.StatusBadRequest, "user_id and item_name required")
		return
	}
	if req.Quantity.Sign() <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "quantity must be greater than 0")
		return
	}

	c := h.sessions.Cart(req.UserID)
	c.Add(req.ItemName, req.Category, req.Quantity)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, c) })
}

// updateCartItem overwrites one line's quantity; zero or less removes it.
func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	c := h.sessions.Cart(req.UserID)
	c.SetQuantity(r.PathValue("id"), req.Quantity)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, c) })
}

// removeCartItem deletes one line; removing an absent line succeeds.
func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}
	c := h.sessions.Cart(userID)
	c.Remove(r.PathValue("id"))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, c) })
}

// saveCart persists the session cart under a name.
func (h *Handler) saveCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req saveCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || req.Name == "" {
		writeError(w, http.StatusBadRequest, "user_id and name required")
		return
	}

	c := h.sessions.Cart(req.UserID)
	if c.Len() == 0 {
		writeError(w, http.StatusUnprocessableEntity, "cannot save an empty cart")
		return
	}

	cartID, err := h.carts.Save(ctx, req.Name, req.UserID, req.IsTemplate, c.Lines())
	if err != nil {
		zctx.From(ctx).Error("save cart failed", zap.String("name", req.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("cart_id")
		e.Str(cartID)
		e.FieldStart("name")
		e.Str(req.Name)
		e.ObjEnd()
	})
}

// listSavedCarts returns the user's saved cart headers, newest first.
func (h *Handler) listSavedCarts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromQuery(w, r)
	if !ok {
		return
	}

	saved, err := h.carts.ListByUser(ctx, userID)
	if err != nil {
		zctx.From(ctx).Error("list saved carts failed", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list carts")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, sc := range saved {
			e.ObjStart()
			e.FieldStart("cart_id")
			e.Str(sc.ID)
			e.FieldStart("name")
			e.Str(sc.Name)
			e.FieldStart("is_template")
			e.Bool(sc.IsTemplate)
			e.FieldStart("created_at")
			e.Str(sc.CreatedAt.Format(time.RFC3339))
			e.ObjEnd()
		}
		e.ArrEnd()
	})
}

type restoreCartRequest struct {
	UserID int64  `json:"user_id"`
	CartID string `json:"cart_id"`
}

// restoreCart replaces the session cart with a previously saved one.
func (h *Handler) restoreCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req restoreCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || req.CartID == "" {
		writeError(w, http.StatusBadRequest, "user_id and cart_id required")
		return
	}

	lines, err := h.carts.Load(ctx, req.CartID)
	if err != nil {
		zctx.From(ctx).Error("load cart failed", zap.String("cart_id", req.CartID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if len(lines) == 0 {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}

	c := h.sessions.Cart(req.UserID)
	c.Restore(lines)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, c) })
}

func userIDFromQuery(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID == 0 {
		writeError(w, http.StatusBadRequest, "user_id required")
		return 0, false
	}
	return userID, true
}
