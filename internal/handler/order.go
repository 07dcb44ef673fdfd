package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kalipos/storefront/internal/domain/order"
)

type placeOrderRequest struct {
	UserID int64 `json:"user_id"`
}

// placeOrder submits the session cart as a persisted order.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	h.submitCart(w, r, req.UserID)
}

// submitCart runs the submission pipeline and maps its error taxonomy onto
// HTTP responses. A partial write reports 500 but includes the committed
// order number so retries know state was left behind.
func (h *Handler) submitCart(w http.ResponseWriter, r *http.Request, userID int64) {
	ctx := r.Context()

	receipt, err := h.submitter.Submit(ctx, h.sessions.Cart(userID), userID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, order.ErrMissingUser):
			writeError(w, http.StatusBadRequest, "user identity required")
		default:
			var partial *order.PartialPersistenceError
			if errors.As(err, &partial) {
				zctx.From(ctx).Error("partial order write", zap.String("order_number", partial.Number), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, func(e *jx.Encoder) {
					e.ObjStart()
					e.FieldStart("code")
					e.Int(http.StatusInternalServerError)
					e.FieldStart("message")
					e.Str("order created without items; do not assume a clean retry")
					e.FieldStart("order_number")
					e.Str(partial.Number)
					e.ObjEnd()
				})
				return
			}
			zctx.From(ctx).Error("order submission failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to create order")
		}
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("order_number")
		e.Str(receipt.Number)
		e.FieldStart("line_count")
		e.Int(receipt.LineCount)
		e.ObjEnd()
	})
}
