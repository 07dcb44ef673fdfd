package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kalipos/storefront/internal/domain/catalog"
)

// listItems returns the catalog, optionally filtered by the q parameter.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		items []catalog.Item
		err   error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		items, err = h.catalog.Search(ctx, q, catalogLimit)
	} else {
		items, err = h.catalog.List(ctx, catalogLimit)
	}
	if err != nil {
		zctx.From(ctx).Error("list items failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, item := range items {
			encodeItem(e, item)
		}
		e.ArrEnd()
	})
}
