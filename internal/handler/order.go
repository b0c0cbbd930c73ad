package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
)

// PlaceOrder serves POST /api/orders: prices the lines, decrements stock and
// persists the order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	lines, err := decodeLines(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	o, err := h.orders.PlaceOrder(r.Context(), lines)
	if err != nil {
		respondOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
			encodeTotals(e, o.Lines, o.Subtotal, o.Discounts, o.Total, o.FreeShipping)
			if !o.CreatedAt.IsZero() {
				e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(time.RFC3339)) })
			}
		})
	})
}
