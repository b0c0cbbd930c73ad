package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/trademill/wholesale-api/internal/domain/inventory"
	"github.com/trademill/wholesale-api/internal/domain/order"
)

// Quote serves POST /api/quote: a full pricing preview that persists nothing
// and never touches stock.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	lines, err := decodeLines(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	q, err := h.orders.Quote(r.Context(), lines)
	if err != nil {
		respondOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			encodeTotals(e, q.Lines, q.Subtotal, q.Discounts, q.Total, q.FreeShipping)
		})
	})
}

// decodeLines parses the shared quote/order request body:
// {"lines":[{"productId":"...","quantity":2,"unit":"pack"}]}.
// A missing unit defaults to base units.
func decodeLines(r *http.Request) ([]order.Line, error) {
	d := jx.Decode(r.Body, 4096)

	var lines []order.Line
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "lines" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			l := order.Line{Unit: inventory.UnitBase}
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "productId":
					l.ProductID, err = d.Str()
				case "quantity":
					l.Quantity, err = d.Int()
				case "unit":
					var s string
					if s, err = d.Str(); err == nil && s != "" {
						l.Unit = inventory.Unit(s)
					}
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			lines = append(lines, l)
			return nil
		})
	}); err != nil {
		return nil, errors.Wrap(err, "decode request body")
	}
	return lines, nil
}

// respondOrderError maps domain errors from quoting and placement to HTTP
// status codes. Unknown errors become opaque 500s.
func respondOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound *order.ProductNotFoundError
		badQty   *order.InvalidQuantityError
		noStock  *order.InsufficientStockError
	)
	switch {
	case errors.Is(err, order.ErrEmptyLines):
		writeError(w, http.StatusBadRequest, "empty_order", err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusUnprocessableEntity, "product_not_found", err.Error())
	case errors.As(err, &badQty):
		writeError(w, http.StatusUnprocessableEntity, "invalid_quantity", err.Error())
	case errors.As(err, &noStock):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_stock", err.Error())
	default:
		internalError(w, r, err)
	}
}

// encodeTotals writes the line and totals fields shared by quote and order
// responses into an already-open object.
func encodeTotals(e *jx.Encoder, lines []order.PricedLine, subtotal, discounts, total decimal.Decimal, freeShipping bool) {
	e.Field("lines", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range lines {
				encodeLine(e, &lines[i])
			}
		})
	})
	e.Field("subtotal", func(e *jx.Encoder) { money(e, subtotal) })
	e.Field("discounts", func(e *jx.Encoder) { money(e, discounts) })
	e.Field("total", func(e *jx.Encoder) { money(e, total) })
	e.Field("freeShipping", func(e *jx.Encoder) { e.Bool(freeShipping) })
}

func encodeLine(e *jx.Encoder, pl *order.PricedLine) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(pl.ProductID) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(pl.Quantity) })
		e.Field("unit", func(e *jx.Encoder) { e.Str(string(pl.Unit)) })
		e.Field("baseUnits", func(e *jx.Encoder) { e.Int64(pl.BaseUnits) })
		e.Field("unitPrice", func(e *jx.Encoder) { money(e, pl.UnitPrice) })
		e.Field("lineTotal", func(e *jx.Encoder) { money(e, pl.LineTotal) })
		e.Field("discount", func(e *jx.Encoder) { money(e, pl.Pricing.TotalDiscount) })
		e.Field("discountPercent", func(e *jx.Encoder) { money(e, pl.Pricing.DiscountPercent) })
		e.Field("freeItems", func(e *jx.Encoder) { e.Int(pl.Pricing.FreeItems) })
		e.Field("appliedOffers", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, a := range pl.Pricing.AppliedOffers {
					e.Obj(func(e *jx.Encoder) {
						e.Field("type", func(e *jx.Encoder) { e.Str(string(a.Type)) })
						e.Field("label", func(e *jx.Encoder) { e.Str(a.Label) })
					})
				}
			})
		})
	})
}
