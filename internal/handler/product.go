package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/trademill/wholesale-api/internal/domain/product"
)

// ListProducts serves GET /api/products: the full catalog with promotional
// badges and stock breakdowns.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		internalError(w, r, errors.Wrap(err, "list products"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range products {
				h.encodeProduct(e, &products[i])
			}
		})
	})
}

// GetProduct serves GET /api/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		internalError(w, r, errors.Wrap(err, "get product"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeProduct(e, p)
	})
}

func (h *Handler) encodeProduct(e *jx.Encoder, p *product.Product) {
	pallets, packs, units := p.Pack.Breakdown(p.StockBaseUnits)

	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("basePrice", func(e *jx.Encoder) { money(e, p.BasePrice) })
		if p.Sale != nil {
			e.Field("salePrice", func(e *jx.Encoder) { money(e, p.Sale.Price) })
			e.Field("saleActive", func(e *jx.Encoder) { e.Bool(p.Sale.Active) })
		}
		e.Field("offers", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, label := range h.calc.FormatOffers(p.Offers) {
					e.Str(label)
				}
			})
		})
		e.Field("pack", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("unitsPerPack", func(e *jx.Encoder) { e.Int(p.Pack.UnitsPerPack) })
				e.Field("packsPerPallet", func(e *jx.Encoder) { e.Int(p.Pack.PacksPerPallet) })
			})
		})
		e.Field("stock", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("baseUnits", func(e *jx.Encoder) { e.Int64(p.StockBaseUnits) })
				e.Field("pallets", func(e *jx.Encoder) { e.Int64(pallets) })
				e.Field("packs", func(e *jx.Encoder) { e.Int64(packs) })
				e.Field("units", func(e *jx.Encoder) { e.Int64(units) })
			})
		})
	})
}
