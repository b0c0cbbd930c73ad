// Package handler implements the JSON HTTP API: catalog reads, pricing
// quotes and order placement.
package handler

import (
	"net/http"

	"github.com/trademill/wholesale-api/internal/domain/order"
	"github.com/trademill/wholesale-api/internal/domain/pricing"
	"github.com/trademill/wholesale-api/internal/domain/product"
)

// Handler serves the API endpoints, delegating business logic to the order
// service and product repository.
type Handler struct {
	products product.Repository
	orders   *order.Service
	calc     *pricing.Calculator
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(products product.Repository, orders *order.Service, calc *pricing.Calculator) *Handler {
	return &Handler{
		products: products,
		orders:   orders,
		calc:     calc,
	}
}

// Register mounts all API routes on the mux. Mutating endpoints are wrapped
// with the given authentication middleware.
func (h *Handler) Register(mux *http.ServeMux, authn func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.Handle("POST /api/quote", authn(http.HandlerFunc(h.Quote)))
	mux.Handle("POST /api/orders", authn(http.HandlerFunc(h.PlaceOrder)))
}
