package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/trademill/wholesale-api/internal/domain/inventory"
	"github.com/trademill/wholesale-api/internal/domain/pricing"
)

// Sentinel errors for catalog lookups and stock mutations.
var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a stock decrement would drive
	// the on-hand base units negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product represents a wholesale catalog item.
type Product struct {
	ID       string
	SKU      string
	Name     string
	Category string

	// BasePrice is the undiscounted catalog price per base unit.
	BasePrice decimal.Decimal
	// Sale is the optional simple sale-price override; structured offers
	// suppress it entirely when any of them is eligible.
	Sale *pricing.SalePrice
	// Offers is the ordered structured offer list.
	Offers []pricing.Offer

	// Pack describes how base units aggregate into packs and pallets.
	Pack inventory.PackConfig
	// StockBaseUnits is the on-hand stock, counted in base units.
	StockBaseUnits int64
}

// Repository defines catalog operations.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	// DecrementStock atomically reduces a product's stock by the given base
	// units. It returns ErrInsufficientStock when the product has fewer
	// base units on hand.
	DecrementStock(ctx context.Context, id string, baseUnits int64) error
	// RestoreStock returns previously decremented base units to a product,
	// compensating an order placement that failed after claiming stock.
	RestoreStock(ctx context.Context, id string, baseUnits int64) error
	// UpsertPrice updates the base price for a SKU, used by price-book
	// ingestion. Unknown SKUs are ignored and reported as not updated.
	UpsertPrice(ctx context.Context, sku string, price decimal.Decimal) (bool, error)
}
