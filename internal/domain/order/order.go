package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trademill/wholesale-api/internal/domain/inventory"
	"github.com/trademill/wholesale-api/internal/domain/pricing"
)

// Line is one requested order line: a product, a quantity and the unit the
// quantity is expressed in.
type Line struct {
	ProductID string         `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Unit      inventory.Unit `json:"unit"`
}

// PricedLine is a line after promotional pricing and unit conversion.
type PricedLine struct {
	ProductID string         `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Unit      inventory.Unit `json:"unit"`
	// BaseUnits is the paid quantity converted to base units; stock is
	// decremented by this plus the free items granted below.
	BaseUnits int64 `json:"base_units"`
	// Pricing is the full promotional pricing breakdown for this line,
	// computed per base unit.
	Pricing pricing.Result `json:"-"`

	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Order is a persisted, fully priced order.
type Order struct {
	ID           string
	Lines        []PricedLine
	Subtotal     decimal.Decimal
	Discounts    decimal.Decimal
	Total        decimal.Decimal
	FreeShipping bool
	CreatedAt    time.Time
}

// Quote is the non-persisted pricing preview for a set of lines.
type Quote struct {
	Lines        []PricedLine
	Subtotal     decimal.Decimal
	Discounts    decimal.Decimal
	Total        decimal.Decimal
	FreeShipping bool
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
