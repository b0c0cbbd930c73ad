// Package pricing implements the promotional pricing engine: a stateless
// evaluator that applies an ordered list of offer rules to a base price and
// quantity, producing an effective unit price, accumulated discounts, free
// items and human-readable offer labels.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferType discriminates the promotional offer variants.
type OfferType string

const (
	// TypePercentage reduces the effective price by a percentage.
	TypePercentage OfferType = "percentage_discount"
	// TypeFixedDiscount reduces the effective price by a fixed amount per unit.
	TypeFixedDiscount OfferType = "fixed_discount"
	// TypeFixedPrice overrides the effective price with an absolute price,
	// but only when it is lower than the current effective price.
	TypeFixedPrice OfferType = "fixed_price"
	// TypeBuyXGetY grants free bonus units per purchased set.
	TypeBuyXGetY OfferType = "buy_x_get_y_free"
	// TypeMultiBuy applies a percentage or fixed reduction once the order
	// quantity reaches a threshold.
	TypeMultiBuy OfferType = "multi_buy"
	// TypeBulkPrice sets an absolute per-unit price once the order quantity
	// reaches a threshold, when lower than the current effective price.
	TypeBulkPrice OfferType = "bulk_tier"
	// TypeVolumeTiers selects the best-matching tier from an ordered tier
	// list by order quantity.
	TypeVolumeTiers OfferType = "bulk_discount"
	// TypeFreeShipping never alters the unit price; it only contributes a
	// label when the order subtotal meets the minimum.
	TypeFreeShipping OfferType = "free_shipping"
	// TypeBundle applies an absolute bundle price, falling back to a
	// percentage or fixed reduction.
	TypeBundle OfferType = "bundle_deal"

	// TypeSalePrice is the pseudo-type reported for the simple sale-price
	// override. It never appears on an Offer.
	TypeSalePrice OfferType = "sale_price"
)

// DiscountKind selects between a percentage and a fixed monetary reduction.
type DiscountKind string

const (
	// KindPercent interprets the value as a percentage of the current price.
	KindPercent DiscountKind = "percentage"
	// KindFixed interprets the value as a monetary amount per unit.
	KindFixed DiscountKind = "fixed"
)

// Reduction is a percentage-or-fixed discount value used by the multi-buy
// and bundle variants.
type Reduction struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

// PercentageDiscount reduces the running effective price by Percent percent.
type PercentageDiscount struct {
	Percent decimal.Decimal
}

// FixedDiscount reduces the running effective price by Amount, floored at zero.
type FixedDiscount struct {
	Amount decimal.Decimal
}

// FixedPrice replaces the running effective price with Price when lower.
type FixedPrice struct {
	Price decimal.Decimal
}

// BuyXGetY grants Get free units for every Buy purchased units.
type BuyXGetY struct {
	Buy int
	Get int
}

// MultiBuy applies Discount once the order quantity reaches MinQuantity.
type MultiBuy struct {
	MinQuantity int
	Discount    Reduction
}

// BulkPrice sets PricePerUnit once the order quantity reaches MinQuantity,
// when lower than the running effective price.
type BulkPrice struct {
	MinQuantity  int
	PricePerUnit decimal.Decimal
}

// VolumeTier is one row of a volume pricing ladder. Exactly one of
// PricePerUnit, Percent or Amount is expected; when several are present the
// evaluator prefers them in that order.
type VolumeTier struct {
	MinQuantity  int
	PricePerUnit *decimal.Decimal
	Percent      *decimal.Decimal
	Amount       *decimal.Decimal
}

// VolumeTiers holds an ordered volume pricing ladder. The applicable tier is
// the one with the highest MinQuantity not exceeding the order quantity;
// when two tiers share that threshold, the later one in the list wins.
type VolumeTiers struct {
	Tiers []VolumeTier
}

// FreeShipping contributes a label when the order subtotal at the current
// effective price reaches MinimumOrderValue. It never changes the price.
type FreeShipping struct {
	MinimumOrderValue decimal.Decimal
}

// Bundle applies BundlePrice when present and lower than the running
// effective price, otherwise falls back to Discount.
type Bundle struct {
	BundlePrice *decimal.Decimal
	Discount    *Reduction
}

// Offer is one promotional rule: eligibility metadata plus exactly one
// variant payload matching Type. A nil payload makes the offer inert, which
// is how malformed rules degrade instead of erroring.
type Offer struct {
	Type   OfferType
	Active bool

	// StartsAt and EndsAt bound eligibility. The window only applies when
	// both are set; the end date is padded by one calendar day so an offer
	// expiring "today" is valid for the whole of today.
	StartsAt *time.Time
	EndsAt   *time.Time

	Percentage    *PercentageDiscount
	FixedDiscount *FixedDiscount
	FixedPrice    *FixedPrice
	BuyXGetY      *BuyXGetY
	MultiBuy      *MultiBuy
	BulkPrice     *BulkPrice
	VolumeTiers   *VolumeTiers
	FreeShipping  *FreeShipping
	Bundle        *Bundle
}

// EligibleAt reports whether the offer is active and inside its date window
// at the given instant.
func (o Offer) EligibleAt(now time.Time) bool {
	if !o.Active {
		return false
	}
	if o.StartsAt != nil && o.EndsAt != nil {
		if now.Before(*o.StartsAt) {
			return false
		}
		if !now.Before(o.EndsAt.AddDate(0, 0, 1)) {
			return false
		}
	}
	return true
}

// SalePrice is the simple absolute override price. It is suppressed entirely
// whenever any structured offer is currently eligible.
type SalePrice struct {
	Price  decimal.Decimal
	Active bool
}

// AppliedOffer records one rule that actually fired during evaluation.
type AppliedOffer struct {
	Type  OfferType
	Label string
}

// Result is the output of a pricing calculation.
type Result struct {
	// OriginalPrice echoes the input base price.
	OriginalPrice decimal.Decimal
	// EffectivePrice is the final per-unit price, never negative.
	EffectivePrice decimal.Decimal
	// TotalDiscount is the monetary amount saved across the whole order,
	// including the notional value of free items.
	TotalDiscount decimal.Decimal
	// DiscountPercent is TotalDiscount relative to the undiscounted order
	// value, as a percentage. Zero when the order value is zero.
	DiscountPercent decimal.Decimal
	// AppliedOffers lists the rules that fired, in evaluation order.
	AppliedOffers []AppliedOffer
	// FreeItems counts bonus units granted by buy-x-get-y rules.
	FreeItems int
	// TotalQuantity is the paid quantity plus FreeItems.
	TotalQuantity int
	// TotalCost is EffectivePrice times the paid quantity. Free items are
	// already accounted for in TotalDiscount.
	TotalCost decimal.Decimal
}
