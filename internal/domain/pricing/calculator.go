package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculator evaluates promotional offers. It is stateless apart from its
// clock and label configuration, so a single instance is safe for concurrent
// use across cart lines.
type Calculator struct {
	now    func() time.Time
	labels LabelFormatter
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock overrides the wall clock used for offer date-window checks.
// Tests use this to make date-boundary behaviour deterministic.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

// WithCurrencySymbol sets the currency symbol embedded in offer labels.
func WithCurrencySymbol(symbol string) Option {
	return func(c *Calculator) { c.labels.Symbol = symbol }
}

// NewCalculator creates a Calculator with the system clock and the default
// currency symbol.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		now:    time.Now,
		labels: LabelFormatter{Symbol: DefaultSymbol},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate applies the offer list to a base price and quantity.
//
// Offers failing the eligibility check (inactive, or outside their date
// window) are skipped entirely. The simple sale price applies only when no
// structured offer is eligible. Eligible offers are then evaluated in list
// order, each seeing the price as reduced by all prior offers.
//
// The function is permissive: malformed inputs never raise an error, they
// degrade to a no-op for the offending rule, and the effective price is
// floored at zero. Quantities below 1 yield a zero-discount result.
func (c *Calculator) Calculate(basePrice decimal.Decimal, quantity int, offers []Offer, sale *SalePrice) Result {
	if quantity < 1 {
		return finalize(basePrice, basePrice, decimal.Zero, nil, 0, 0)
	}

	now := c.now()
	eligible := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if o.EligibleAt(now) {
			eligible = append(eligible, o)
		}
	}

	st := &evalState{
		effective: basePrice,
		discount:  decimal.Zero,
		quantity:  quantity,
		qty:       decimal.NewFromInt(int64(quantity)),
		labels:    c.labels,
	}

	// Structured offers take precedence: the sale price is suppressed the
	// moment any offer is eligible, not merely overridden.
	if len(eligible) == 0 && sale != nil && sale.Active {
		st.discount = st.discount.Add(basePrice.Sub(sale.Price).Mul(st.qty))
		st.effective = sale.Price
		st.record(TypeSalePrice, c.labels.salePrice())
	}

	for _, o := range eligible {
		st.apply(o)
	}

	return finalize(basePrice, st.effective, st.discount, st.applied, st.freeItems, quantity)
}

// QualifiesForFreeShipping reports whether any eligible free-shipping offer
// has a minimum order value at or below the given order total. It applies
// the same eligibility filtering as Calculate.
func (c *Calculator) QualifiesForFreeShipping(offers []Offer, orderTotal decimal.Decimal) bool {
	now := c.now()
	for _, o := range offers {
		if o.Type != TypeFreeShipping || o.FreeShipping == nil {
			continue
		}
		if !o.EligibleAt(now) {
			continue
		}
		if o.FreeShipping.MinimumOrderValue.LessThanOrEqual(orderTotal) {
			return true
		}
	}
	return false
}

// evalState carries the running totals through a single evaluation pass.
type evalState struct {
	effective decimal.Decimal
	discount  decimal.Decimal
	freeItems int
	applied   []AppliedOffer
	quantity  int
	qty       decimal.Decimal
	labels    LabelFormatter
}

func (s *evalState) record(t OfferType, label string) {
	s.applied = append(s.applied, AppliedOffer{Type: t, Label: label})
}

// reduce lowers the effective price by amount per unit (floored so the price
// never goes negative) and accumulates the order-wide discount.
func (s *evalState) reduce(amount decimal.Decimal) {
	reduction := decimal.Min(amount, s.effective)
	if reduction.IsNegative() {
		reduction = decimal.Zero
	}
	s.effective = s.effective.Sub(reduction)
	s.discount = s.discount.Add(reduction.Mul(s.qty))
}

// setPrice lowers the effective price to an absolute per-unit price and
// accumulates the difference. Callers must check the new price is lower.
func (s *evalState) setPrice(price decimal.Decimal) {
	s.discount = s.discount.Add(s.effective.Sub(price).Mul(s.qty))
	s.effective = price
}

func (s *evalState) applyReduction(r Reduction) {
	if r.Kind == KindFixed {
		s.reduce(r.Value)
		return
	}
	s.reduce(s.effective.Mul(r.Value).Div(hundred))
}

// apply evaluates a single eligible offer against the running state. Offers
// with a missing payload no-op rather than erroring.
func (s *evalState) apply(o Offer) {
	switch o.Type {
	case TypePercentage:
		if o.Percentage == nil {
			return
		}
		s.reduce(s.effective.Mul(o.Percentage.Percent).Div(hundred))
		s.record(o.Type, s.labels.percentOff(o.Percentage.Percent))

	case TypeFixedDiscount:
		if o.FixedDiscount == nil {
			return
		}
		s.reduce(o.FixedDiscount.Amount)
		s.record(o.Type, s.labels.fixedOff(o.FixedDiscount.Amount))

	case TypeFixedPrice:
		if o.FixedPrice == nil || !o.FixedPrice.Price.LessThan(s.effective) {
			return
		}
		s.setPrice(o.FixedPrice.Price)
		s.record(o.Type, s.labels.fixedPrice(o.FixedPrice.Price))

	case TypeBuyXGetY:
		if o.BuyXGetY == nil || o.BuyXGetY.Buy <= 0 || o.BuyXGetY.Get <= 0 {
			return
		}
		free := (s.quantity / o.BuyXGetY.Buy) * o.BuyXGetY.Get
		if free == 0 {
			return
		}
		s.freeItems += free
		// Free units are valued at the current effective price, after any
		// earlier reductions in this same pass.
		s.discount = s.discount.Add(s.effective.Mul(decimal.NewFromInt(int64(free))))
		s.record(o.Type, s.labels.buyXGetY(o.BuyXGetY.Buy, o.BuyXGetY.Get))

	case TypeMultiBuy:
		if o.MultiBuy == nil || s.quantity < o.MultiBuy.MinQuantity {
			return
		}
		s.applyReduction(o.MultiBuy.Discount)
		s.record(o.Type, s.labels.multiBuy(o.MultiBuy.MinQuantity, o.MultiBuy.Discount))

	case TypeBulkPrice:
		if o.BulkPrice == nil || s.quantity < o.BulkPrice.MinQuantity {
			return
		}
		if !o.BulkPrice.PricePerUnit.LessThan(s.effective) {
			return
		}
		s.setPrice(o.BulkPrice.PricePerUnit)
		s.record(o.Type, s.labels.bulkPrice(o.BulkPrice.MinQuantity, o.BulkPrice.PricePerUnit))

	case TypeVolumeTiers:
		if o.VolumeTiers == nil {
			return
		}
		tier, ok := selectTier(o.VolumeTiers.Tiers, s.quantity)
		if !ok {
			return
		}
		s.applyTier(o.Type, tier)

	case TypeFreeShipping:
		if o.FreeShipping == nil {
			return
		}
		if s.effective.Mul(s.qty).GreaterThanOrEqual(o.FreeShipping.MinimumOrderValue) {
			s.record(o.Type, s.labels.freeShipping(o.FreeShipping.MinimumOrderValue))
		}

	case TypeBundle:
		if o.Bundle == nil {
			return
		}
		if o.Bundle.BundlePrice != nil && o.Bundle.BundlePrice.LessThan(s.effective) {
			s.setPrice(*o.Bundle.BundlePrice)
			s.record(o.Type, s.labels.bundlePrice(*o.Bundle.BundlePrice))
			return
		}
		if o.Bundle.Discount != nil {
			s.applyReduction(*o.Bundle.Discount)
			s.record(o.Type, s.labels.bundleReduction(*o.Bundle.Discount))
		}
	}
}

// applyTier applies the selected volume tier with sub-rule priority:
// per-unit price (when lower), then percentage, then fixed amount.
func (s *evalState) applyTier(t OfferType, tier VolumeTier) {
	switch {
	case tier.PricePerUnit != nil:
		if tier.PricePerUnit.LessThan(s.effective) {
			s.setPrice(*tier.PricePerUnit)
			s.record(t, s.labels.bulkPrice(tier.MinQuantity, *tier.PricePerUnit))
		}
	case tier.Percent != nil:
		s.reduce(s.effective.Mul(*tier.Percent).Div(hundred))
		s.record(t, s.labels.volumeTier(tier))
	case tier.Amount != nil:
		s.reduce(*tier.Amount)
		s.record(t, s.labels.volumeTier(tier))
	}
}

// selectTier picks the tier with the highest MinQuantity not exceeding the
// order quantity. Ties go to the later tier in the list.
func selectTier(tiers []VolumeTier, quantity int) (VolumeTier, bool) {
	var (
		best  VolumeTier
		found bool
	)
	for _, t := range tiers {
		if t.MinQuantity > quantity {
			continue
		}
		if !found || t.MinQuantity >= best.MinQuantity {
			best = t
			found = true
		}
	}
	return best, found
}

func finalize(base, effective, discount decimal.Decimal, applied []AppliedOffer, freeItems, quantity int) Result {
	if effective.IsNegative() {
		effective = decimal.Zero
	}

	qty := decimal.NewFromInt(int64(quantity))
	orderValue := base.Mul(qty)

	pct := decimal.Zero
	if orderValue.IsPositive() {
		pct = discount.Div(orderValue).Mul(hundred).Round(2)
	}

	return Result{
		OriginalPrice:   base,
		EffectivePrice:  effective.Round(2),
		TotalDiscount:   discount.Round(2),
		DiscountPercent: pct,
		AppliedOffers:   applied,
		FreeItems:       freeItems,
		TotalQuantity:   quantity + freeItems,
		TotalCost:       effective.Mul(qty).Round(2),
	}
}
