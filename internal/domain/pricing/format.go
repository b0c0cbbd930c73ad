package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LabelFormatter renders offer labels. The currency symbol is injected so the
// calculator never hardcodes a locale; callers that need full locale-aware
// formatting should render from AppliedOffer.Type instead of the label text.
type LabelFormatter struct {
	Symbol string
}

// DefaultSymbol is used when no currency symbol is configured.
const DefaultSymbol = "£"

func (f LabelFormatter) money(d decimal.Decimal) string {
	sym := f.Symbol
	if sym == "" {
		sym = DefaultSymbol
	}
	return sym + d.String()
}

func (f LabelFormatter) percentOff(pct decimal.Decimal) string {
	return fmt.Sprintf("%s%% OFF", pct.String())
}

func (f LabelFormatter) fixedOff(amt decimal.Decimal) string {
	return fmt.Sprintf("%s OFF per unit", f.money(amt))
}

func (f LabelFormatter) fixedPrice(p decimal.Decimal) string {
	return fmt.Sprintf("Fixed Price: %s", f.money(p))
}

func (f LabelFormatter) buyXGetY(buy, get int) string {
	return fmt.Sprintf("Buy %d, Get %d FREE", buy, get)
}

func (f LabelFormatter) multiBuy(minQty int, r Reduction) string {
	if r.Kind == KindFixed {
		return fmt.Sprintf("Buy %d+: %s OFF per unit", minQty, f.money(r.Value))
	}
	return fmt.Sprintf("Buy %d+: %s%% OFF", minQty, r.Value.String())
}

func (f LabelFormatter) bulkPrice(minQty int, price decimal.Decimal) string {
	return fmt.Sprintf("Buy %d+ at %s each", minQty, f.money(price))
}

func (f LabelFormatter) volumeTier(t VolumeTier) string {
	switch {
	case t.PricePerUnit != nil:
		return f.bulkPrice(t.MinQuantity, *t.PricePerUnit)
	case t.Percent != nil:
		return fmt.Sprintf("Buy %d+: %s%% OFF", t.MinQuantity, t.Percent.String())
	case t.Amount != nil:
		return fmt.Sprintf("Buy %d+: %s OFF per unit", t.MinQuantity, f.money(*t.Amount))
	default:
		return fmt.Sprintf("Buy %d+", t.MinQuantity)
	}
}

func (f LabelFormatter) freeShipping(minOrder decimal.Decimal) string {
	if minOrder.IsPositive() {
		return fmt.Sprintf("FREE Shipping over %s", f.money(minOrder))
	}
	return "FREE Shipping"
}

func (f LabelFormatter) bundlePrice(p decimal.Decimal) string {
	return fmt.Sprintf("Bundle: %s", f.money(p))
}

func (f LabelFormatter) bundleReduction(r Reduction) string {
	if r.Kind == KindFixed {
		return fmt.Sprintf("Bundle: %s OFF per unit", f.money(r.Value))
	}
	return fmt.Sprintf("Bundle: %s%% OFF", r.Value.String())
}

// salePrice labels the simple sale-price override.
func (f LabelFormatter) salePrice() string {
	return "Sale Price"
}

// FormatOffers returns one display label per offer, independent of
// eligibility and quantity. Used for catalog badges rather than order-time
// calculation; the label patterns match the ones produced during evaluation.
func (c *Calculator) FormatOffers(offers []Offer) []string {
	labels := make([]string, 0, len(offers))
	for _, o := range offers {
		if l, ok := c.labels.describe(o); ok {
			labels = append(labels, l)
		}
	}
	return labels
}

// describe renders a display label for an offer. It reports false for inert
// offers (unknown type or missing payload).
func (f LabelFormatter) describe(o Offer) (string, bool) {
	switch o.Type {
	case TypePercentage:
		if o.Percentage != nil {
			return f.percentOff(o.Percentage.Percent), true
		}
	case TypeFixedDiscount:
		if o.FixedDiscount != nil {
			return f.fixedOff(o.FixedDiscount.Amount), true
		}
	case TypeFixedPrice:
		if o.FixedPrice != nil {
			return f.fixedPrice(o.FixedPrice.Price), true
		}
	case TypeBuyXGetY:
		if o.BuyXGetY != nil {
			return f.buyXGetY(o.BuyXGetY.Buy, o.BuyXGetY.Get), true
		}
	case TypeMultiBuy:
		if o.MultiBuy != nil {
			return f.multiBuy(o.MultiBuy.MinQuantity, o.MultiBuy.Discount), true
		}
	case TypeBulkPrice:
		if o.BulkPrice != nil {
			return f.bulkPrice(o.BulkPrice.MinQuantity, o.BulkPrice.PricePerUnit), true
		}
	case TypeVolumeTiers:
		// Catalog badge shows the best available tier: the highest threshold.
		if o.VolumeTiers != nil && len(o.VolumeTiers.Tiers) > 0 {
			best := o.VolumeTiers.Tiers[0]
			for _, t := range o.VolumeTiers.Tiers[1:] {
				if t.MinQuantity >= best.MinQuantity {
					best = t
				}
			}
			return f.volumeTier(best), true
		}
	case TypeFreeShipping:
		if o.FreeShipping != nil {
			return f.freeShipping(o.FreeShipping.MinimumOrderValue), true
		}
	case TypeBundle:
		if o.Bundle != nil {
			if o.Bundle.BundlePrice != nil {
				return f.bundlePrice(*o.Bundle.BundlePrice), true
			}
			if o.Bundle.Discount != nil {
				return f.bundleReduction(*o.Bundle.Discount), true
			}
		}
	}
	return "", false
}
