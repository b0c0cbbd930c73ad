package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testCalculator() *Calculator {
	return NewCalculator(WithClock(func() time.Time { return fixedNow }))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func percentOffer(pct string) Offer {
	return Offer{Type: TypePercentage, Active: true, Percentage: &PercentageDiscount{Percent: dec(pct)}}
}

func fixedOffer(amt string) Offer {
	return Offer{Type: TypeFixedDiscount, Active: true, FixedDiscount: &FixedDiscount{Amount: dec(amt)}}
}

func bogoOffer(buy, get int) Offer {
	return Offer{Type: TypeBuyXGetY, Active: true, BuyXGetY: &BuyXGetY{Buy: buy, Get: get}}
}

func labels(res Result) []string {
	out := make([]string, len(res.AppliedOffers))
	for i, a := range res.AppliedOffers {
		out[i] = a.Label
	}
	return out
}

func TestCalculate_NoOffers(t *testing.T) {
	c := testCalculator()

	res := c.Calculate(dec("12.50"), 4, nil, nil)

	assert.True(t, res.EffectivePrice.Equal(dec("12.50")))
	assert.True(t, res.TotalDiscount.IsZero())
	assert.True(t, res.DiscountPercent.IsZero())
	assert.Empty(t, res.AppliedOffers)
	assert.Equal(t, 0, res.FreeItems)
	assert.Equal(t, 4, res.TotalQuantity)
	assert.True(t, res.TotalCost.Equal(dec("50")), "got %s", res.TotalCost)
}

func TestCalculate_Offers(t *testing.T) {
	tests := []struct {
		name          string
		base          string
		quantity      int
		offers        []Offer
		sale          *SalePrice
		wantEffective string
		wantDiscount  string
		wantFree      int
		wantLabels    []string
	}{
		{
			name:          "percentage discount",
			base:          "10",
			quantity:      1,
			offers:        []Offer{percentOffer("20")},
			wantEffective: "8",
			wantDiscount:  "2",
			wantLabels:    []string{"20% OFF"},
		},
		{
			name:          "fixed discount floors at zero",
			base:          "5",
			quantity:      1,
			offers:        []Offer{fixedOffer("10")},
			wantEffective: "0",
			wantDiscount:  "5",
			wantLabels:    []string{"£10 OFF per unit"},
		},
		{
			name:          "fixed price applies only when lower",
			base:          "10",
			quantity:      2,
			offers:        []Offer{{Type: TypeFixedPrice, Active: true, FixedPrice: &FixedPrice{Price: dec("7.5")}}},
			wantEffective: "7.5",
			wantDiscount:  "5",
			wantLabels:    []string{"Fixed Price: £7.5"},
		},
		{
			name:          "fixed price above current price is a no-op",
			base:          "10",
			quantity:      2,
			offers:        []Offer{{Type: TypeFixedPrice, Active: true, FixedPrice: &FixedPrice{Price: dec("12")}}},
			wantEffective: "10",
			wantDiscount:  "0",
		},
		{
			name:          "bogo grants free items",
			base:          "2",
			quantity:      4,
			offers:        []Offer{bogoOffer(2, 1)},
			wantEffective: "2",
			wantDiscount:  "4",
			wantFree:      2,
			wantLabels:    []string{"Buy 2, Get 1 FREE"},
		},
		{
			name:          "bogo below threshold does not fire",
			base:          "2",
			quantity:      1,
			offers:        []Offer{bogoOffer(2, 1)},
			wantEffective: "2",
			wantDiscount:  "0",
		},
		{
			name:     "multi buy percentage at threshold",
			base:     "10",
			quantity: 5,
			offers: []Offer{{Type: TypeMultiBuy, Active: true, MultiBuy: &MultiBuy{
				MinQuantity: 5,
				Discount:    Reduction{Kind: KindPercent, Value: dec("10")},
			}}},
			wantEffective: "9",
			wantDiscount:  "5",
			wantLabels:    []string{"Buy 5+: 10% OFF"},
		},
		{
			name:     "multi buy fixed below threshold does not fire",
			base:     "10",
			quantity: 4,
			offers: []Offer{{Type: TypeMultiBuy, Active: true, MultiBuy: &MultiBuy{
				MinQuantity: 5,
				Discount:    Reduction{Kind: KindFixed, Value: dec("2")},
			}}},
			wantEffective: "10",
			wantDiscount:  "0",
		},
		{
			name:     "bulk price at threshold",
			base:     "10",
			quantity: 10,
			offers: []Offer{{Type: TypeBulkPrice, Active: true, BulkPrice: &BulkPrice{
				MinQuantity: 10, PricePerUnit: dec("8"),
			}}},
			wantEffective: "8",
			wantDiscount:  "20",
			wantLabels:    []string{"Buy 10+ at £8 each"},
		},
		{
			name:     "volume tiers select highest qualifying threshold",
			base:     "10",
			quantity: 60,
			offers: []Offer{{Type: TypeVolumeTiers, Active: true, VolumeTiers: &VolumeTiers{Tiers: []VolumeTier{
				{MinQuantity: 10, PricePerUnit: decPtr("8")},
				{MinQuantity: 50, PricePerUnit: decPtr("6")},
			}}}},
			wantEffective: "6",
			wantDiscount:  "240",
			wantLabels:    []string{"Buy 50+ at £6 each"},
		},
		{
			name:     "volume tier percentage fallback",
			base:     "10",
			quantity: 20,
			offers: []Offer{{Type: TypeVolumeTiers, Active: true, VolumeTiers: &VolumeTiers{Tiers: []VolumeTier{
				{MinQuantity: 10, Percent: decPtr("25")},
				{MinQuantity: 50, PricePerUnit: decPtr("6")},
			}}}},
			wantEffective: "7.5",
			wantDiscount:  "50",
			wantLabels:    []string{"Buy 10+: 25% OFF"},
		},
		{
			name:     "free shipping labels without changing price",
			base:     "10",
			quantity: 6,
			offers: []Offer{{Type: TypeFreeShipping, Active: true, FreeShipping: &FreeShipping{
				MinimumOrderValue: dec("50"),
			}}},
			wantEffective: "10",
			wantDiscount:  "0",
			wantLabels:    []string{"FREE Shipping over £50"},
		},
		{
			name:     "free shipping below minimum stays silent",
			base:     "10",
			quantity: 4,
			offers: []Offer{{Type: TypeFreeShipping, Active: true, FreeShipping: &FreeShipping{
				MinimumOrderValue: dec("50"),
			}}},
			wantEffective: "10",
			wantDiscount:  "0",
		},
		{
			name:          "bundle price when lower",
			base:          "10",
			quantity:      3,
			offers:        []Offer{{Type: TypeBundle, Active: true, Bundle: &Bundle{BundlePrice: decPtr("7")}}},
			wantEffective: "7",
			wantDiscount:  "9",
			wantLabels:    []string{"Bundle: £7"},
		},
		{
			name:     "bundle falls back to discount when price not lower",
			base:     "10",
			quantity: 2,
			offers: []Offer{{Type: TypeBundle, Active: true, Bundle: &Bundle{
				BundlePrice: decPtr("12"),
				Discount:    &Reduction{Kind: KindPercent, Value: dec("10")},
			}}},
			wantEffective: "9",
			wantDiscount:  "2",
			wantLabels:    []string{"Bundle: 10% OFF"},
		},
		{
			name:          "inactive offer is skipped",
			base:          "10",
			quantity:      1,
			offers:        []Offer{{Type: TypePercentage, Active: false, Percentage: &PercentageDiscount{Percent: dec("50")}}},
			wantEffective: "10",
			wantDiscount:  "0",
		},
		{
			name:          "offer with missing payload is inert",
			base:          "10",
			quantity:      1,
			offers:        []Offer{{Type: TypePercentage, Active: true}},
			wantEffective: "10",
			wantDiscount:  "0",
		},
		{
			name:          "sequential compounding over evolving price",
			base:          "100",
			quantity:      1,
			offers:        []Offer{percentOffer("10"), fixedOffer("5")},
			wantEffective: "85",
			wantDiscount:  "15",
			wantLabels:    []string{"10% OFF", "£5 OFF per unit"},
		},
		{
			name:          "bogo values free units at reduced price",
			base:          "10",
			quantity:      4,
			offers:        []Offer{percentOffer("50"), bogoOffer(2, 1)},
			wantEffective: "5",
			wantDiscount:  "30", // 4×5 from the percentage, plus 2 free units at 5
			wantFree:      2,
			wantLabels:    []string{"50% OFF", "Buy 2, Get 1 FREE"},
		},
		{
			name:          "sale price applies when no structured offers",
			base:          "10",
			quantity:      3,
			sale:          &SalePrice{Price: dec("8"), Active: true},
			wantEffective: "8",
			wantDiscount:  "6",
			wantLabels:    []string{"Sale Price"},
		},
		{
			name:          "active structured offer suppresses sale price",
			base:          "10",
			quantity:      1,
			offers:        []Offer{percentOffer("10")},
			sale:          &SalePrice{Price: dec("5"), Active: true},
			wantEffective: "9",
			wantDiscount:  "1",
			wantLabels:    []string{"10% OFF"},
		},
		{
			name:          "inactive sale price is ignored",
			base:          "10",
			quantity:      1,
			sale:          &SalePrice{Price: dec("8"), Active: false},
			wantEffective: "10",
			wantDiscount:  "0",
		},
	}

	c := testCalculator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Calculate(dec(tt.base), tt.quantity, tt.offers, tt.sale)

			assert.True(t, res.EffectivePrice.Equal(dec(tt.wantEffective)),
				"effective price: want %s, got %s", tt.wantEffective, res.EffectivePrice)
			assert.True(t, res.TotalDiscount.Equal(dec(tt.wantDiscount)),
				"total discount: want %s, got %s", tt.wantDiscount, res.TotalDiscount)
			assert.Equal(t, tt.wantFree, res.FreeItems)
			assert.Equal(t, tt.quantity+tt.wantFree, res.TotalQuantity)
			if tt.wantLabels != nil {
				assert.Equal(t, tt.wantLabels, labels(res))
			}
			assert.False(t, res.EffectivePrice.IsNegative())
			assert.True(t, res.OriginalPrice.Equal(dec(tt.base)))
		})
	}
}

func TestCalculate_DateWindow(t *testing.T) {
	yesterday := fixedNow.AddDate(0, 0, -1)
	lastWeek := fixedNow.AddDate(0, 0, -7)
	tomorrow := fixedNow.AddDate(0, 0, 1)

	window := func(start, end time.Time) Offer {
		o := percentOffer("50")
		o.StartsAt = &start
		o.EndsAt = &end
		return o
	}

	c := testCalculator()

	t.Run("expired offer does not reduce price nor suppress sale price", func(t *testing.T) {
		sale := &SalePrice{Price: dec("8"), Active: true}
		res := c.Calculate(dec("10"), 1, []Offer{window(lastWeek, lastWeek)}, sale)

		require.Len(t, res.AppliedOffers, 1)
		assert.Equal(t, TypeSalePrice, res.AppliedOffers[0].Type)
		assert.True(t, res.EffectivePrice.Equal(dec("8")))
	})

	t.Run("offer expiring today is valid for the whole final day", func(t *testing.T) {
		// EndsAt is midnight today; the one-day pad keeps it eligible at noon.
		endToday := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
		res := c.Calculate(dec("10"), 1, []Offer{window(lastWeek, endToday)}, nil)

		assert.True(t, res.EffectivePrice.Equal(dec("5")))
	})

	t.Run("offer ending yesterday midnight expired at midnight today", func(t *testing.T) {
		endYesterday := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
		res := c.Calculate(dec("10"), 1, []Offer{window(lastWeek, endYesterday)}, nil)

		assert.True(t, res.EffectivePrice.Equal(dec("10")))
	})

	t.Run("offer starting tomorrow is not eligible", func(t *testing.T) {
		res := c.Calculate(dec("10"), 1, []Offer{window(tomorrow, tomorrow.AddDate(0, 0, 7))}, nil)

		assert.True(t, res.EffectivePrice.Equal(dec("10")))
	})

	t.Run("window only applies when both bounds are set", func(t *testing.T) {
		o := percentOffer("50")
		o.StartsAt = &yesterday
		res := c.Calculate(dec("10"), 1, []Offer{o}, nil)

		assert.True(t, res.EffectivePrice.Equal(dec("5")))
	})
}

func TestCalculate_OrderDependence(t *testing.T) {
	c := testCalculator()
	pct := percentOffer("10")
	fixed := fixedOffer("5")

	pctFirst := c.Calculate(dec("100"), 1, []Offer{pct, fixed}, nil)
	fixedFirst := c.Calculate(dec("100"), 1, []Offer{fixed, pct}, nil)

	// 100 → 90 → 85 versus 100 → 95 → 85.5
	assert.True(t, pctFirst.EffectivePrice.Equal(dec("85")), "got %s", pctFirst.EffectivePrice)
	assert.True(t, fixedFirst.EffectivePrice.Equal(dec("85.5")), "got %s", fixedFirst.EffectivePrice)
	assert.False(t, pctFirst.EffectivePrice.Equal(fixedFirst.EffectivePrice))
}

func TestCalculate_Idempotent(t *testing.T) {
	c := testCalculator()
	offers := []Offer{percentOffer("15"), bogoOffer(3, 1), fixedOffer("1")}

	a := c.Calculate(dec("9.99"), 7, offers, nil)
	b := c.Calculate(dec("9.99"), 7, offers, nil)

	assert.Equal(t, a, b)
}

func TestCalculate_DegenerateInputs(t *testing.T) {
	c := testCalculator()

	t.Run("zero quantity", func(t *testing.T) {
		res := c.Calculate(dec("10"), 0, []Offer{percentOffer("20")}, nil)

		assert.True(t, res.EffectivePrice.Equal(dec("10")))
		assert.True(t, res.TotalDiscount.IsZero())
		assert.True(t, res.TotalCost.IsZero())
		assert.Empty(t, res.AppliedOffers)
	})

	t.Run("zero price", func(t *testing.T) {
		res := c.Calculate(decimal.Zero, 3, []Offer{percentOffer("20")}, nil)

		assert.True(t, res.EffectivePrice.IsZero())
		assert.True(t, res.TotalDiscount.IsZero())
		assert.True(t, res.DiscountPercent.IsZero())
	})
}

func TestCalculate_DiscountPercent(t *testing.T) {
	c := testCalculator()

	res := c.Calculate(dec("10"), 2, []Offer{percentOffer("25")}, nil)

	// 5 saved out of 20.
	assert.True(t, res.DiscountPercent.Equal(dec("25")), "got %s", res.DiscountPercent)
}

func TestQualifiesForFreeShipping(t *testing.T) {
	c := testCalculator()
	lastWeek := fixedNow.AddDate(0, 0, -7)
	yesterday := fixedNow.AddDate(0, 0, -2)

	free := func(min string) Offer {
		return Offer{Type: TypeFreeShipping, Active: true, FreeShipping: &FreeShipping{MinimumOrderValue: dec(min)}}
	}

	tests := []struct {
		name   string
		offers []Offer
		total  string
		want   bool
	}{
		{name: "no free shipping offer", offers: []Offer{percentOffer("10")}, total: "100", want: false},
		{name: "meets minimum", offers: []Offer{free("50")}, total: "50", want: true},
		{name: "below minimum", offers: []Offer{free("50")}, total: "49.99", want: false},
		{
			name: "expired offer does not qualify",
			offers: []Offer{func() Offer {
				o := free("10")
				o.StartsAt = &lastWeek
				o.EndsAt = &yesterday
				return o
			}()},
			total: "100",
			want:  false,
		},
		{
			name: "inactive offer does not qualify",
			offers: []Offer{func() Offer {
				o := free("10")
				o.Active = false
				return o
			}()},
			total: "100",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.QualifiesForFreeShipping(tt.offers, dec(tt.total)))
		})
	}
}

func TestCalculate_CurrencySymbol(t *testing.T) {
	c := NewCalculator(
		WithClock(func() time.Time { return fixedNow }),
		WithCurrencySymbol("$"),
	)

	res := c.Calculate(dec("10"), 1, []Offer{fixedOffer("2")}, nil)

	require.Len(t, res.AppliedOffers, 1)
	assert.Equal(t, "$2 OFF per unit", res.AppliedOffers[0].Label)
}
