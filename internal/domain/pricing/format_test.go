package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatOffers(t *testing.T) {
	c := testCalculator()

	offers := []Offer{
		percentOffer("20"),
		fixedOffer("5"),
		{Type: TypeFixedPrice, Active: true, FixedPrice: &FixedPrice{Price: dec("7.99")}},
		bogoOffer(2, 1),
		{Type: TypeMultiBuy, Active: true, MultiBuy: &MultiBuy{
			MinQuantity: 6, Discount: Reduction{Kind: KindPercent, Value: dec("10")},
		}},
		{Type: TypeBulkPrice, Active: true, BulkPrice: &BulkPrice{MinQuantity: 12, PricePerUnit: dec("4.5")}},
		{Type: TypeVolumeTiers, Active: true, VolumeTiers: &VolumeTiers{Tiers: []VolumeTier{
			{MinQuantity: 10, PricePerUnit: decPtr("8")},
			{MinQuantity: 50, PricePerUnit: decPtr("6")},
		}}},
		{Type: TypeFreeShipping, Active: true, FreeShipping: &FreeShipping{MinimumOrderValue: dec("100")}},
		{Type: TypeBundle, Active: true, Bundle: &Bundle{BundlePrice: decPtr("25")}},
	}

	assert.Equal(t, []string{
		"20% OFF",
		"£5 OFF per unit",
		"Fixed Price: £7.99",
		"Buy 2, Get 1 FREE",
		"Buy 6+: 10% OFF",
		"Buy 12+ at £4.5 each",
		"Buy 50+ at £6 each",
		"FREE Shipping over £100",
		"Bundle: £25",
	}, c.FormatOffers(offers))
}

func TestFormatOffers_IgnoresEligibilityAndSkipsInert(t *testing.T) {
	c := testCalculator()
	expired := percentOffer("30")
	start := fixedNow.AddDate(0, 0, -14)
	end := fixedNow.AddDate(0, 0, -7)
	expired.StartsAt = &start
	expired.EndsAt = &end
	expired.Active = false

	offers := []Offer{
		expired,
		{Type: OfferType("mystery_meat"), Active: true},
		{Type: TypeBundle, Active: true},
	}

	// Display labels are independent of eligibility; inert offers are skipped.
	assert.Equal(t, []string{"30% OFF"}, c.FormatOffers(offers))
}
