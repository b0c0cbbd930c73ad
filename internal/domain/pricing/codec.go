package pricing

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// DecodeOffers parses a persisted JSON offer array into the canonical tagged
// union. Two schema generations are tolerated at this boundary: the legacy
// field aliases (value vs discountPercentage/discountAmount, with value
// winning) and the legacy type names (bogo, fixed_amount_discount). Offers
// with an unknown type or missing required fields decode to inert offers
// that never fire, matching the engine's permissive degradation.
func DecodeOffers(data []byte) ([]Offer, error) {
	d := jx.DecodeBytes(data)
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var offers []Offer
	if err := d.Arr(func(d *jx.Decoder) error {
		o, err := decodeOffer(d)
		if err != nil {
			return err
		}
		offers = append(offers, o)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode offers")
	}
	return offers, nil
}

// rawOffer is the flat wire shape with every optional field of both schema
// generations. It exists only inside the codec.
type rawOffer struct {
	typ       string
	active    bool
	startDate *time.Time
	endDate   *time.Time

	value              *decimal.Decimal
	discountPercentage *decimal.Decimal
	discountAmount     *decimal.Decimal
	fixedPrice         *decimal.Decimal
	buyQuantity        *int
	getQuantity        *int
	quantity           *int
	discountType       string
	discountValue      *decimal.Decimal
	pricePerUnit       *decimal.Decimal
	bulkTiers          []VolumeTier
	minimumOrderValue  *decimal.Decimal
	bundlePrice        *decimal.Decimal
}

func decodeOffer(d *jx.Decoder) (Offer, error) {
	raw := rawOffer{active: true}

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "type":
			raw.typ, err = d.Str()
		case "isActive":
			raw.active, err = d.Bool()
		case "startDate":
			raw.startDate, err = decodeDate(d)
		case "endDate":
			raw.endDate, err = decodeDate(d)
		case "value":
			raw.value, err = decodeOptDecimal(d)
		case "discountPercentage":
			raw.discountPercentage, err = decodeOptDecimal(d)
		case "discountAmount":
			raw.discountAmount, err = decodeOptDecimal(d)
		case "fixedPrice":
			raw.fixedPrice, err = decodeOptDecimal(d)
		case "buyQuantity":
			raw.buyQuantity, err = decodeOptInt(d)
		case "getQuantity":
			raw.getQuantity, err = decodeOptInt(d)
		case "quantity":
			raw.quantity, err = decodeOptInt(d)
		case "discountType":
			raw.discountType, err = d.Str()
		case "discountValue":
			raw.discountValue, err = decodeOptDecimal(d)
		case "pricePerUnit":
			raw.pricePerUnit, err = decodeOptDecimal(d)
		case "bulkTiers":
			raw.bulkTiers, err = decodeTiers(d)
		case "minimumOrderValue":
			raw.minimumOrderValue, err = decodeOptDecimal(d)
		case "bundlePrice":
			raw.bundlePrice, err = decodeOptDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return Offer{}, err
	}

	return raw.normalize(), nil
}

func decodeTiers(d *jx.Decoder) ([]VolumeTier, error) {
	var tiers []VolumeTier
	err := d.Arr(func(d *jx.Decoder) error {
		var t VolumeTier
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "minQuantity":
				var n *int
				n, err = decodeOptInt(d)
				if n != nil {
					t.MinQuantity = *n
				}
			case "pricePerUnit":
				t.PricePerUnit, err = decodeOptDecimal(d)
			case "discountPercentage":
				t.Percent, err = decodeOptDecimal(d)
			case "discountAmount":
				t.Amount, err = decodeOptDecimal(d)
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		tiers = append(tiers, t)
		return nil
	})
	return tiers, err
}

func decodeOptDecimal(d *jx.Decoder) (*decimal.Decimal, error) {
	switch d.Next() {
	case jx.Null:
		return nil, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return nil, err
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errors.Wrap(err, "parse decimal")
		}
		return &v, nil
	default:
		n, err := d.Num()
		if err != nil {
			return nil, err
		}
		v, err := decimal.NewFromString(string(n))
		if err != nil {
			return nil, errors.Wrap(err, "parse decimal")
		}
		return &v, nil
	}
}

func decodeOptInt(d *jx.Decoder) (*int, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := d.Int()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decodeDate accepts full RFC 3339 timestamps and bare dates.
func decodeDate(d *jx.Decoder) (*time.Time, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, errors.Wrapf(err, "parse date %q", s)
	}
	return &t, nil
}

// normalize resolves aliases and builds the canonical variant payload.
// Missing required fields leave the payload nil, producing an inert offer.
func (r rawOffer) normalize() Offer {
	o := Offer{
		Active:   r.active,
		StartsAt: r.startDate,
		EndsAt:   r.endDate,
	}

	switch r.typ {
	case "percentage_discount":
		o.Type = TypePercentage
		if v := firstOf(r.value, r.discountPercentage); v != nil {
			o.Percentage = &PercentageDiscount{Percent: *v}
		}
	case "fixed_discount", "fixed_amount_discount":
		o.Type = TypeFixedDiscount
		if v := firstOf(r.value, r.discountAmount); v != nil {
			o.FixedDiscount = &FixedDiscount{Amount: *v}
		}
	case "fixed_price":
		o.Type = TypeFixedPrice
		if r.fixedPrice != nil {
			o.FixedPrice = &FixedPrice{Price: *r.fixedPrice}
		}
	case "bogo", "buy_x_get_y_free":
		o.Type = TypeBuyXGetY
		if r.buyQuantity != nil && r.getQuantity != nil {
			o.BuyXGetY = &BuyXGetY{Buy: *r.buyQuantity, Get: *r.getQuantity}
		}
	case "multi_buy":
		o.Type = TypeMultiBuy
		if r.quantity != nil && r.discountValue != nil {
			o.MultiBuy = &MultiBuy{
				MinQuantity: *r.quantity,
				Discount:    Reduction{Kind: reductionKind(r.discountType), Value: *r.discountValue},
			}
		}
	case "bulk_tier":
		o.Type = TypeBulkPrice
		if r.quantity != nil && r.pricePerUnit != nil {
			o.BulkPrice = &BulkPrice{MinQuantity: *r.quantity, PricePerUnit: *r.pricePerUnit}
		}
	case "bulk_discount":
		o.Type = TypeVolumeTiers
		if len(r.bulkTiers) > 0 {
			o.VolumeTiers = &VolumeTiers{Tiers: r.bulkTiers}
		}
	case "free_shipping":
		o.Type = TypeFreeShipping
		fs := &FreeShipping{}
		if r.minimumOrderValue != nil {
			fs.MinimumOrderValue = *r.minimumOrderValue
		}
		o.FreeShipping = fs
	case "bundle_deal":
		o.Type = TypeBundle
		b := &Bundle{BundlePrice: r.bundlePrice}
		if r.discountValue != nil {
			b.Discount = &Reduction{Kind: reductionKind(r.discountType), Value: *r.discountValue}
		}
		if b.BundlePrice != nil || b.Discount != nil {
			o.Bundle = b
		}
	default:
		o.Type = OfferType(r.typ)
	}

	return o
}

func firstOf(vs ...*decimal.Decimal) *decimal.Decimal {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}

func reductionKind(s string) DiscountKind {
	if s == string(KindFixed) {
		return KindFixed
	}
	return KindPercent
}
