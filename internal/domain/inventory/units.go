// Package inventory provides base-unit stock arithmetic: wholesale products
// are stocked in base units but ordered in packs or pallets, and every
// conversion funnels through the pack configuration here.
package inventory

// Unit is the order unit a quantity is expressed in.
type Unit string

const (
	// UnitBase is a single sellable unit.
	UnitBase Unit = "unit"
	// UnitPack is a pack of base units.
	UnitPack Unit = "pack"
	// UnitPallet is a pallet of packs.
	UnitPallet Unit = "pallet"
)

// PackConfig describes how a product's base units aggregate into packs and
// pallets. Zero or negative values fall back to 1, so an unconfigured
// product behaves as if sold in base units.
type PackConfig struct {
	UnitsPerPack   int
	PacksPerPallet int
}

func (c PackConfig) unitsPerPack() int64 {
	if c.UnitsPerPack < 1 {
		return 1
	}
	return int64(c.UnitsPerPack)
}

func (c PackConfig) packsPerPallet() int64 {
	if c.PacksPerPallet < 1 {
		return 1
	}
	return int64(c.PacksPerPallet)
}

// BaseUnitsPerPallet returns the number of base units in one pallet.
func (c PackConfig) BaseUnitsPerPallet() int64 {
	return c.unitsPerPack() * c.packsPerPallet()
}

// BaseUnits converts a quantity in the given unit to base units.
// Unknown units are treated as base units.
func (c PackConfig) BaseUnits(quantity int, unit Unit) int64 {
	q := int64(quantity)
	switch unit {
	case UnitPack:
		return q * c.unitsPerPack()
	case UnitPallet:
		return q * c.BaseUnitsPerPallet()
	default:
		return q
	}
}

// Breakdown splits a base-unit count into whole pallets, whole packs and
// loose units, for display on stock screens.
func (c PackConfig) Breakdown(baseUnits int64) (pallets, packs, units int64) {
	if baseUnits <= 0 {
		return 0, 0, 0
	}
	perPallet := c.BaseUnitsPerPallet()
	perPack := c.unitsPerPack()

	pallets = baseUnits / perPallet
	rest := baseUnits % perPallet
	packs = rest / perPack
	units = rest % perPack
	return pallets, packs, units
}

// Decrement reduces available stock by the requested base units. The result
// is floored at zero; short reports how many base units could not be
// fulfilled.
func Decrement(available, requested int64) (remaining, short int64) {
	if requested <= 0 {
		return available, 0
	}
	if requested > available {
		return 0, requested - available
	}
	return available - requested, 0
}
