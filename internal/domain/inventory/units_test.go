package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackConfig_BaseUnits(t *testing.T) {
	cfg := PackConfig{UnitsPerPack: 12, PacksPerPallet: 40}

	tests := []struct {
		name     string
		quantity int
		unit     Unit
		want     int64
	}{
		{name: "base units pass through", quantity: 7, unit: UnitBase, want: 7},
		{name: "packs multiply by units per pack", quantity: 3, unit: UnitPack, want: 36},
		{name: "pallets multiply by full pallet size", quantity: 2, unit: UnitPallet, want: 960},
		{name: "unknown unit treated as base", quantity: 5, unit: Unit("crate"), want: 5},
		{name: "zero quantity", quantity: 0, unit: UnitPack, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.BaseUnits(tt.quantity, tt.unit))
		})
	}
}

func TestPackConfig_UnconfiguredFallsBackToBaseUnits(t *testing.T) {
	var cfg PackConfig

	assert.Equal(t, int64(4), cfg.BaseUnits(4, UnitPack))
	assert.Equal(t, int64(4), cfg.BaseUnits(4, UnitPallet))
	assert.Equal(t, int64(1), cfg.BaseUnitsPerPallet())
}

func TestPackConfig_Breakdown(t *testing.T) {
	cfg := PackConfig{UnitsPerPack: 10, PacksPerPallet: 5}

	pallets, packs, units := cfg.Breakdown(173)
	assert.Equal(t, int64(3), pallets) // 150
	assert.Equal(t, int64(2), packs)   // 20
	assert.Equal(t, int64(3), units)

	pallets, packs, units = cfg.Breakdown(0)
	assert.Zero(t, pallets)
	assert.Zero(t, packs)
	assert.Zero(t, units)
}

func TestDecrement(t *testing.T) {
	tests := []struct {
		name          string
		available     int64
		requested     int64
		wantRemaining int64
		wantShort     int64
	}{
		{name: "full fulfilment", available: 100, requested: 40, wantRemaining: 60},
		{name: "exact fulfilment", available: 40, requested: 40, wantRemaining: 0},
		{name: "shortage floors at zero", available: 30, requested: 40, wantRemaining: 0, wantShort: 10},
		{name: "non-positive request is a no-op", available: 30, requested: 0, wantRemaining: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining, short := Decrement(tt.available, tt.requested)
			assert.Equal(t, tt.wantRemaining, remaining)
			assert.Equal(t, tt.wantShort, short)
		})
	}
}
