package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

func TestResolveAlpha_SKUOverrideWinsFirst(t *testing.T) {
	sku := &domain.SKU{TargetCSL: 0.87, ShelfLifeDays: 3, DemandVariability: domain.VariabilityHigh}
	assert.Equal(t, 0.87, ResolveAlpha(sku, DefaultAlphaConfig()))
}

func TestResolveAlpha_PerishabilityBeatsVariability(t *testing.T) {
	sku := &domain.SKU{ShelfLifeDays: 5, DemandVariability: domain.VariabilityStable}
	assert.Equal(t, 0.98, ResolveAlpha(sku, DefaultAlphaConfig()))
}

func TestResolveAlpha_VariabilityClusterFallback(t *testing.T) {
	sku := &domain.SKU{ShelfLifeDays: 30, DemandVariability: domain.VariabilityHigh}
	assert.Equal(t, 0.95, ResolveAlpha(sku, DefaultAlphaConfig()))
}

func TestResolveAlpha_GlobalDefaultWhenNothingSet(t *testing.T) {
	sku := &domain.SKU{}
	assert.Equal(t, 0.90, ResolveAlpha(sku, DefaultAlphaConfig()))
}

func TestSafetyStockMultiplier_HighAndStableDiffer(t *testing.T) {
	assert.Equal(t, 1.5, SafetyStockMultiplier(domain.VariabilityHigh))
	assert.Equal(t, 0.8, SafetyStockMultiplier(domain.VariabilityStable))
	assert.Equal(t, 1.0, SafetyStockMultiplier(domain.VariabilityLow))
}
