// Package policy implements the replenishment policy (§4.7, C7): target
// service-level resolution, reorder-point formulas (legacy and
// CSL-quantile), raw-order computation, and the deterministic
// pack/MOQ/max-stock/shelf-life constraint pipeline.
package policy

import "github.com/pinggolf/replenish-engine/internal/domain"

// AlphaConfig is the policy-level settings the α resolution order falls
// back through when a SKU doesn't pin its own target_csl (§4.7).
type AlphaConfig struct {
	PerishableShelfLifeThreshold int     // days; ≤ this ⇒ α=0.98
	PerishableAlpha              float64
	VariabilityAlpha             map[domain.Variability]float64
	GlobalDefault                float64
}

// DefaultAlphaConfig mirrors §4.7's literal resolution constants.
func DefaultAlphaConfig() AlphaConfig {
	return AlphaConfig{
		PerishableShelfLifeThreshold: 7,
		PerishableAlpha:              0.98,
		VariabilityAlpha: map[domain.Variability]float64{
			domain.VariabilityStable:   0.92,
			domain.VariabilityLow:      0.90,
			domain.VariabilitySeasonal: 0.95,
			domain.VariabilityHigh:     0.95,
		},
		GlobalDefault: 0.90,
	}
}

// ResolveAlpha picks the effective target service level: sku.target_csl →
// perishability rule → variability cluster → global default, first
// nonzero/set value wins (§4.7).
func ResolveAlpha(sku *domain.SKU, cfg AlphaConfig) float64 {
	if sku.TargetCSL > 0 {
		return sku.TargetCSL
	}
	if sku.ShelfLifeDays > 0 && sku.ShelfLifeDays <= cfg.PerishableShelfLifeThreshold {
		return cfg.PerishableAlpha
	}
	if a, ok := cfg.VariabilityAlpha[sku.DemandVariability]; ok {
		return a
	}
	return cfg.GlobalDefault
}

// SafetyStockMultiplier applies the demand-variability multiplier to the
// legacy safety_stock field before use: HIGH×1.5, STABLE×0.8, others ×1.0.
func SafetyStockMultiplier(v domain.Variability) float64 {
	switch v {
	case domain.VariabilityHigh:
		return 1.5
	case domain.VariabilityStable:
		return 0.8
	default:
		return 1.0
	}
}

// AdjustedSafetyStock applies SafetyStockMultiplier to sku.SafetyStock.
func AdjustedSafetyStock(sku *domain.SKU) float64 {
	return float64(sku.SafetyStock) * SafetyStockMultiplier(sku.DemandVariability)
}
