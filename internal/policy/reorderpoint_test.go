package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

// scenario 3 from §8: CSL-quantile path.
func TestComputeReorderPoint_QuantileHit(t *testing.T) {
	quantiles := map[string]float64{"0.50": 140, "0.80": 160, "0.90": 175, "0.95": 182.5, "0.98": 195}
	res := ComputeReorderPoint(ReorderPointInput{
		Mode: domain.PolicyCSL, ForecastMethod: domain.ForecastMonteCarlo,
		Alpha: 0.95, Quantiles: quantiles,
	})
	assert.Equal(t, domain.MethodQuantile, res.Method)
	assert.Equal(t, 182.5, res.QuantileUsed)
	assert.Equal(t, 182.5, res.S)
}

func TestComputeReorderPoint_ZScoreFallbackForUntabulatedAlpha(t *testing.T) {
	quantiles := map[string]float64{"0.50": 140, "0.80": 160, "0.90": 175, "0.95": 182.5, "0.98": 195}
	res := ComputeReorderPoint(ReorderPointInput{
		Mode: domain.PolicyCSL, ForecastMethod: domain.ForecastMonteCarlo,
		Alpha: 0.93, Quantiles: quantiles, MuP: 140, SigmaP: 14.2,
	})
	assert.Equal(t, domain.MethodZScoreFallback, res.Method)
	assert.InDelta(t, 140+1.476*14.2, res.S, 0.05)
}

func TestComputeReorderPoint_SimpleUsesZScore(t *testing.T) {
	res := ComputeReorderPoint(ReorderPointInput{
		Mode: domain.PolicyCSL, ForecastMethod: domain.ForecastSimple,
		Alpha: 0.90, MuP: 100, SigmaP: 10,
	})
	assert.Equal(t, domain.MethodZScore, res.Method)
	assert.Greater(t, res.S, 100.0)
}

// scenario 2 from §8: Friday dual-lane legacy formula.
func TestComputeReorderPoint_LegacyMatchesFridayScenario(t *testing.T) {
	sat := ComputeReorderPoint(ReorderPointInput{
		Mode: domain.PolicyLegacy, ForecastQty: 10 * 3, AdjustedSafetyStock: 20,
	})
	assert.Equal(t, domain.MethodLegacy, sat.Method)
	assert.Equal(t, 50.0, sat.S)

	mon := ComputeReorderPoint(ReorderPointInput{
		Mode: domain.PolicyLegacy, ForecastQty: 10 * 1, AdjustedSafetyStock: 20,
	})
	assert.Equal(t, 30.0, mon.S)
}

func TestInverseNormalCDF_MatchesKnownValues(t *testing.T) {
	assert.InDelta(t, 0.0, InverseNormalCDF(0.5), 1e-6)
	assert.InDelta(t, 1.6449, InverseNormalCDF(0.95), 1e-3)
	assert.InDelta(t, -1.6449, InverseNormalCDF(0.05), 1e-3)
}
