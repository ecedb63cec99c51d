package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

func TestResolveMethod_SKUOverrideWinsOverGlobal(t *testing.T) {
	sku := &domain.SKU{ForecastMethod: domain.ForecastCroston}
	global := GlobalSettings{DefaultMethod: domain.ForecastMonteCarlo}
	assert.Equal(t, domain.ForecastCroston, ResolveMethod(sku, global))
}

func TestResolveMethod_FallsBackToGlobalThenSimple(t *testing.T) {
	sku := &domain.SKU{}
	assert.Equal(t, domain.ForecastMonteCarlo, ResolveMethod(sku, GlobalSettings{DefaultMethod: domain.ForecastMonteCarlo}))
	assert.Equal(t, domain.ForecastSimple, ResolveMethod(sku, GlobalSettings{}))
}

func TestDispatch_SimpleMethodBindsToProtectionPeriod(t *testing.T) {
	sku := &domain.SKU{ForecastMethod: domain.ForecastSimple}
	var obs []Observation
	for i := 0; i < 20; i++ {
		obs = append(obs, Observation{Date: date("2026-01-01").AddDate(0, 0, i), QtySold: 10})
	}
	res := Dispatch(sku, GlobalSettings{}, obs, date("2026-02-01"), 5)
	assert.Equal(t, domain.ForecastSimple, res.Method)
	assert.Equal(t, 50.0, res.PeriodDemand)
}

func TestDispatch_MonteCarloReturnsDistribution(t *testing.T) {
	sku := &domain.SKU{ForecastMethod: domain.ForecastMonteCarlo, MCRandomSeed: 7, MCNSimulations: 200, MCOutputPercentile: 90}
	var obs []Observation
	for i := 0; i < 20; i++ {
		obs = append(obs, Observation{Date: date("2026-01-01").AddDate(0, 0, i), QtySold: 10})
	}
	res := Dispatch(sku, GlobalSettings{}, obs, date("2026-02-01"), 5)
	require.NotNil(t, res.MonteCarlo)
	assert.Equal(t, 200, res.MonteCarlo.Trials)
	assert.GreaterOrEqual(t, res.PeriodDemand, 0.0)

	// §4.5's fixed quantile set must always be present so the CSL-quantile
	// reorder-point path and event-uplift strength lookups can match,
	// regardless of the SKU's own ad-hoc output percentile.
	for _, p := range []int{50, 80, 90, 95, 98} {
		_, ok := res.MonteCarlo.Percentiles[p]
		assert.True(t, ok, "missing required percentile %d", p)
	}
	_, ok := res.MonteCarlo.Percentiles[90]
	assert.True(t, ok, "ad-hoc output percentile 90 should also be present")
}

func TestDispatch_MonteCarloDeduplicatesOutputPercentile(t *testing.T) {
	sku := &domain.SKU{ForecastMethod: domain.ForecastMonteCarlo, MCRandomSeed: 7, MCNSimulations: 50, MCOutputPercentile: 95}
	var obs []Observation
	for i := 0; i < 20; i++ {
		obs = append(obs, Observation{Date: date("2026-01-01").AddDate(0, 0, i), QtySold: 10})
	}
	res := Dispatch(sku, GlobalSettings{}, obs, date("2026-02-01"), 5)
	require.NotNil(t, res.MonteCarlo)
	assert.Len(t, res.MonteCarlo.Percentiles, 5, "output percentile 95 already in the fixed set, not duplicated")
}

func TestDispatch_IntermittentAutoClassifiesSparseSeries(t *testing.T) {
	sku := &domain.SKU{ForecastMethod: domain.ForecastIntermittentAuto}
	var obs []Observation
	for i := 0; i < 30; i++ {
		qty := 0
		if i%10 == 0 {
			qty = 50
		}
		obs = append(obs, Observation{Date: date("2026-01-01").AddDate(0, 0, i), QtySold: qty})
	}
	res := Dispatch(sku, GlobalSettings{}, obs, date("2026-02-10"), 5)
	require.NotNil(t, res.Classification)
	assert.True(t, res.Classification.Intermittent)
}
