package demand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestResolveEventRule_SKUPrecedesDepartmentCategoryAll(t *testing.T) {
	rules := []*domain.EventUpliftRule{
		{ScopeType: domain.ScopeAll, ScopeKey: ""},
		{ScopeType: domain.ScopeCategory, ScopeKey: "dairy"},
		{ScopeType: domain.ScopeDepartment, ScopeKey: "fresh"},
		{ScopeType: domain.ScopeSKU, ScopeKey: "SKU1"},
	}
	r := ResolveEventRule(rules, "SKU1", "dairy", "fresh")
	require.NotNil(t, r)
	assert.Equal(t, domain.ScopeSKU, r.ScopeType)
}

func TestResolveEventRule_FallsBackToCategoryThenAll(t *testing.T) {
	rules := []*domain.EventUpliftRule{
		{ScopeType: domain.ScopeAll, ScopeKey: ""},
		{ScopeType: domain.ScopeCategory, ScopeKey: "dairy"},
	}
	r := ResolveEventRule(rules, "SKU1", "dairy", "fresh")
	require.NotNil(t, r)
	assert.Equal(t, domain.ScopeCategory, r.ScopeType)

	r2 := ResolveEventRule(rules, "SKU1", "produce", "fresh")
	require.NotNil(t, r2)
	assert.Equal(t, domain.ScopeAll, r2.ScopeType)
}

func TestApplyEventUplift_OnlyAffectsDeliveryDate(t *testing.T) {
	horizon := map[time.Time]float64{
		date("2026-03-01"): 10,
		date("2026-03-02"): 10,
	}
	rule := &domain.EventUpliftRule{DeliveryDate: date("2026-03-01"), Strength: domain.StrengthHigh, ScopeType: domain.ScopeAll}
	cfg := EventUpliftConfig{Enabled: true}
	quantiles := map[string]float64{"0.50": 100, "0.95": 180}

	out, explain := ApplyEventUplift(horizon, rule, cfg, false, quantiles)
	require.NotNil(t, explain)
	assert.InDelta(t, 18.0, out[date("2026-03-01")], 1e-9) // 10 * (180/100)
	assert.Equal(t, 10.0, out[date("2026-03-02")])
}

func TestApplyEventUplift_ClampsToBounds(t *testing.T) {
	horizon := map[time.Time]float64{date("2026-03-01"): 10}
	rule := &domain.EventUpliftRule{DeliveryDate: date("2026-03-01"), Strength: domain.StrengthHigh}
	cfg := EventUpliftConfig{Enabled: true, MinFactor: 0.5, MaxFactor: 3.0}
	quantiles := map[string]float64{"0.50": 10, "0.95": 1000} // raw factor 100x, must clamp to 3.0

	out, explain := ApplyEventUplift(horizon, rule, cfg, false, quantiles)
	assert.Equal(t, 3.0, explain.Multiplier)
	assert.Equal(t, 30.0, out[date("2026-03-01")])
}

func TestApplyEventUplift_ExcludesPerishablesWhenConfigured(t *testing.T) {
	horizon := map[time.Time]float64{date("2026-03-01"): 10}
	rule := &domain.EventUpliftRule{DeliveryDate: date("2026-03-01"), Strength: domain.StrengthHigh}
	cfg := EventUpliftConfig{Enabled: true, PerishablesPolicy: "exclude"}

	out, explain := ApplyEventUplift(horizon, rule, cfg, true, map[string]float64{"0.50": 10, "0.95": 20})
	assert.True(t, explain.Excluded)
	assert.Equal(t, 10.0, out[date("2026-03-01")])
}

func TestApplyEventUplift_NilRuleIsNoOp(t *testing.T) {
	horizon := map[time.Time]float64{date("2026-03-01"): 10}
	out, explain := ApplyEventUplift(horizon, nil, EventUpliftConfig{Enabled: true}, false, nil)
	assert.Nil(t, explain)
	assert.Equal(t, 10.0, out[date("2026-03-01")])
}
