package demand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpectedWasteRate_DefaultsRealizationFactor(t *testing.T) {
	assert.InDelta(t, 0.10, ExpectedWasteRate(20, 0), 1e-9) // 20% * default 0.5
}

func TestApplyWasteAdjustment_ScalesEveryDate(t *testing.T) {
	horizon := map[time.Time]float64{
		date("2026-03-01"): 100,
		date("2026-03-02"): 50,
	}
	out := ApplyWasteAdjustment(horizon, 20, 0.5)
	assert.InDelta(t, 90.0, out[date("2026-03-01")], 1e-9)
	assert.InDelta(t, 45.0, out[date("2026-03-02")], 1e-9)
}

func TestScaleStat_MatchesHorizonScaling(t *testing.T) {
	assert.InDelta(t, 90.0, ScaleStat(100, 20, 0.5), 1e-9)
}
