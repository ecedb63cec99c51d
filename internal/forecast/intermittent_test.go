package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

func TestClassify_SmoothDailyDemandIsNotIntermittent(t *testing.T) {
	series := make([]float64, 30)
	for i := range series {
		series[i] = 10
	}
	c := Classify(series, 0, 0)
	assert.False(t, c.Intermittent)
}

func TestClassify_SparseDemandIsIntermittent(t *testing.T) {
	series := make([]float64, 30)
	for i := range series {
		if i%10 == 0 {
			series[i] = 50
		}
	}
	c := Classify(series, 0, 0)
	assert.True(t, c.Intermittent)
}

func TestClassify_AllZeroIsNotIntermittent(t *testing.T) {
	c := Classify(make([]float64, 10), 0, 0)
	assert.False(t, c.Intermittent)
	assert.Equal(t, 0.0, c.ADI)
}

func TestFitCroston_ForecastsNonNegativeRate(t *testing.T) {
	series := []float64{0, 0, 5, 0, 0, 0, 8, 0, 0, 3}
	m := FitCroston(series, 0.2)
	assert.Greater(t, m.Rate, 0.0)
}

func TestFitSBA_DeflatesCrostonRate(t *testing.T) {
	series := []float64{0, 0, 5, 0, 0, 0, 8, 0, 0, 3}
	c := FitCroston(series, 0.2)
	s := FitSBA(series, 0.2)
	assert.Less(t, s.Rate, c.Rate)
}

func TestFitTSB_TracksObsolescence(t *testing.T) {
	series := make([]float64, 40)
	for i := 0; i < 10; i++ {
		series[i] = 5
	}
	// demand stops entirely for the back half of the series
	m := FitTSB(series, 0.3, 0.3)
	assert.Less(t, m.Rate, 5.0)
}

func TestSelectIntermittentMethod_ReturnsAFittedModel(t *testing.T) {
	series := make([]float64, 40)
	for i := range series {
		if i%4 == 0 {
			series[i] = 5
		}
	}
	method, m := SelectIntermittentMethod(series, 0.2, BacktestConfig{})
	assert.Contains(t, []domain.ForecastMethod{domain.ForecastCroston, domain.ForecastSBA, domain.ForecastTSB}, method)
	assert.NotNil(t, m)
}

func TestSelectIntermittentMethod_FallsBackToDefaultMethodWhenHistoryTooShort(t *testing.T) {
	series := []float64{0, 0, 5, 0, 0, 0, 8, 0, 0, 3}
	method, m := SelectIntermittentMethod(series, 0.2, BacktestConfig{MinHistory: 28, DefaultMethod: domain.ForecastSBA})
	assert.Equal(t, domain.ForecastSBA, method)
	assert.NotNil(t, m)
}

func TestSelectIntermittentMethod_DefaultsToSBAFallbackWithZeroValueConfig(t *testing.T) {
	series := []float64{0, 0, 5, 0, 0, 0, 8, 0, 0, 3}
	method, _ := SelectIntermittentMethod(series, 0.2, BacktestConfig{})
	assert.Equal(t, domain.ForecastSBA, method, "spec default_method for an insufficient-history fallback is sba")
}

func TestBacktestOrigins_ProducesFourFoldsByDefault(t *testing.T) {
	origins := backtestOrigins(40, 28, 4)
	require.Len(t, origins, 4)
	assert.Equal(t, 28, origins[0])
	assert.Equal(t, 39, origins[len(origins)-1])
}

func TestRollingOriginWMAPE_PerfectFitIsZero(t *testing.T) {
	series := make([]float64, 40)
	for i := range series {
		series[i] = 10
	}
	w := rollingOriginWMAPE(series, 28, 4, func(h []float64) float64 { return 10 })
	assert.Equal(t, 0.0, w)
}

func TestRollingOriginWMAPE_InsufficientHistoryIsInfinite(t *testing.T) {
	series := []float64{1, 2, 3}
	w := rollingOriginWMAPE(series, 28, 4, func(h []float64) float64 { return 0 })
	assert.True(t, math.IsInf(w, 1))
}
