package workflow

import (
	"github.com/pinggolf/replenish-engine/internal/demand"
	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/forecast"
	"github.com/pinggolf/replenish-engine/internal/policy"
	"github.com/pinggolf/replenish-engine/internal/settingsdoc"
)

// componentConfig bundles the per-call configuration each pure package
// needs, derived once per Settings document so proposal building doesn't
// re-derive it per SKU.
type componentConfig struct {
	alpha      policy.AlphaConfig
	forecast   forecast.GlobalSettings
	eventCfg   demand.EventUpliftConfig
	promoCfg   demand.PromoUpliftConfig
	shelfLife  settingsdoc.ShelfLifePolicy
	policyMode domain.PolicyMode
}

func deriveComponentConfig(s settingsdoc.Settings) componentConfig {
	return componentConfig{
		alpha: policy.AlphaConfig{
			PerishableShelfLifeThreshold: 7,
			PerishableAlpha:              s.ServiceLevel.PerishableCSL,
			VariabilityAlpha: map[domain.Variability]float64{
				domain.VariabilityStable:   s.ServiceLevel.VariabilityClusterCSL["STABLE"],
				domain.VariabilityLow:      s.ServiceLevel.VariabilityClusterCSL["LOW"],
				domain.VariabilitySeasonal: s.ServiceLevel.VariabilityClusterCSL["SEASONAL"],
				domain.VariabilityHigh:     s.ServiceLevel.VariabilityClusterCSL["HIGH"],
			},
			GlobalDefault: s.ServiceLevel.DefaultCSL,
		},
		forecast: forecast.GlobalSettings{
			DefaultMethod: domain.ForecastMethod(s.ReorderEngine.ForecastMethod),
			DefaultAlpha:  s.IntermittentForecast.AlphaDefault,
			MCTrials:      s.MonteCarlo.NSimulations,
			MCSeed:        s.MonteCarlo.RandomSeed,
			MinSamplesDOW: 8,
			ADIThreshold:  s.IntermittentForecast.ADIThreshold,
			CV2Threshold:  s.IntermittentForecast.CV2Threshold,
			Backtest: forecast.BacktestConfig{
				Folds:         s.IntermittentForecast.BacktestPeriods,
				MinHistory:    s.IntermittentForecast.BacktestMinHistory,
				DefaultMethod: domain.ForecastMethod(s.IntermittentForecast.DefaultMethod),
			},
		},
		eventCfg: demand.EventUpliftConfig{
			Enabled:           s.EventUplift.Enabled,
			DefaultQuantile:   s.EventUplift.DefaultQuantile,
			MinFactor:         s.EventUplift.MinFactor,
			MaxFactor:         s.EventUplift.MaxFactor,
			PerishablesPolicy: s.EventUplift.PerishablesPolicy,
		},
		promoCfg: demand.PromoUpliftConfig{
			MinUplift: s.PromoUplift.MinUplift, MaxUplift: s.PromoUplift.MaxUplift,
			MinEventsSKU: s.PromoUplift.MinEventsSKU, MinValidDaysSKU: s.PromoUplift.MinValidDaysSKU,
			MinEventsCategory: s.PromoUplift.MinEventsCategory, MinEventsDepartment: s.PromoUplift.MinEventsDepartment,
			WinsorizeTrimPercent: s.PromoUplift.WinsorizeTrimPercent,
			ConfidenceThresholdA: s.PromoUplift.ConfidenceThresholdA, ConfidenceThresholdB: s.PromoUplift.ConfidenceThresholdB,
		},
		shelfLife:  s.ShelfLifePolicy,
		policyMode: domain.PolicyMode(s.ReorderEngine.PolicyMode),
	}
}
