// Package settingsdoc implements the closed, enumerated Settings/Holidays
// option tree (§6, C10): typed defaults, dynamic-JSON replacement, and
// unknown-key round-tripping ("ignored on read, preserved on write").
package settingsdoc

import "encoding/json"

// ReorderEngine mirrors the reorder_engine settings block (§6).
type ReorderEngine struct {
	LeadTimeDays      int    `json:"lead_time_days"`
	ReviewPeriodDays  int    `json:"review_period_days"`
	MinStock          int    `json:"min_stock"`
	DaysCover         int    `json:"days_cover"`
	MOQ               int    `json:"moq"`
	MaxStock          int    `json:"max_stock"`
	ReorderPoint      int    `json:"reorder_point"`
	DemandVariability string `json:"demand_variability"`
	PolicyMode        string `json:"policy_mode"` // "legacy" | "csl"
	ForecastMethod    string `json:"forecast_method"`
}

// ServiceLevel mirrors the service_level settings block.
type ServiceLevel struct {
	DefaultCSL            float64            `json:"default_csl"`
	VariabilityClusterCSL map[string]float64 `json:"variability_cluster_csl"`
	PerishableCSL         float64            `json:"perishable_csl"`
}

// MonteCarlo mirrors the monte_carlo settings block.
type MonteCarlo struct {
	Distribution     string  `json:"distribution"`
	NSimulations     int     `json:"n_simulations"`
	RandomSeed       int64   `json:"random_seed"`
	OutputStat       string  `json:"output_stat"`
	OutputPercentile float64 `json:"output_percentile"`
}

// AutoVariability mirrors the auto_variability settings block.
type AutoVariability struct {
	Enabled           bool    `json:"enabled"`
	MinObservations   int     `json:"min_observations"`
	StablePercentile  float64 `json:"stable_percentile"`
	HighPercentile    float64 `json:"high_percentile"`
	SeasonalThreshold float64 `json:"seasonal_threshold"`
	FallbackCategory  string  `json:"fallback_category"`
}

// ShelfLifePolicy mirrors the shelf_life_policy settings block.
type ShelfLifePolicy struct {
	Enabled                bool               `json:"enabled"`
	MinShelfLifeGlobal     int                `json:"min_shelf_life_global"`
	WastePenaltyMode       string             `json:"waste_penalty_mode"`
	WastePenaltyFactor     float64            `json:"waste_penalty_factor"`
	WasteRiskThreshold     float64            `json:"waste_risk_threshold"`
	WasteHorizonDays       int                `json:"waste_horizon_days"`
	WasteRealizationFactor float64            `json:"waste_realization_factor"`
	CategoryOverrides      map[string]float64 `json:"category_overrides"`
}

// EventUplift mirrors the event_uplift settings block.
type EventUplift struct {
	Enabled               bool    `json:"enabled"`
	DefaultQuantile       float64 `json:"default_quantile"`
	MinFactor             float64 `json:"min_factor"`
	MaxFactor             float64 `json:"max_factor"`
	ApplyTo               string  `json:"apply_to"`
	BetaNormalizationMode string  `json:"beta_normalization_mode"`
	PerishablesPolicy     string  `json:"perishables_policy"`
}

// PromoUplift mirrors the promo_uplift settings block.
type PromoUplift struct {
	MinUplift            float64 `json:"min_uplift"`
	MaxUplift            float64 `json:"max_uplift"`
	MinEventsSKU         int     `json:"min_events_sku"`
	MinValidDaysSKU      int     `json:"min_valid_days_sku"`
	MinEventsCategory    int     `json:"min_events_category"`
	MinEventsDepartment  int     `json:"min_events_department"`
	WinsorizeTrimPercent float64 `json:"winsorize_trim_percent"`
	DenominatorEpsilon   float64 `json:"denominator_epsilon"`
	ConfidenceThresholdA int     `json:"confidence_threshold_a"`
	ConfidenceThresholdB int     `json:"confidence_threshold_b"`
}

// IntermittentForecast mirrors the intermittent_forecast settings block.
type IntermittentForecast struct {
	Enabled            bool    `json:"enabled"`
	ADIThreshold       float64 `json:"adi_threshold"`
	CV2Threshold       float64 `json:"cv2_threshold"`
	AlphaDefault       float64 `json:"alpha_default"`
	LookbackDays       int     `json:"lookback_days"`
	BacktestEnabled    bool    `json:"backtest_enabled"`
	BacktestPeriods    int     `json:"backtest_periods"`
	BacktestMetric     string  `json:"backtest_metric"`
	BacktestMinHistory int     `json:"backtest_min_history"`
	DefaultMethod      string  `json:"default_method"`
	FallbackToSimple   bool    `json:"fallback_to_simple"`
	ObsolescenceWindow int     `json:"obsolescence_window"`
}

// ExpiryAlerts mirrors the expiry_alerts settings block.
type ExpiryAlerts struct {
	CriticalThresholdDays int `json:"critical_threshold_days"`
	WarningThresholdDays  int `json:"warning_threshold_days"`
}

// Settings is the full settings document (§6). Unknown is every
// top-level key the typed fields above don't recognize; it is populated
// on read and re-emitted verbatim on write so round-tripping never loses
// data the core doesn't understand yet.
type Settings struct {
	ReorderEngine        ReorderEngine        `json:"reorder_engine"`
	ServiceLevel         ServiceLevel         `json:"service_level"`
	MonteCarlo           MonteCarlo           `json:"monte_carlo"`
	AutoVariability      AutoVariability      `json:"auto_variability"`
	ShelfLifePolicy      ShelfLifePolicy      `json:"shelf_life_policy"`
	EventUplift          EventUplift          `json:"event_uplift"`
	PromoUplift          PromoUplift          `json:"promo_uplift"`
	IntermittentForecast IntermittentForecast `json:"intermittent_forecast"`
	ExpiryAlerts         ExpiryAlerts         `json:"expiry_alerts"`

	Unknown map[string]json.RawMessage `json:"-"`
}

var knownKeys = map[string]bool{
	"reorder_engine": true, "service_level": true, "monte_carlo": true,
	"auto_variability": true, "shelf_life_policy": true, "event_uplift": true,
	"promo_uplift": true, "intermittent_forecast": true, "expiry_alerts": true,
}

// Default returns the built-in default settings document.
func Default() Settings {
	return Settings{
		ReorderEngine: ReorderEngine{PolicyMode: "legacy", ForecastMethod: "simple"},
		ServiceLevel: ServiceLevel{
			DefaultCSL: 0.90,
			VariabilityClusterCSL: map[string]float64{
				"STABLE": 0.92, "LOW": 0.90, "SEASONAL": 0.95, "HIGH": 0.95,
			},
			PerishableCSL: 0.98,
		},
		MonteCarlo:      MonteCarlo{Distribution: "empirical", NSimulations: 1000, OutputStat: "percentile", OutputPercentile: 90},
		AutoVariability: AutoVariability{MinObservations: 30, StablePercentile: 25, HighPercentile: 75},
		ShelfLifePolicy: ShelfLifePolicy{WasteRealizationFactor: 0.5},
		EventUplift:     EventUplift{DefaultQuantile: 0.80, MinFactor: 0.5, MaxFactor: 3.0},
		PromoUplift: PromoUplift{
			MinUplift: 1.0, MaxUplift: 3.0, WinsorizeTrimPercent: 0.1,
			MinEventsSKU: 3, MinValidDaysSKU: 10, MinEventsCategory: 5, MinEventsDepartment: 8,
			ConfidenceThresholdA: 5, ConfidenceThresholdB: 2,
		},
		IntermittentForecast: IntermittentForecast{
			ADIThreshold: 1.32, CV2Threshold: 0.49, AlphaDefault: 0.1, LookbackDays: 90,
			BacktestEnabled: true, BacktestPeriods: 4, BacktestMetric: "wmape", BacktestMinHistory: 28, DefaultMethod: "sba",
		},
		ExpiryAlerts: ExpiryAlerts{CriticalThresholdDays: 3, WarningThresholdDays: 10},
		Unknown:      map[string]json.RawMessage{},
	}
}

// MarshalJSON emits the typed fields plus any preserved unknown keys.
func (s Settings) MarshalJSON() ([]byte, error) {
	type alias Settings
	base, err := json.Marshal(alias(s))
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range s.Unknown {
		if !knownKeys[k] {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON populates typed fields and stashes unrecognized top-level
// keys into Unknown.
func (s *Settings) UnmarshalJSON(data []byte) error {
	type alias Settings
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = Settings(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Unknown = map[string]json.RawMessage{}
	for k, v := range raw {
		if !knownKeys[k] {
			s.Unknown[k] = v
		}
	}
	return nil
}
