// Package demand implements the driver pipeline (§4.6, C6): event uplift,
// promo uplift, cannibalization, and waste adjustment layered on top of a
// baseline/forecast horizon map.
package demand

import (
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

// EventUpliftConfig is the event_uplift settings block (§6 Settings).
type EventUpliftConfig struct {
	Enabled           bool
	DefaultQuantile   float64
	MinFactor         float64
	MaxFactor         float64
	PerishablesPolicy string // "", "exclude"
}

func (c EventUpliftConfig) bounds() (min, max float64) {
	min, max = c.MinFactor, c.MaxFactor
	if min == 0 && max == 0 {
		min, max = 0.5, 3.0
	}
	return
}

// strengthQuantile maps an uplift rule's qualitative strength to the D_P
// quantile it draws its multiplier from (§4.6 step 2, configurable
// defaults).
func strengthQuantile(s domain.UpliftStrength) float64 {
	switch s {
	case domain.StrengthLow:
		return 0.50
	case domain.StrengthMed:
		return 0.80
	case domain.StrengthHigh:
		return 0.95
	default:
		return 0.50
	}
}

// ResolveEventRule picks the applicable rule for (deliveryDate, sku) out of
// candidates already filtered to that date, honoring the SKU > DEPARTMENT >
// CATEGORY > ALL precedence (§3).
func ResolveEventRule(rules []*domain.EventUpliftRule, skuCode, category, department string) *domain.EventUpliftRule {
	var byScope = map[domain.ScopeType]*domain.EventUpliftRule{}
	for _, r := range rules {
		switch r.ScopeType {
		case domain.ScopeSKU:
			if r.ScopeKey == skuCode {
				byScope[domain.ScopeSKU] = r
			}
		case domain.ScopeDepartment:
			if r.ScopeKey == department {
				byScope[domain.ScopeDepartment] = r
			}
		case domain.ScopeCategory:
			if r.ScopeKey == category {
				byScope[domain.ScopeCategory] = r
			}
		case domain.ScopeAll:
			byScope[domain.ScopeAll] = r
		}
	}
	for _, scope := range []domain.ScopeType{domain.ScopeSKU, domain.ScopeDepartment, domain.ScopeCategory, domain.ScopeAll} {
		if r, ok := byScope[scope]; ok {
			return r
		}
	}
	return nil
}

// EventUpliftExplain records how a single delivery date's multiplier was
// derived, for OrderExplain's event_explain field.
type EventUpliftExplain struct {
	DeliveryDate time.Time
	Rule         *domain.EventUpliftRule
	Quantile     float64
	RawFactor    float64
	Multiplier   float64
	Excluded     bool
}

// ApplyEventUplift multiplies horizon[deliveryDate] by the resolved rule's
// clamped multiplier, leaving every other date unchanged (§4.6 step 2).
// quantiles is the SKU's own D_P quantile map, from which the multiplier
// candidate is read (the "rawFactor" the quantile maps to, expressed as a
// ratio against the median so LOW/MED/HIGH scale sensibly even when D_P's
// absolute level is tiny).
func ApplyEventUplift(
	horizon map[time.Time]float64,
	rule *domain.EventUpliftRule,
	cfg EventUpliftConfig,
	isPerishable bool,
	quantiles map[string]float64,
) (map[time.Time]float64, *EventUpliftExplain) {
	out := cloneHorizon(horizon)
	if rule == nil || !cfg.Enabled {
		return out, nil
	}
	explain := &EventUpliftExplain{DeliveryDate: rule.DeliveryDate, Rule: rule}

	if isPerishable && cfg.PerishablesPolicy == "exclude" {
		explain.Excluded = true
		return out, explain
	}

	q := strengthQuantile(rule.Strength)
	explain.Quantile = q

	median := quantiles["0.50"]
	high := quantiles[formatQuantileKey(q)]
	rawFactor := 1.0
	if median > 0 && high > 0 {
		rawFactor = high / median
	}
	explain.RawFactor = rawFactor

	min, max := cfg.bounds()
	m := rawFactor
	if m < min {
		m = min
	}
	if m > max {
		m = max
	}
	explain.Multiplier = m

	d := normalizeDate(rule.DeliveryDate)
	if v, ok := out[d]; ok {
		out[d] = v * m
	}
	return out, explain
}

func formatQuantileKey(q float64) string {
	switch {
	case q >= 0.98:
		return "0.98"
	case q >= 0.95:
		return "0.95"
	case q >= 0.90:
		return "0.90"
	case q >= 0.80:
		return "0.80"
	default:
		return "0.50"
	}
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func cloneHorizon(h map[time.Time]float64) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
