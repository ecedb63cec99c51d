package demand

import (
	"sort"
	"time"
)

// PromoUpliftConfig is the promo_uplift settings block (§6 Settings).
type PromoUpliftConfig struct {
	MinUplift            float64
	MaxUplift            float64
	MinEventsSKU         int
	MinValidDaysSKU      int
	MinEventsCategory    int
	MinEventsDepartment  int
	WinsorizeTrimPercent float64
	DenominatorEpsilon   float64
	ConfidenceThresholdA int
	ConfidenceThresholdB int
}

func (c PromoUpliftConfig) guardrails() (min, max float64) {
	min, max = c.MinUplift, c.MaxUplift
	if min == 0 && max == 0 {
		min, max = 1.0, 3.0
	}
	return
}

// PromoObservation is one historical promo-window day's uplift ratio
// (actual_sales / baseline_forecast) for a single SKU, collected only from
// days strictly before that promo's own start date in the baseline's
// training window (anti-leakage, §4.6 step 3).
type PromoObservation struct {
	EventID  string // groups days belonging to the same merged promo window
	Date     time.Time
	Ratio    float64
	Censored bool
}

// PoolLevel names which hierarchy tier a promo uplift was estimated at.
type PoolLevel string

const (
	PoolSKU        PoolLevel = "SKU"
	PoolCategory   PoolLevel = "CATEGORY"
	PoolDepartment PoolLevel = "DEPARTMENT"
	PoolGlobal     PoolLevel = "GLOBAL"
)

// Confidence grades a pooled promo-uplift estimate by how much supporting
// data backed it (§4.6 step 3).
type Confidence string

const (
	ConfidenceA Confidence = "A" // SKU tier with at least ConfidenceThresholdA events
	ConfidenceB Confidence = "B" // SKU, category or department tier with at least ConfidenceThresholdB events
	ConfidenceC Confidence = "C" // fewer events than that, or global pooling
)

// PromoExplain records how a pooled promo-uplift multiplier was derived.
type PromoExplain struct {
	Level      PoolLevel
	Confidence Confidence
	EventCount int
	ValidDays  int
	Multiplier float64
}

// eventCount returns the number of distinct EventIDs and the number of
// non-censored days across obs.
func eventCount(obs []PromoObservation) (events, validDays int) {
	seen := map[string]bool{}
	for _, o := range obs {
		if o.Censored {
			continue
		}
		validDays++
		if !seen[o.EventID] {
			seen[o.EventID] = true
			events++
		}
	}
	return
}

// winsorizedMean trims the top and bottom trimPercent of sorted values
// before averaging the remainder (§4.6 step 3).
func winsorizedMean(ratios []float64, trimPercent float64) float64 {
	if len(ratios) == 0 {
		return 1.0
	}
	sorted := append([]float64(nil), ratios...)
	sort.Float64s(sorted)
	if trimPercent <= 0 {
		return mean(sorted)
	}
	n := len(sorted)
	trim := int(float64(n) * trimPercent)
	if 2*trim >= n {
		return mean(sorted)
	}
	return mean(sorted[trim : n-trim])
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func ratios(obs []PromoObservation) []float64 {
	out := make([]float64, 0, len(obs))
	for _, o := range obs {
		if !o.Censored {
			out = append(out, o.Ratio)
		}
	}
	return out
}

// PoolSources bundles the candidate observation sets at each hierarchy
// tier (§4.6 step 3: SKU → category → department → global).
type PoolSources struct {
	SKUObs        []PromoObservation
	CategoryObs   []PromoObservation
	DepartmentObs []PromoObservation
	GlobalObs     []PromoObservation
}

// ComputePromoUplift pools observations from the most specific tier that
// meets its minimum-data threshold, computes a winsorized-mean multiplier,
// clamps it to the configured guardrails, and grades the result's
// confidence.
func ComputePromoUplift(src PoolSources, cfg PromoUpliftConfig) PromoExplain {
	events, validDays := eventCount(src.SKUObs)
	if events >= cfg.MinEventsSKU && validDays >= cfg.MinValidDaysSKU {
		return finalizePromo(src.SKUObs, PoolSKU, events, cfg)
	}

	events, _ = eventCount(src.CategoryObs)
	if events >= cfg.MinEventsCategory {
		return finalizePromo(src.CategoryObs, PoolCategory, events, cfg)
	}

	events, _ = eventCount(src.DepartmentObs)
	if events >= cfg.MinEventsDepartment {
		return finalizePromo(src.DepartmentObs, PoolDepartment, events, cfg)
	}

	events, _ = eventCount(src.GlobalObs)
	return finalizePromo(src.GlobalObs, PoolGlobal, events, cfg)
}

func finalizePromo(obs []PromoObservation, level PoolLevel, events int, cfg PromoUpliftConfig) PromoExplain {
	m := winsorizedMean(ratios(obs), cfg.WinsorizeTrimPercent)
	min, max := cfg.guardrails()
	if m < min {
		m = min
	}
	if m > max {
		m = max
	}
	_, validDays := eventCount(obs)

	confidence := ConfidenceC
	switch level {
	case PoolSKU:
		if events >= cfg.ConfidenceThresholdA {
			confidence = ConfidenceA
		} else if events >= cfg.ConfidenceThresholdB {
			confidence = ConfidenceB
		} else {
			confidence = ConfidenceC
		}
	case PoolCategory, PoolDepartment:
		if events >= cfg.ConfidenceThresholdB {
			confidence = ConfidenceB
		} else {
			confidence = ConfidenceC
		}
	default:
		confidence = ConfidenceC
	}

	return PromoExplain{Level: level, Confidence: confidence, EventCount: events, ValidDays: validDays, Multiplier: m}
}

// ApplyPromoUplift multiplies every horizon date that falls within
// [start, end] by the resolved multiplier; dates outside the window are
// unchanged.
func ApplyPromoUplift(horizon map[time.Time]float64, start, end time.Time, explain PromoExplain) map[time.Time]float64 {
	out := cloneHorizon(horizon)
	s, e := normalizeDate(start), normalizeDate(end)
	for d, v := range out {
		if !d.Before(s) && !d.After(e) {
			out[d] = v * explain.Multiplier
		}
	}
	return out
}

// MergePromoWindows merges overlapping or adjacent (gap ≤ 1 day) windows
// into single events for uplift estimation (§3 PromoWindow).
func MergePromoWindows(starts, ends []time.Time) ([]time.Time, []time.Time) {
	type window struct{ start, end time.Time }
	if len(starts) == 0 {
		return nil, nil
	}
	windows := make([]window, len(starts))
	for i := range starts {
		windows[i] = window{normalizeDate(starts[i]), normalizeDate(ends[i])}
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].start.Before(windows[j].start) })

	merged := []window{windows[0]}
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		gap := w.start.Sub(last.end).Hours() / 24
		if gap <= 1 {
			if w.end.After(last.end) {
				last.end = w.end
			}
			continue
		}
		merged = append(merged, w)
	}

	outStarts := make([]time.Time, len(merged))
	outEnds := make([]time.Time, len(merged))
	for i, w := range merged {
		outStarts[i] = w.start
		outEnds[i] = w.end
	}
	return outStarts, outEnds
}
