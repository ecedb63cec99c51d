package forecast

import (
	"math"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

// Classification flags a demand series as intermittent (and in the
// extreme, "lumpy") using the ADI/CV² test (§4.5): average inter-demand
// interval versus squared coefficient of variation of non-zero demand.
type Classification struct {
	ADI         float64
	CV2         float64
	Intermittent bool
	Lumpy       bool
}

const (
	defaultADIThreshold = 1.32
	defaultCV2Threshold = 0.49
)

// Classify runs the ADI/CV² test over a daily series (zero for no-sale
// days). A series only qualifies as intermittent when it has at least one
// non-zero observation; an all-zero series classifies as non-intermittent
// so the baseline's zero forecast is used as-is. adiThreshold/cv2Threshold
// come from the intermittent_forecast settings block; a non-positive value
// falls back to the spec defaults (1.32 / 0.49).
func Classify(dailyQty []float64, adiThreshold, cv2Threshold float64) Classification {
	if adiThreshold <= 0 {
		adiThreshold = defaultADIThreshold
	}
	if cv2Threshold <= 0 {
		cv2Threshold = defaultCV2Threshold
	}
	var nonZero []float64
	var gaps []float64
	sinceLastDemand := 0
	for _, v := range dailyQty {
		if v > 0 {
			nonZero = append(nonZero, v)
			gaps = append(gaps, float64(sinceLastDemand+1))
			sinceLastDemand = 0
		} else {
			sinceLastDemand++
		}
	}
	if len(nonZero) == 0 {
		return Classification{}
	}
	adi := mean(gaps)
	m := mean(nonZero)
	sd := stddev(nonZero)
	cv2 := 0.0
	if m > 0 {
		cv2 = (sd / m) * (sd / m)
	}
	c := Classification{ADI: adi, CV2: cv2}
	c.Intermittent = adi >= adiThreshold || cv2 >= cv2Threshold
	c.Lumpy = adi >= adiThreshold && cv2 >= cv2Threshold
	return c
}

// IntermittentModel is the fitted state of a Croston-family smoother: a
// demand-size level, an inter-arrival-interval level, and a forecast rate
// (demand-size level / interval level, SBA-deflated when applicable).
type IntermittentModel struct {
	Method       domain.ForecastMethod
	Alpha        float64
	DemandLevel  float64
	IntervalLevel float64
	Rate         float64 // forecasted demand per period
	// TSB-only state
	ProbLevel float64
}

// FitCroston fits the classic Croston (1972) method: separate
// exponentially-smoothed levels for non-zero demand size and inter-demand
// interval, forecast = demandLevel / intervalLevel.
func FitCroston(dailyQty []float64, alpha float64) *IntermittentModel {
	return fitCrostonFamily(dailyQty, alpha, domain.ForecastCroston, false)
}

// FitSBA fits the Syntetos-Boylan Approximation, which deflates Croston's
// forecast by (1 - alpha/2) to correct its known positive bias.
func FitSBA(dailyQty []float64, alpha float64) *IntermittentModel {
	return fitCrostonFamily(dailyQty, alpha, domain.ForecastSBA, true)
}

func fitCrostonFamily(dailyQty []float64, alpha float64, method domain.ForecastMethod, sba bool) *IntermittentModel {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.1
	}
	m := &IntermittentModel{Method: method, Alpha: alpha}
	sinceLastDemand := 0
	initialized := false
	for _, v := range dailyQty {
		sinceLastDemand++
		if v <= 0 {
			continue
		}
		interval := float64(sinceLastDemand)
		if !initialized {
			m.DemandLevel = v
			m.IntervalLevel = interval
			initialized = true
		} else {
			m.DemandLevel += alpha * (v - m.DemandLevel)
			m.IntervalLevel += alpha * (interval - m.IntervalLevel)
		}
		sinceLastDemand = 0
	}
	if !initialized || m.IntervalLevel == 0 {
		return m
	}
	rate := m.DemandLevel / m.IntervalLevel
	if sba {
		rate *= 1 - alpha/2
	}
	m.Rate = rate
	return m
}

// FitTSB fits Teunter-Syntetos-Babai: separately smoothed demand-size level
// and demand-probability level (updated every period, unlike Croston's
// interval smoothing which only updates on demand occurrences). TSB reacts
// faster to obsolescence (demand stopping entirely).
func FitTSB(dailyQty []float64, alphaDemand, alphaProb float64) *IntermittentModel {
	if alphaDemand <= 0 || alphaDemand > 1 {
		alphaDemand = 0.1
	}
	if alphaProb <= 0 || alphaProb > 1 {
		alphaProb = 0.1
	}
	m := &IntermittentModel{Method: domain.ForecastTSB, Alpha: alphaDemand}
	initialized := false
	for _, v := range dailyQty {
		occurred := 0.0
		if v > 0 {
			occurred = 1.0
		}
		if !initialized {
			m.ProbLevel = occurred
			if v > 0 {
				m.DemandLevel = v
			}
			initialized = true
			continue
		}
		m.ProbLevel += alphaProb * (occurred - m.ProbLevel)
		if v > 0 {
			m.DemandLevel += alphaDemand * (v - m.DemandLevel)
		}
	}
	m.Rate = m.ProbLevel * m.DemandLevel
	return m
}

// PeriodDemand returns the fitted per-period demand rate, the value used
// as the daily-equivalent baseline for a protection-period forecast.
func (m *IntermittentModel) PeriodDemand() float64 {
	if m == nil {
		return 0
	}
	return m.Rate
}

// BacktestConfig is the intermittent_forecast backtest block (§6 Settings):
// K-fold count, minimum training history, and the method to fall back to
// when history is insufficient to backtest at all.
type BacktestConfig struct {
	Folds         int
	MinHistory    int
	DefaultMethod domain.ForecastMethod
}

// resolve fills in the spec defaults (K=4, min_history=28, default_method
// sba) for any field left at its zero value.
func (c BacktestConfig) resolve() BacktestConfig {
	if c.Folds <= 0 {
		c.Folds = 4
	}
	if c.MinHistory <= 0 {
		c.MinHistory = 28
	}
	if c.DefaultMethod == "" {
		c.DefaultMethod = domain.ForecastSBA
	}
	return c
}

// backtestOrigins picks up to `folds` evenly spaced one-step-ahead origins
// across [minHistory, n-1], the rolling-origin fold boundaries (§4.5).
func backtestOrigins(n, minHistory, folds int) []int {
	last := n - 1
	if last < minHistory {
		return nil
	}
	span := last - minHistory
	if span == 0 || folds <= 1 {
		return []int{last}
	}
	if folds > span+1 {
		folds = span + 1
	}
	origins := make([]int, 0, folds)
	for i := 0; i < folds; i++ {
		origins = append(origins, minHistory+(span*i)/(folds-1))
	}
	return origins
}

// rollingOriginWMAPE backtests a fitted-method constructor over K
// evenly-spaced one-step-ahead origins, returning the weighted MAPE
// (sum|actual-pred| / sum|actual|) across folds (§4.5: "using WMAPE").
// Returns +Inf when there isn't enough history for even one fold.
func rollingOriginWMAPE(dailyQty []float64, minHistory, folds int, fit func([]float64) float64) float64 {
	origins := backtestOrigins(len(dailyQty), minHistory, folds)
	if len(origins) == 0 {
		return math.Inf(1)
	}
	var errSum, actualSum float64
	for _, origin := range origins {
		actual := dailyQty[origin]
		pred := fit(dailyQty[:origin])
		errSum += math.Abs(actual - pred)
		actualSum += math.Abs(actual)
	}
	if actualSum == 0 {
		return 0
	}
	return errSum / actualSum
}

// fitMethod fits the named intermittent method and returns it alongside its
// canonical domain.ForecastMethod, defaulting to Croston for an unrecognized
// method value.
func fitMethod(method domain.ForecastMethod, dailyQty []float64, alpha float64) (domain.ForecastMethod, *IntermittentModel) {
	switch method {
	case domain.ForecastSBA:
		return domain.ForecastSBA, FitSBA(dailyQty, alpha)
	case domain.ForecastTSB:
		return domain.ForecastTSB, FitTSB(dailyQty, alpha, alpha)
	default:
		return domain.ForecastCroston, FitCroston(dailyQty, alpha)
	}
}

// SelectIntermittentMethod runs a rolling-origin backtest over cfg.Folds
// folds (default 4) using WMAPE, selecting whichever of Croston/SBA/TSB
// scores lowest, breaking ties in that preference order. When the series
// is no longer than cfg.MinHistory (default 28 days) there isn't enough
// history to backtest at all, so it falls back to cfg.DefaultMethod
// (default sba) directly, per §4.5.
func SelectIntermittentMethod(dailyQty []float64, alpha float64, cfg BacktestConfig) (domain.ForecastMethod, *IntermittentModel) {
	cfg = cfg.resolve()
	if len(dailyQty) <= cfg.MinHistory {
		return fitMethod(cfg.DefaultMethod, dailyQty, alpha)
	}

	crostonWMAPE := rollingOriginWMAPE(dailyQty, cfg.MinHistory, cfg.Folds, func(h []float64) float64 {
		return FitCroston(h, alpha).PeriodDemand()
	})
	sbaWMAPE := rollingOriginWMAPE(dailyQty, cfg.MinHistory, cfg.Folds, func(h []float64) float64 {
		return FitSBA(h, alpha).PeriodDemand()
	})
	tsbWMAPE := rollingOriginWMAPE(dailyQty, cfg.MinHistory, cfg.Folds, func(h []float64) float64 {
		return FitTSB(h, alpha, alpha).PeriodDemand()
	})

	best := domain.ForecastCroston
	bestWMAPE := crostonWMAPE
	if sbaWMAPE < bestWMAPE {
		best = domain.ForecastSBA
		bestWMAPE = sbaWMAPE
	}
	if tsbWMAPE < bestWMAPE {
		best = domain.ForecastTSB
		bestWMAPE = tsbWMAPE
	}
	if math.IsInf(bestWMAPE, 1) {
		best = cfg.DefaultMethod
	}
	return fitMethod(best, dailyQty, alpha)
}
