package policy

import (
	"fmt"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

// ReorderPointInput bundles everything the three S formulas need (§4.7).
type ReorderPointInput struct {
	Mode          domain.PolicyMode
	ForecastMethod domain.ForecastMethod
	Alpha         float64

	// CSL / monte_carlo path
	Quantiles map[string]float64 // keys "0.50".."0.98"
	MuP       float64
	SigmaP    float64

	// legacy path
	ForecastQty          float64 // daily_sales_avg · P
	AdjustedSafetyStock  float64
}

// ReorderPointResult is S plus the method tag and, when applicable, the
// matched quantile (§4.7 OrderExplain fields).
type ReorderPointResult struct {
	S            float64
	Method       domain.ReorderPointMethod
	QuantileUsed float64 // only set when Method == MethodQuantile
}

// quantileKey formats α to the two-decimal string keys D_P.quantiles uses.
func quantileKey(alpha float64) string {
	return fmt.Sprintf("%.2f", alpha)
}

// ComputeReorderPoint dispatches to the formula selected by
// (mode, forecast_method) per §4.7.
func ComputeReorderPoint(in ReorderPointInput) ReorderPointResult {
	if in.Mode == domain.PolicyLegacy {
		return ReorderPointResult{
			S:      in.ForecastQty + in.AdjustedSafetyStock,
			Method: domain.MethodLegacy,
		}
	}

	// policy_mode == csl
	if in.ForecastMethod == domain.ForecastMonteCarlo {
		key := quantileKey(in.Alpha)
		if q, ok := in.Quantiles[key]; ok {
			return ReorderPointResult{S: q, Method: domain.MethodQuantile, QuantileUsed: q}
		}
		z := InverseNormalCDF(in.Alpha)
		return ReorderPointResult{S: in.MuP + z*in.SigmaP, Method: domain.MethodZScoreFallback}
	}

	// csl + simple (or any other non-monte-carlo method): z_score off the
	// moving-average mean/residual-std pair.
	z := InverseNormalCDF(in.Alpha)
	return ReorderPointResult{S: in.MuP + z*in.SigmaP, Method: domain.MethodZScore}
}
