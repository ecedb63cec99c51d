package demand

import "time"

// ApplyCannibalization is the post-promo-dip / neighboring-product
// cannibalization hook (§4.6 step 4). The source spec leaves the rule set
// unspecified and explicitly permits a pass-through until one is supplied,
// so this stays an identity transform — wired into the pipeline so a real
// rule set can be dropped in later without touching callers.
func ApplyCannibalization(horizon map[time.Time]float64) map[time.Time]float64 {
	return cloneHorizon(horizon)
}
