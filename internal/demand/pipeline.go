package demand

import (
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

// PipelineInput bundles everything the driver pipeline needs to adjust a
// baseline horizon map (§4.6: event uplift → promo uplift →
// cannibalization → waste adjustment).
type PipelineInput struct {
	Baseline map[time.Time]float64

	EventRule       *domain.EventUpliftRule
	EventCfg        EventUpliftConfig
	IsPerishable    bool
	BaselineQuantiles map[string]float64

	PromoStart *time.Time
	PromoEnd   *time.Time
	PromoSrc   PoolSources
	PromoCfg   PromoUpliftConfig

	WasteRiskPercent     float64
	WasteRealizationFactor float64
}

// PipelineExplain collects the per-stage explain records for OrderExplain.
type PipelineExplain struct {
	Event *EventUpliftExplain
	Promo *PromoExplain
}

// Run executes the four driver stages in order and returns the adjusted
// horizon map alongside the stages' explain records (§4.6).
func Run(in PipelineInput) (map[time.Time]float64, PipelineExplain) {
	var explain PipelineExplain

	horizon, eventExplain := ApplyEventUplift(in.Baseline, in.EventRule, in.EventCfg, in.IsPerishable, in.BaselineQuantiles)
	explain.Event = eventExplain

	if in.PromoStart != nil && in.PromoEnd != nil {
		promoExplain := ComputePromoUplift(in.PromoSrc, in.PromoCfg)
		horizon = ApplyPromoUplift(horizon, *in.PromoStart, *in.PromoEnd, promoExplain)
		explain.Promo = &promoExplain
	}

	horizon = ApplyCannibalization(horizon)

	horizon = ApplyWasteAdjustment(horizon, in.WasteRiskPercent, in.WasteRealizationFactor)

	return horizon, explain
}
