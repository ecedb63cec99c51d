package workflow

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pinggolf/replenish-engine/internal/calendar"
	"github.com/pinggolf/replenish-engine/internal/demand"
	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/forecast"
	"github.com/pinggolf/replenish-engine/internal/ledger"
	"github.com/pinggolf/replenish-engine/internal/policy"
	"github.com/pinggolf/replenish-engine/internal/settingsdoc"
)

// Proposal is one lane's order recommendation (§4.8 "Order proposal").
type Proposal struct {
	SKU     string
	Lane    calendar.Lane
	Explain policy.OrderExplain
}

const reconcileTolerance = 1

// ProposeOrder builds the proposal(s) for one SKU on orderDate, splitting a
// Friday order into SATURDAY+MONDAY lanes with the SATURDAY proposal's
// quantity merged into MONDAY's pipeline before MONDAY's IP is computed
// (§4.7 "Raw order").
func (e *Engine) ProposeOrder(ctx context.Context, skuCode string, orderDate time.Time) ([]Proposal, error) {
	sku, err := e.SKUs.Get(ctx, skuCode)
	if err != nil {
		return nil, err
	}
	settings, err := e.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	cfg := deriveComponentConfig(settings)

	lanes, err := calendar.LaneForOrderDate(e.Calendar, orderDate)
	if err != nil {
		return nil, err
	}

	txs, err := e.Ledger.ListForSKU(ctx, skuCode)
	if err != nil {
		return nil, err
	}
	lots, err := e.Lots.ListForSKU(ctx, skuCode)
	if err != nil {
		return nil, err
	}
	sales, err := e.Sales.ListForSKU(ctx, skuCode, orderDate.AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}
	obs := buildObservations(sales, txs, orderDate)

	var proposals []Proposal
	var pipelineExtra []ledger.PipelineEntry

	for _, lane := range lanes {
		pw := calendar.ComputeProtectionWindow(e.Calendar, orderDate, lane)
		p, err := e.buildProposal(ctx, sku, orderDate, lane, pw, cfg, settings, txs, lots, obs, pipelineExtra)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
		pipelineExtra = append(pipelineExtra, ledger.PipelineEntry{ReceiptDate: pw.R1, Qty: p.Explain.FinalQty})
	}
	return proposals, nil
}

func (e *Engine) buildProposal(
	ctx context.Context,
	sku *domain.SKU,
	orderDate time.Time,
	lane calendar.Lane,
	pw calendar.ProtectionWindow,
	cfg componentConfig,
	settings settingsdoc.Settings,
	txs []*domain.Transaction,
	lots []*domain.Lot,
	obs []forecast.Observation,
	pipelineExtra []ledger.PipelineEntry,
) (*Proposal, error) {
	state := ledger.AsOf(txs, orderDate)
	usableOnHand := ledger.UsableQty(lots, orderDate, sku.MinShelfLifeDays)
	if !ledger.ReconcilesWithLedger(lots, state.OnHand, reconcileTolerance) {
		usableOnHand = state.OnHand // conservative fallback per §4.3 IntegrityDiscrepancy
	}

	ip := ledger.InventoryPosition(usableOnHand, txs, orderDate, pw.P, state.UnfulfilledQty, pipelineExtra)

	alpha := policy.ResolveAlpha(sku, cfg.alpha)
	safetyAdj := policy.AdjustedSafetyStock(sku)

	fr := forecast.Dispatch(sku, cfg.forecast, obs, pw.R1, pw.P)
	baseline := forecast.FitBaseline(obs, pw.R1, cfg.forecast.MinSamplesDOW)
	baselineMap := baseline.Horizon(pw.R1, maxInt(pw.P, 1))

	rules, err := e.EventRules.ListForDate(ctx, pw.R1)
	if err != nil {
		return nil, err
	}
	rule := demand.ResolveEventRule(rules, sku.Code, sku.Category, sku.Department)

	promoWindows, err := e.Promo.ListOverlapping(ctx, sku.Code, pw.R1, calendar.NextReceiptDateAnyLane(e.Calendar, pw.R2))
	if err != nil {
		return nil, err
	}
	var promoStart, promoEnd *time.Time
	if len(promoWindows) > 0 {
		s, en := promoWindows[0].StartDate, promoWindows[0].EndDate
		promoStart, promoEnd = &s, &en
	}

	var quantiles map[string]float64
	if fr.MonteCarlo != nil {
		quantiles = map[string]float64{}
		for p, v := range fr.MonteCarlo.Percentiles {
			quantiles[fmt.Sprintf("%.2f", float64(p)/100)] = v
		}
	}

	isPerishable := sku.ShelfLifeDays > 0

	pipelineIn := demand.PipelineInput{
		Baseline:               baselineMap,
		EventRule:              rule,
		EventCfg:               cfg.eventCfg,
		IsPerishable:           isPerishable,
		BaselineQuantiles:      quantiles,
		PromoStart:             promoStart,
		PromoEnd:               promoEnd,
		PromoSrc:               demand.PoolSources{}, // cross-SKU pooling deferred, see DESIGN.md
		PromoCfg:               cfg.promoCfg,
		WasteRiskPercent:       sku.WasteRiskThreshold,
		WasteRealizationFactor: cfg.shelfLife.WasteRealizationFactor,
	}
	adjustedMap, pipelineExplain := demand.Run(pipelineIn)

	baselineSum, adjustedSum := sumMap(baselineMap), sumMap(adjustedMap)
	adjustRatio := 1.0
	if baselineSum > 0 {
		adjustRatio = adjustedSum / baselineSum
	}
	// adjustRatio already carries the waste-adjustment pipeline.Run applied
	// to adjustedMap (§4.6 step 5, a uniform per-date (1-waste_rate)
	// factor, which commutes with the horizon sum). Undo it here so the
	// event/promo/cannibalization ratio and the waste scaling apply to the
	// MC quantiles as two explicit, separately named steps instead of one
	// blended number.
	wasteRate := demand.ExpectedWasteRate(sku.WasteRiskThreshold, cfg.shelfLife.WasteRealizationFactor)
	eventPromoCannibRatio := adjustRatio
	if wasteRate < 1 {
		eventPromoCannibRatio = adjustRatio / (1 - wasteRate)
	}
	scaledQuantiles := map[string]float64{}
	for k, v := range quantiles {
		scaledQuantiles[k] = demand.ScaleStat(v*eventPromoCannibRatio, sku.WasteRiskThreshold, cfg.shelfLife.WasteRealizationFactor)
	}

	muP := adjustedSum
	sigmaP := baseline.ResidualStd() * math.Sqrt(float64(maxInt(pw.P, 1)))

	rpResult := policy.ComputeReorderPoint(policy.ReorderPointInput{
		Mode:                cfg.policyMode,
		ForecastMethod:      fr.Method,
		Alpha:               alpha,
		Quantiles:           scaledQuantiles,
		MuP:                 muP,
		SigmaP:              sigmaP,
		ForecastQty:         adjustedSum,
		AdjustedSafetyStock: safetyAdj,
	})

	qRaw := policy.RawOrder(rpResult.S, ip)

	expectedDailyDemand := 0.0
	if pw.P > 0 {
		expectedDailyDemand = adjustedSum / float64(pw.P)
	}
	constraintResult := policy.ApplyOrderConstraints(policy.ConstraintInput{
		QRaw:                    qRaw,
		PackSize:                sku.PackSize,
		MOQ:                     sku.MOQ,
		MaxStock:                sku.MaxStock,
		IP:                      ip,
		ShelfLifePenaltyEnabled: cfg.shelfLife.Enabled && sku.WastePenaltyMode != domain.WasteNone,
		ShelfLifeDays:           sku.ShelfLifeDays,
		MinShelfLifeDays:        sku.MinShelfLifeDays,
		WasteHorizonDays:        cfg.shelfLife.WasteHorizonDays,
		WasteRiskThreshold:      sku.WasteRiskThreshold,
		WastePenaltyMode:        sku.WastePenaltyMode,
		WastePenaltyFactor:      sku.WastePenaltyFactor,
		Lots:                    lots,
		ExpectedDailyDemand:     expectedDailyDemand,
		ReceiptDate:             pw.R1,
		AsOf:                    orderDate,
	})

	var mc *policy.MCExplain
	if fr.MonteCarlo != nil {
		mc = &policy.MCExplain{
			NSimulations:     fr.MonteCarlo.Trials,
			Seed:             sku.MCRandomSeed,
			Distribution:     sku.MCDistribution,
			HorizonDays:      pw.P,
			OutputPercentile: sku.MCOutputPercentile,
		}
	}

	explain := policy.OrderExplain{
		SKU:                sku.Code,
		OrderDate:          orderDate,
		ReceiptDate:        pw.R1,
		Lane:               lane,
		P:                  pw.P,
		AlphaTarget:        alpha,
		AlphaEffective:     alpha,
		Method:             rpResult.Method,
		QuantileUsed:       rpResult.QuantileUsed,
		S:                  rpResult.S,
		MuP:                muP,
		SigmaP:             sigmaP,
		IP:                 ip,
		BaselineMap:        baselineMap,
		AdjustedMap:        adjustedMap,
		EventExplain:       pipelineExplain.Event,
		PromoExplain:       pipelineExplain.Promo,
		MC:                 mc,
		ConstraintsApplied: constraintResult.ConstraintsApplied,
		FinalQty:           constraintResult.FinalQty,
		ReorderPointMethod: rpResult.Method,
	}

	return &Proposal{SKU: sku.Code, Lane: lane, Explain: explain}, nil
}

func sumMap(m map[time.Time]float64) float64 {
	s := 0.0
	for _, v := range m {
		s += v
	}
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// buildObservations turns sales history into forecast.Observation rows,
// marking censored days per §4.3's zero-stock-zero-sales / recent-
// unfulfilled rule.
func buildObservations(sales []*domain.SalesRecord, txs []*domain.Transaction, horizonEnd time.Time) []forecast.Observation {
	const lookbackDays = 7
	out := make([]forecast.Observation, 0, len(sales))
	for _, s := range sales {
		dayState := ledger.AsOf(txs, s.Date.AddDate(0, 0, 1))
		unfulfilled := ledger.UnfulfilledInWindow(txs, s.Date, lookbackDays)
		censored := ledger.IsDayCensored(dayState.OnHand, s.QtySold, unfulfilled)
		out = append(out, forecast.Observation{
			Date: s.Date, QtySold: s.QtySold, PromoFlag: s.PromoFlag, Censored: censored,
		})
	}
	return out
}
