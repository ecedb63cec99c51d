package policy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/ledger"
)

// ceilToPack rounds qty up to the nearest multiple of packSize using exact
// decimal arithmetic so repeated pack-rounding across the pipeline never
// drifts from float64's binary rounding.
func ceilToPack(qty float64, packSize int) int {
	if packSize <= 0 {
		packSize = 1
	}
	q := decimal.NewFromFloat(qty)
	pack := decimal.NewFromInt(int64(packSize))
	multiples := q.Div(pack).Ceil()
	return int(multiples.Mul(pack).IntPart())
}

// floorToPack rounds qty down to the nearest multiple of packSize.
func floorToPack(qty float64, packSize int) int {
	if packSize <= 0 {
		packSize = 1
	}
	q := decimal.NewFromFloat(qty)
	pack := decimal.NewFromInt(int64(packSize))
	multiples := q.Div(pack).Floor()
	v := int(multiples.Mul(pack).IntPart())
	if v < 0 {
		return 0
	}
	return v
}

// ConstraintInput bundles the data `apply_order_constraints` needs (§4.7
// step 4).
type ConstraintInput struct {
	QRaw      float64
	PackSize  int
	MOQ       int
	MaxStock  int
	IP        int
	ShelfLifePenaltyEnabled bool
	ShelfLifeDays           int
	MinShelfLifeDays        int
	WasteHorizonDays        int
	WasteRiskThreshold      float64 // percent, 0..100
	WastePenaltyMode        domain.WastePenaltyMode
	WastePenaltyFactor      float64

	Lots               []*domain.Lot
	ExpectedDailyDemand float64 // used to simulate consumption over the waste horizon
	ReceiptDate        time.Time
	AsOf               time.Time
}

// ConstraintResult is Q_final plus the trace/metadata §4.7 requires.
type ConstraintResult struct {
	FinalQty                 int
	ConstraintsApplied       []string
	CappedByMaxStock         bool
	ShelfLifePenaltyApplied  bool
	ForwardWasteRiskPct      float64
	ExpectedWasteQty         float64
	UsableStock              int
	UnusableStock            int
}

// ApplyOrderConstraints runs the deterministic pack → MOQ → max-cap →
// shelf-life-penalty pipeline in order, recording each stage applied
// (§4.7).
func ApplyOrderConstraints(in ConstraintInput) ConstraintResult {
	var res ConstraintResult

	q1 := ceilToPack(in.QRaw, in.PackSize)
	res.ConstraintsApplied = append(res.ConstraintsApplied, "pack_size")

	q2 := q1
	if q1 < in.MOQ {
		q2 = 0
	}
	res.ConstraintsApplied = append(res.ConstraintsApplied, "moq")

	q3 := q2
	if in.MaxStock > 0 {
		headroom := in.MaxStock - in.IP
		if headroom < 0 {
			headroom = 0
		}
		if q2 > headroom {
			q3 = floorToPack(float64(headroom), in.PackSize)
			res.CappedByMaxStock = true
		}
	}
	res.ConstraintsApplied = append(res.ConstraintsApplied, "max_stock")

	q4 := q3
	if in.ShelfLifePenaltyEnabled && in.ShelfLifeDays > 0 {
		usable, unusable, riskPct := simulateShelfLifeRisk(in, q3)
		res.UsableStock = usable
		res.UnusableStock = unusable
		res.ForwardWasteRiskPct = riskPct
		res.ExpectedWasteQty = float64(unusable)

		if riskPct >= in.WasteRiskThreshold {
			switch in.WastePenaltyMode {
			case domain.WasteSoft:
				q4 = floorToPack(float64(q3)*(1-in.WastePenaltyFactor), in.PackSize)
				res.ShelfLifePenaltyApplied = true
			case domain.WasteHard:
				q4 = 0
				res.ShelfLifePenaltyApplied = true
			}
		}
		res.ConstraintsApplied = append(res.ConstraintsApplied, "shelf_life_penalty")
	}

	res.FinalQty = q4
	return res
}

// simulateShelfLifeRisk projects a hypothetical receipt of qty units
// (expiring ReceiptDate+ShelfLifeDays) onto the current lots, consumes
// ExpectedDailyDemand·WasteHorizonDays via FEFO, and reports the resulting
// usable/unusable split and waste-risk percentage (§4.7 step 4).
func simulateShelfLifeRisk(in ConstraintInput, qty int) (usable, unusable int, riskPct float64) {
	lots := make([]*domain.Lot, 0, len(in.Lots)+1)
	for _, l := range in.Lots {
		cp := *l
		lots = append(lots, &cp)
	}
	if qty > 0 {
		expiry := in.ReceiptDate.AddDate(0, 0, in.ShelfLifeDays)
		lots = append(lots, &domain.Lot{LotID: "hypothetical", QtyOnHand: qty, ExpiryDate: &expiry})
	}

	expectedDemand := int(in.ExpectedDailyDemand * float64(in.WasteHorizonDays))
	afterConsumption := ledger.ConsumeFEFO(lots, expectedDemand)

	total := ledger.TotalQty(afterConsumption)
	usable = ledger.UsableQty(afterConsumption, in.AsOf, in.MinShelfLifeDays)
	unusable = total - usable
	if total == 0 {
		return 0, 0, 0
	}
	return usable, unusable, 100 * float64(unusable) / float64(total)
}
