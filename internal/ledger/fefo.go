package ledger

import (
	"sort"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

// SortFEFO orders lots ascending by expiry_date, with no-expiry lots last
// (§3 Lot: "ascending expiry_date (nulls last)").
func SortFEFO(lots []*domain.Lot) []*domain.Lot {
	sorted := make([]*domain.Lot, len(lots))
	copy(sorted, lots)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].ExpiryDate, sorted[j].ExpiryDate
		if a == nil && b == nil {
			return false
		}
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
	return sorted
}

// ConsumeFEFO subtracts qty from lots in FEFO order (mutates a copy,
// returns it), used for SALE/WASTE ledger effects and for the constraint
// pipeline's hypothetical-receipt simulation.
func ConsumeFEFO(lots []*domain.Lot, qty int) []*domain.Lot {
	sorted := SortFEFO(lots)
	out := make([]*domain.Lot, len(sorted))
	remaining := qty
	for i, l := range sorted {
		cp := *l
		if remaining > 0 {
			take := remaining
			if take > cp.QtyOnHand {
				take = cp.QtyOnHand
			}
			cp.QtyOnHand -= take
			remaining -= take
		}
		out[i] = &cp
	}
	return out
}

// UsableQty sums lots whose days-left >= minShelfLifeDays, as of `asOf`
// (§4.3: "usable_qty excludes lots with days-left < sku.min_shelf_life_days").
func UsableQty(lots []*domain.Lot, asOf time.Time, minShelfLifeDays int) int {
	total := 0
	for _, l := range lots {
		if l.ExpiryDate == nil {
			total += l.QtyOnHand
			continue
		}
		daysLeft := int(l.ExpiryDate.Sub(asOf).Hours() / 24)
		if daysLeft >= minShelfLifeDays {
			total += l.QtyOnHand
		}
	}
	return total
}

// ExpiringSoon sums lots with 0 <= days-left <= wasteHorizonDays.
func ExpiringSoon(lots []*domain.Lot, asOf time.Time, wasteHorizonDays int) int {
	total := 0
	for _, l := range lots {
		if l.ExpiryDate == nil {
			continue
		}
		daysLeft := int(l.ExpiryDate.Sub(asOf).Hours() / 24)
		if daysLeft >= 0 && daysLeft <= wasteHorizonDays {
			total += l.QtyOnHand
		}
	}
	return total
}

// TotalQty sums qty_on_hand across all lots.
func TotalQty(lots []*domain.Lot) int {
	total := 0
	for _, l := range lots {
		total += l.QtyOnHand
	}
	return total
}

// ReconcilesWithLedger reports whether the lots' total agrees with the
// ledger's on_hand within tolerance. When it does not, §4.3 requires
// waste-risk to be treated conservatively (100%) by the caller.
func ReconcilesWithLedger(lots []*domain.Lot, ledgerOnHand int, tolerance int) bool {
	diff := TotalQty(lots) - ledgerOnHand
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// IsDayCensored implements §4.3's censored-day detector: true if the day
// had zero on-hand and zero sales, or any UNFULFILLED fell within the
// lookback window ending at d.
func IsDayCensored(onHandAtDay, qtySoldAtDay int, unfulfilledInLookback bool) bool {
	if onHandAtDay == 0 && qtySoldAtDay == 0 {
		return true
	}
	return unfulfilledInLookback
}

// UnfulfilledInWindow reports whether any UNFULFILLED transaction for the
// SKU falls within [d-lookbackDays, d].
func UnfulfilledInWindow(txs []*domain.Transaction, d time.Time, lookbackDays int) bool {
	start := d.AddDate(0, 0, -lookbackDays)
	for _, t := range txs {
		if t.Event != domain.EventUnfulfilled {
			continue
		}
		if !t.Date.Before(start) && !t.Date.After(d) {
			return true
		}
	}
	return false
}
