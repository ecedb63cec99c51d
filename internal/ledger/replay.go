// Package ledger implements the deterministic event replay and as-of stock
// calculator described in §4.3 (C3). It is a pure package: callers fetch
// transactions via internal/repo and pass them in, so every invariant here
// is unit-testable without a database.
package ledger

import (
	"sort"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

// State is the reconstructed stock position at a point in time.
type State struct {
	OnHand         int
	OnOrder        int
	UnfulfilledQty int
}

// sortForReplay orders transactions per §4.3 step 1-2: date ascending, then
// event priority ascending, then transaction_id ascending (so SNAPSHOT/
// ADJUST ties resolve "last write wins" by insertion order).
func sortForReplay(txs []*domain.Transaction) []*domain.Transaction {
	sorted := make([]*domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Event.Priority() != b.Event.Priority() {
			return a.Event.Priority() < b.Event.Priority()
		}
		return a.ID < b.ID
	})
	return sorted
}

// AsOf replays every transaction strictly before asOf and returns the
// resulting stock state. Replay ordering is the §4.3 deterministic order;
// effects follow §4.3 step 3 exactly, including UNFULFILLED never touching
// on_order or on_hand (§9 Open Question #1 — bound as designed).
func AsOf(txs []*domain.Transaction, asOf time.Time) State {
	var st State
	for _, t := range sortForReplay(txs) {
		if !t.Date.Before(asOf) {
			continue
		}
		switch t.Event {
		case domain.EventSnapshot:
			st.OnHand = t.Qty
			st.OnOrder = 0
		case domain.EventOrder:
			st.OnOrder += t.Qty
		case domain.EventReceipt:
			if st.OnOrder-t.Qty < 0 {
				st.OnOrder = 0
			} else {
				st.OnOrder -= t.Qty
			}
			st.OnHand += t.Qty
		case domain.EventSale:
			st.OnHand -= t.Qty
		case domain.EventWaste:
			st.OnHand -= t.Qty
		case domain.EventAdjust:
			st.OnHand = t.Qty
		case domain.EventUnfulfilled:
			st.UnfulfilledQty += t.Qty
		}
	}
	return st
}

// PipelineEntry is one outstanding ORDER not yet fully matched by a
// RECEIPT, keyed by its expected receipt_date.
type PipelineEntry struct {
	ReceiptDate time.Time
	Qty         int
}

// OnOrderByDate computes the outstanding-order pipeline: ORDER quantities
// not yet matched by RECEIPTs, FIFO-matched within each shared
// receipt_date, restricted to transactions dated before asOf (§4.3).
func OnOrderByDate(txs []*domain.Transaction, asOf time.Time) map[time.Time]int {
	type bucket struct {
		ordered  int
		received int
	}
	buckets := map[time.Time]*bucket{}

	for _, t := range sortForReplay(txs) {
		if !t.Date.Before(asOf) {
			continue
		}
		switch t.Event {
		case domain.EventOrder:
			if t.ReceiptDate == nil {
				continue
			}
			key := normalizeDate(*t.ReceiptDate)
			b, ok := buckets[key]
			if !ok {
				b = &bucket{}
				buckets[key] = b
			}
			b.ordered += t.Qty
		case domain.EventReceipt:
			if t.ReceiptDate == nil {
				continue
			}
			key := normalizeDate(*t.ReceiptDate)
			b, ok := buckets[key]
			if !ok {
				b = &bucket{}
				buckets[key] = b
			}
			b.received += t.Qty
		}
	}

	out := map[time.Time]int{}
	for date, b := range buckets {
		remaining := b.ordered - b.received
		if remaining > 0 {
			out[date] = remaining
		}
	}
	return out
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InventoryPosition computes IP = usable_on_hand + pipeline(receipt_date <=
// asOf+P) - unfulfilled, per the Glossary. pipelineExtra is merged in before
// slicing, supporting the Friday dual-lane SATURDAY->MONDAY visibility rule
// (§4.7 "Raw order").
func InventoryPosition(usableOnHand int, txs []*domain.Transaction, asOf time.Time, protectionDays int, unfulfilled int, pipelineExtra []PipelineEntry) int {
	pipeline := OnOrderByDate(txs, asOf)
	merged := map[time.Time]int{}
	for d, q := range pipeline {
		merged[d] += q
	}
	for _, e := range pipelineExtra {
		merged[normalizeDate(e.ReceiptDate)] += e.Qty
	}

	cutoff := normalizeDate(asOf.AddDate(0, 0, protectionDays))
	sum := 0
	for d, q := range merged {
		if !d.After(cutoff) {
			sum += q
		}
	}
	return usableOnHand + sum - unfulfilled
}
