package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// scenario 1 from §8: ADJUST is an absolute set, not a delta.
func TestAsOf_AdjustIsAbsoluteSet(t *testing.T) {
	txs := []*domain.Transaction{
		{ID: 1, Date: date("2026-01-01"), SKU: "S1", Event: domain.EventSnapshot, Qty: 100},
		{ID: 2, Date: date("2026-02-06"), SKU: "S1", Event: domain.EventAdjust, Qty: 50},
	}
	st := AsOf(txs, date("2026-02-07"))
	assert.Equal(t, 50, st.OnHand)
}

func TestAsOf_OnlyBeforeCutoff(t *testing.T) {
	txs := []*domain.Transaction{
		{ID: 1, Date: date("2026-01-01"), SKU: "S1", Event: domain.EventSnapshot, Qty: 100},
		{ID: 2, Date: date("2026-01-10"), SKU: "S1", Event: domain.EventSale, Qty: 10},
	}
	before := AsOf(txs, date("2026-01-10"))
	require.Equal(t, 100, before.OnHand)

	after := AsOf(txs, date("2026-01-11"))
	require.Equal(t, 90, after.OnHand)

	// adding a later event must not change the earlier as-of result
	txs = append(txs, &domain.Transaction{ID: 3, Date: date("2026-01-20"), SKU: "S1", Event: domain.EventSale, Qty: 999})
	before2 := AsOf(txs, date("2026-01-10"))
	assert.Equal(t, before.OnHand, before2.OnHand)
}

func TestAsOf_ReceiptReducesOnOrderFloorsAtZero(t *testing.T) {
	txs := []*domain.Transaction{
		{ID: 1, Date: date("2026-01-01"), SKU: "S1", Event: domain.EventOrder, Qty: 10},
		{ID: 2, Date: date("2026-01-05"), SKU: "S1", Event: domain.EventReceipt, Qty: 15},
	}
	st := AsOf(txs, date("2026-01-06"))
	assert.Equal(t, 0, st.OnOrder)
	assert.Equal(t, 15, st.OnHand)
}

func TestAsOf_UnfulfilledDoesNotTouchOnOrderOrOnHand(t *testing.T) {
	txs := []*domain.Transaction{
		{ID: 1, Date: date("2026-01-01"), SKU: "S1", Event: domain.EventOrder, Qty: 10},
		{ID: 2, Date: date("2026-01-02"), SKU: "S1", Event: domain.EventUnfulfilled, Qty: 3},
	}
	st := AsOf(txs, date("2026-01-03"))
	assert.Equal(t, 10, st.OnOrder)
	assert.Equal(t, 0, st.OnHand)
	assert.Equal(t, 3, st.UnfulfilledQty)
}

func TestAsOf_SameDatePrioritySaleOrderInsensitive(t *testing.T) {
	a := []*domain.Transaction{
		{ID: 1, Date: date("2026-01-01"), SKU: "S1", Event: domain.EventSnapshot, Qty: 100},
		{ID: 2, Date: date("2026-01-02"), SKU: "S1", Event: domain.EventSale, Qty: 10},
		{ID: 3, Date: date("2026-01-02"), SKU: "S1", Event: domain.EventWaste, Qty: 5},
	}
	b := []*domain.Transaction{
		{ID: 1, Date: date("2026-01-01"), SKU: "S1", Event: domain.EventSnapshot, Qty: 100},
		{ID: 3, Date: date("2026-01-02"), SKU: "S1", Event: domain.EventWaste, Qty: 5},
		{ID: 2, Date: date("2026-01-02"), SKU: "S1", Event: domain.EventSale, Qty: 10},
	}
	stA := AsOf(a, date("2026-01-03"))
	stB := AsOf(b, date("2026-01-03"))
	assert.Equal(t, stA.OnHand, stB.OnHand)
}

func TestAsOf_SameDateAdjustOrderSensitiveLastWins(t *testing.T) {
	txs := []*domain.Transaction{
		{ID: 1, Date: date("2026-01-01"), SKU: "S1", Event: domain.EventSnapshot, Qty: 100},
		{ID: 2, Date: date("2026-01-02"), SKU: "S1", Event: domain.EventAdjust, Qty: 10},
		{ID: 3, Date: date("2026-01-02"), SKU: "S1", Event: domain.EventAdjust, Qty: 20},
	}
	st := AsOf(txs, date("2026-01-03"))
	assert.Equal(t, 20, st.OnHand)
}

func TestOnOrderByDate_FIFOMatchesReceiptsToOrders(t *testing.T) {
	txs := []*domain.Transaction{
		{ID: 1, Date: date("2026-01-01"), SKU: "S1", Event: domain.EventOrder, Qty: 100, ReceiptDate: ptr(date("2026-01-10"))},
		{ID: 2, Date: date("2026-01-11"), SKU: "S1", Event: domain.EventReceipt, Qty: 70, ReceiptDate: ptr(date("2026-01-10"))},
	}
	pipeline := OnOrderByDate(txs, date("2026-01-12"))
	assert.Equal(t, 30, pipeline[normalizeDate(date("2026-01-10"))])
}

func ptr(t time.Time) *time.Time { return &t }
