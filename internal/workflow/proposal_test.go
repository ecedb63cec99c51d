package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/pinggolf/replenish-engine/internal/calendar"
	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposeOrder_SingleLaneOnNonFriday(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	sku := seedSKU(t, e, "S1")

	// A month of steady sales history so the baseline forecast has
	// non-zero demand and the proposal exercises the full chain instead
	// of degrading to the zero-demand edge case.
	start := date("2026-01-05")
	for i := 0; i < 30; i++ {
		d := start.AddDate(0, 0, i)
		require.NoError(t, e.Sales.Upsert(ctx, nil, &domain.SalesRecord{Date: d, SKU: sku.Code, QtySold: 10}))
	}
	_, err := e.Ledger.Append(ctx, &domain.Transaction{Date: start, SKU: sku.Code, Event: domain.EventSnapshot, Qty: 50})
	require.NoError(t, err)

	orderDate := date("2026-03-03") // Tuesday: single standard lane, no Friday split
	proposals, err := e.ProposeOrder(ctx, sku.Code, orderDate)
	require.NoError(t, err)
	require.Len(t, proposals, 1)

	p := proposals[0]
	assert.Equal(t, sku.Code, p.SKU)
	assert.True(t, p.Explain.MuP > 0, "30 days of steady sales should produce positive expected demand")
	assert.GreaterOrEqual(t, p.Explain.FinalQty, 0)
	assert.Equal(t, orderDate, p.Explain.OrderDate)
}

func TestProposeOrder_FridaySplitsIntoSaturdayAndMondayLanes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	sku := seedSKU(t, e, "S1")

	start := date("2026-01-05")
	for i := 0; i < 30; i++ {
		d := start.AddDate(0, 0, i)
		require.NoError(t, e.Sales.Upsert(ctx, nil, &domain.SalesRecord{Date: d, SKU: sku.Code, QtySold: 8}))
	}

	fridayDate := date("2026-03-06")
	require.Equal(t, time.Friday, fridayDate.Weekday())

	proposals, err := e.ProposeOrder(ctx, sku.Code, fridayDate)
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	lanes := map[calendar.Lane]bool{}
	for _, p := range proposals {
		lanes[p.Lane] = true
	}
	assert.True(t, lanes[calendar.LaneSaturday], "expected a Saturday lane proposal")
	assert.True(t, lanes[calendar.LaneMonday], "expected a Monday lane proposal")
}

func TestProposeOrder_UnknownSKUReturnsNotFound(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ProposeOrder(context.Background(), "NOPE", date("2026-03-03"))
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
