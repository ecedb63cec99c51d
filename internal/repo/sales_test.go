package repo

import (
	"context"
	"testing"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSales_UpsertThenListForSKU(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, NewSKUs(eng).Upsert(ctx, &domain.SKU{
		Code: "S1", PackSize: 1, DemandVariability: domain.VariabilityStable, OOSPopupPreference: domain.OOSAsk,
	}))

	r := NewSales(eng)
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Upsert(ctx, nil, &domain.SalesRecord{Date: d1, SKU: "S1", QtySold: 10}))
	require.NoError(t, r.Upsert(ctx, nil, &domain.SalesRecord{Date: d2, SKU: "S1", QtySold: 12, PromoFlag: true}))

	records, err := r.ListForSKU(ctx, "S1", time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 10, records[0].QtySold)
	assert.True(t, records[1].PromoFlag)
}

func TestSales_UpsertOverwritesSameDayRecord(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, NewSKUs(eng).Upsert(ctx, &domain.SKU{
		Code: "S1", PackSize: 1, DemandVariability: domain.VariabilityStable, OOSPopupPreference: domain.OOSAsk,
	}))

	r := NewSales(eng)
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Upsert(ctx, nil, &domain.SalesRecord{Date: d, SKU: "S1", QtySold: 5}))
	require.NoError(t, r.Upsert(ctx, nil, &domain.SalesRecord{Date: d, SKU: "S1", QtySold: 9}))

	records, err := r.ListForSKU(ctx, "S1", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 9, records[0].QtySold)
}
