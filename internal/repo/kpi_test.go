package repo

import (
	"context"
	"testing"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKPIDaily_UpsertThenListRange(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, NewSKUs(eng).Upsert(ctx, &domain.SKU{
		Code: "S1", PackSize: 1, DemandVariability: domain.VariabilityStable, OOSPopupPreference: domain.OOSAsk,
	}))

	r := NewKPIDaily(eng)
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Upsert(ctx, "S1", d1, "csl", `{"fill_rate":0.95}`))
	require.NoError(t, r.Upsert(ctx, "S1", d2, "csl", `{"fill_rate":0.97}`))

	rows, err := r.ListRange(ctx, "S1", d1, d2, "csl")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `{"fill_rate":0.95}`, rows[0].PayloadJSON)
}

func TestKPIDaily_UpsertReplacesPayload(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, NewSKUs(eng).Upsert(ctx, &domain.SKU{
		Code: "S1", PackSize: 1, DemandVariability: domain.VariabilityStable, OOSPopupPreference: domain.OOSAsk,
	}))

	r := NewKPIDaily(eng)
	d := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Upsert(ctx, "S1", d, "csl", `{"v":1}`))
	require.NoError(t, r.Upsert(ctx, "S1", d, "csl", `{"v":2}`))

	rows, err := r.ListRange(ctx, "S1", d, d, "csl")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `{"v":2}`, rows[0].PayloadJSON)
}
