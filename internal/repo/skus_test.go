package repo

import (
	"context"
	"testing"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSKU(code string) *domain.SKU {
	return &domain.SKU{
		Code:               code,
		Description:        "widget",
		PackSize:           1,
		MOQ:                0,
		InAssortment:       true,
		WastePenaltyMode:   domain.WasteNone,
		DemandVariability:  domain.VariabilityStable,
		OOSPopupPreference: domain.OOSAsk,
	}
}

func TestSKUs_UpsertThenGetRoundTrips(t *testing.T) {
	r := NewSKUs(newTestEngine(t))
	ctx := context.Background()

	s := sampleSKU("S1")
	s.Description = "blue widget"
	require.NoError(t, r.Upsert(ctx, s))

	got, err := r.Get(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "blue widget", got.Description)
	assert.True(t, got.InAssortment)
}

func TestSKUs_UpsertOnConflictUpdatesFields(t *testing.T) {
	r := NewSKUs(newTestEngine(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, sampleSKU("S1")))

	updated := sampleSKU("S1")
	updated.Description = "renamed"
	updated.MOQ = 5
	require.NoError(t, r.Upsert(ctx, updated))

	got, err := r.Get(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Description)
	assert.Equal(t, 5, got.MOQ)
}

func TestSKUs_UpsertRejectsInvalidPackSize(t *testing.T) {
	r := NewSKUs(newTestEngine(t))
	s := sampleSKU("S1")
	s.PackSize = 0
	err := r.Upsert(context.Background(), s)
	assert.True(t, domain.IsKind(err, domain.KindBusinessRule))
}

func TestSKUs_GetUnknownReturnsNotFound(t *testing.T) {
	r := NewSKUs(newTestEngine(t))
	_, err := r.Get(context.Background(), "NOPE")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestSKUs_ListInAssortmentExcludesDelisted(t *testing.T) {
	r := NewSKUs(newTestEngine(t))
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, sampleSKU("IN")))
	out := sampleSKU("OUT")
	out.InAssortment = false
	require.NoError(t, r.Upsert(ctx, out))

	list, err := r.ListInAssortment(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "IN", list[0].Code)
}

func TestSKUs_ToggleAssortment(t *testing.T) {
	r := NewSKUs(newTestEngine(t))
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, sampleSKU("S1")))

	require.NoError(t, r.ToggleAssortment(ctx, "S1", false))
	got, err := r.Get(ctx, "S1")
	require.NoError(t, err)
	assert.False(t, got.InAssortment)
}

func TestSKUs_ToggleAssortmentUnknownReturnsNotFound(t *testing.T) {
	r := NewSKUs(newTestEngine(t))
	err := r.ToggleAssortment(context.Background(), "NOPE", true)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestSKUs_DeleteRemovesRow(t *testing.T) {
	r := NewSKUs(newTestEngine(t))
	ctx := context.Background()
	require.NoError(t, r.Upsert(ctx, sampleSKU("S1")))

	require.NoError(t, r.Delete(ctx, "S1"))
	_, err := r.Get(ctx, "S1")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestSKUs_DeleteUnknownReturnsNotFound(t *testing.T) {
	r := NewSKUs(newTestEngine(t))
	err := r.Delete(context.Background(), "NOPE")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
