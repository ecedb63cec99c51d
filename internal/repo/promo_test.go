package repo

import (
	"context"
	"testing"
	"time"

	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromo_ListOverlappingFindsIntersectingWindow(t *testing.T) {
	eng := newTestEngine(t)
	skus := NewSKUs(eng)
	promo := NewPromo(eng)
	ctx := context.Background()
	seedRepoSKU(t, skus, "S1")

	require.NoError(t, promo.Insert(ctx, &domain.PromoWindow{
		SKU:       "S1",
		StartDate: date("2026-03-01"),
		EndDate:   date("2026-03-10"),
	}))

	out, err := promo.ListOverlapping(ctx, "S1", date("2026-03-05"), date("2026-03-20"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "S1", out[0].SKU)
}

func TestPromo_ListOverlappingExcludesDisjointWindow(t *testing.T) {
	eng := newTestEngine(t)
	skus := NewSKUs(eng)
	promo := NewPromo(eng)
	ctx := context.Background()
	seedRepoSKU(t, skus, "S1")

	require.NoError(t, promo.Insert(ctx, &domain.PromoWindow{
		SKU:       "S1",
		StartDate: date("2026-01-01"),
		EndDate:   date("2026-01-10"),
	}))

	out, err := promo.ListOverlapping(ctx, "S1", date("2026-03-01"), date("2026-03-31"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPromo_InsertUnknownSKUReturnsForeignKey(t *testing.T) {
	eng := newTestEngine(t)
	promo := NewPromo(eng)
	err := promo.Insert(context.Background(), &domain.PromoWindow{
		SKU: "NOPE", StartDate: date("2026-03-01"), EndDate: date("2026-03-10"),
	})
	assert.True(t, domain.IsKind(err, domain.KindForeignKey))
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
