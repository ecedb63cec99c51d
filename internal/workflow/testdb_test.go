package workflow

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pinggolf/replenish-engine/internal/calendar"
	"github.com/pinggolf/replenish-engine/internal/domain"
	"github.com/pinggolf/replenish-engine/internal/storage"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := storage.Open(context.Background(), storage.Options{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	return New(eng, calendar.DefaultConfig(), NewThrottle(0, 0))
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedSKU(t *testing.T, e *Engine, code string) *domain.SKU {
	t.Helper()
	sku := &domain.SKU{
		Code: code, Description: "test widget", PackSize: 1, MOQ: 0,
		LeadTimeDays: 2, ReviewPeriodDays: 7, MaxStock: 1000,
		DemandVariability: domain.VariabilityStable, OOSPopupPreference: domain.OOSAsk,
		ForecastMethod: domain.ForecastSimple,
	}
	require.NoError(t, sku.Validate())
	require.NoError(t, e.SKUs.Upsert(context.Background(), sku))
	return sku
}
