package repo

import (
	"context"
	"testing"

	"github.com/pinggolf/replenish-engine/internal/settingsdoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_GetFallsBackToDefaultWhenUnset(t *testing.T) {
	r := NewSettings(newTestEngine(t))
	s, err := r.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settingsdoc.Default(), s)
}

func TestSettings_PutThenGetRoundTrips(t *testing.T) {
	r := NewSettings(newTestEngine(t))
	ctx := context.Background()

	s := settingsdoc.Default()
	s.ReorderEngine.MOQ = 12
	s.ServiceLevel.DefaultCSL = 0.95
	require.NoError(t, r.Put(ctx, s))

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, got.ReorderEngine.MOQ)
	assert.Equal(t, 0.95, got.ServiceLevel.DefaultCSL)
}

func TestSettings_ResetRestoresDefaults(t *testing.T) {
	r := NewSettings(newTestEngine(t))
	ctx := context.Background()

	s := settingsdoc.Default()
	s.ReorderEngine.MOQ = 99
	require.NoError(t, r.Put(ctx, s))

	require.NoError(t, r.Reset(ctx))
	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settingsdoc.Default(), got)
}
