package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pinggolf/replenish-engine/internal/storage"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *storage.Engine {
	t.Helper()
	eng, err := storage.Open(context.Background(), storage.Options{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}
