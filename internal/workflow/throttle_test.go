package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_DefaultsAppliedWhenZero(t *testing.T) {
	th := NewThrottle(0, 0)
	require.NoError(t, th.Wait(context.Background(), "any"))
	assert.Equal(t, 50.0, th.rps)
	assert.Equal(t, 10, th.burst)
}

func TestThrottle_SameScopeReusesOneLimiter(t *testing.T) {
	th := NewThrottle(100, 5)
	l1 := th.getLimiter("sku-pool")
	l2 := th.getLimiter("sku-pool")
	assert.Same(t, l1, l2)

	l3 := th.getLimiter("other-pool")
	assert.NotSame(t, l1, l3)
}

func TestThrottle_CancelledContextReturnsError(t *testing.T) {
	th := NewThrottle(0.001, 1) // exhaust the single burst token, then block
	ctx := context.Background()
	require.NoError(t, th.Wait(ctx, "slow"))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := th.Wait(cancelled, "slow")
	assert.Error(t, err)
}
