package workflow

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Throttle paces per-SKU iterations of a batch workflow (ReconcileEOD waits
// on it once per SKU) so a large assortment doesn't starve
// the store of connections in one burst. Grounded on the teacher's
// RateLimiterService (internal/services/throttle.go): one named limiter per
// scope, double-checked locking on creation.
type Throttle struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewThrottle creates a throttle whose every scope shares the same
// requests-per-second/burst configuration.
func NewThrottle(requestsPerSecond float64, burst int) *Throttle {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 50
	}
	if burst <= 0 {
		burst = 10
	}
	return &Throttle{limiters: make(map[string]*rate.Limiter), rps: requestsPerSecond, burst: burst}
}

func (t *Throttle) getLimiter(scope string) *rate.Limiter {
	t.mu.RLock()
	l, ok := t.limiters[scope]
	t.mu.RUnlock()
	if ok {
		return l
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.limiters[scope]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Limit(t.rps), t.burst)
	t.limiters[scope] = l
	return l
}

// Wait blocks until scope's limiter admits one more unit of work, or ctx is
// cancelled. Call once per SKU/iteration at the top of a batch loop.
func (t *Throttle) Wait(ctx context.Context, scope string) error {
	return t.getLimiter(scope).Wait(ctx)
}
