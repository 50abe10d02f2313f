package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRateLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryRateLimiter()
	limiter.now = func() time.Time { return now }

	t.Run("FixedWindow", func(t *testing.T) {
		allowed, _ := limiter.CheckRateLimit(ctx, "ip", 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckRateLimit(ctx, "ip", 2, time.Second)
		assert.True(t, allowed)
		allowed, _ = limiter.CheckRateLimit(ctx, "ip", 2, time.Second)
		assert.False(t, allowed)

		now = now.Add(time.Second)
		allowed, _ = limiter.CheckRateLimit(ctx, "ip", 2, time.Second)
		assert.True(t, allowed)
	})

	t.Run("Sweep", func(t *testing.T) {
		limiter.CheckRateLimit(ctx, "stale", 5, time.Second)
		now = now.Add(2 * time.Second)
		assert.GreaterOrEqual(t, limiter.Sweep(), 1)

		allowed, _ := limiter.CheckRateLimit(ctx, "stale", 1, time.Second)
		assert.True(t, allowed)
	})
}

func TestMemoryRateLimiterConcurrent(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	ctx := context.Background()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.CheckRateLimit(ctx, "shared", 10, time.Minute); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(10), allowed.Load())
}
