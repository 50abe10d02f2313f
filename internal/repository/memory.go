package repository

import (
	"context"
	"sync"
	"time"
)

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

// MemoryRateLimiter is the single-process fixed-window limiter used when Redis is unavailable.
type MemoryRateLimiter struct {
	windows sync.Map // key -> *rateLimitEntry
	now     func() time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{now: time.Now}
}

func (r *MemoryRateLimiter) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	val, _ := r.windows.LoadOrStore(key, &rateLimitEntry{expiresAt: now.Add(window)})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if !now.Before(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}

// Sweep drops windows that expired before now. Returns how many were removed.
func (r *MemoryRateLimiter) Sweep() int {
	now := r.now()
	removed := 0
	r.windows.Range(func(k, v any) bool {
		entry := v.(*rateLimitEntry)
		entry.mu.Lock()
		expired := !now.Before(entry.expiresAt)
		entry.mu.Unlock()
		if expired {
			r.windows.Delete(k)
			removed++
		}
		return true
	})
	return removed
}
