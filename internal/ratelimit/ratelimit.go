// Package ratelimit implements per-key token buckets. Login throttling
// keys on client IP, so each key lazily gets its own rate.Limiter.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter hands out one token bucket per key. All buckets
// share the same rate and burst.
type KeyedRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a limiter allowing rps sustained requests per second per
// key, with bursts up to burst.
func New(rps float64, burst int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether the key may proceed right now; it never blocks.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	krl.mu.RLock()
	limiter, exists := krl.limiters[key]
	krl.mu.RUnlock()
	if exists {
		return limiter
	}

	krl.mu.Lock()
	defer krl.mu.Unlock()
	if limiter, exists = krl.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(krl.limit, krl.burst)
	krl.limiters[key] = limiter
	return limiter
}

// Len reports the number of tracked keys. The map is never pruned:
// keys are client IPs and the set stays small between restarts.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.RLock()
	defer krl.mu.RUnlock()
	return len(krl.limiters)
}
