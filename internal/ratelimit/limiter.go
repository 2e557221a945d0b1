package ratelimit

import (
	"context"
	"sync"
)

// Limiter paces requests per key, typically a provider name. Keys without a
// configured rate are never limited.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*TokenBucket

	// Statistics
	waited map[string]int64
}

// NewLimiter creates a limiter from requests-per-minute per key. Zero or
// negative rates are ignored. The burst equals one tenth of the per-minute
// rate, at least one request.
func NewLimiter(perMinute map[string]int) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*TokenBucket),
		waited:  make(map[string]int64),
	}
	for key, rpm := range perMinute {
		if rpm <= 0 {
			continue
		}
		burst := float64(rpm) / 10
		if burst < 1 {
			burst = 1
		}
		l.buckets[key] = NewTokenBucket(burst, float64(rpm)/60.0)
	}
	return l
}

// Wait blocks until key may send one request or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if !ok {
		return nil
	}

	if b.TryConsume(1) {
		return nil
	}
	l.mu.Lock()
	l.waited[key]++
	l.mu.Unlock()
	return b.Wait(ctx, 1)
}

// Limited reports whether key has a configured rate.
func (l *Limiter) Limited(key string) bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.buckets[key]
	return ok
}

// Waits returns how many requests for key had to wait for a token.
func (l *Limiter) Waits(key string) int64 {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.waited[key]
}
