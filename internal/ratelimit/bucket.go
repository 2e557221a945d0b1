// Package ratelimit provides token buckets used to pace provider requests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket implements a token bucket rate limiter.
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket with the given parameters.
// maxTokens is the maximum number of tokens the bucket can hold.
// refillRate is the number of tokens added per second.
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill adds tokens based on elapsed time since last refill.
func (b *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now
}

// TryConsume takes n tokens if they are available.
func (b *TokenBucket) TryConsume(n float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if b.tokens >= n {
		b.tokens -= n
		return true
	}
	return false
}

// Wait blocks until n tokens are available or ctx is done.
func (b *TokenBucket) Wait(ctx context.Context, n float64) error {
	for {
		b.mu.Lock()
		b.refill()
		if b.tokens >= n {
			b.tokens -= n
			b.mu.Unlock()
			return nil
		}
		deficit := n - b.tokens
		wait := time.Duration(deficit / b.refillRate * float64(time.Second))
		b.mu.Unlock()

		if wait < 10*time.Millisecond {
			wait = 10 * time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available returns the current number of available tokens.
func (b *TokenBucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

// Return puts tokens back, e.g. when the request they paid for never ran.
func (b *TokenBucket) Return(n float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += n
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
}
