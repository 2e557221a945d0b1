package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketTryConsume(t *testing.T) {
	b := NewTokenBucket(2, 0.001)
	assert.True(t, b.TryConsume(1))
	assert.True(t, b.TryConsume(1))
	assert.False(t, b.TryConsume(1))

	b.Return(5)
	assert.InDelta(t, 2, b.Available(), 0.01)
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	b := NewTokenBucket(1, 0.001)
	require.True(t, b.TryConsume(1))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Wait(ctx, 1), context.DeadlineExceeded)
}

func TestTokenBucketWaitRefills(t *testing.T) {
	b := NewTokenBucket(1, 100)
	require.True(t, b.TryConsume(1))
	assert.NoError(t, b.Wait(context.Background(), 1))
}

func TestLimiterPerKey(t *testing.T) {
	l := NewLimiter(map[string]int{"claude": 1, "gemini": 0})
	assert.True(t, l.Limited("claude"))
	assert.False(t, l.Limited("gemini"))

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "claude"))
	require.NoError(t, l.Wait(ctx, "gemini"))
	require.NoError(t, l.Wait(ctx, "ollama"))

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(short, "claude"), context.DeadlineExceeded)
	assert.Equal(t, int64(1), l.Waits("claude"))

	var nilLimiter *Limiter
	assert.NoError(t, nilLimiter.Wait(ctx, "claude"))
}
