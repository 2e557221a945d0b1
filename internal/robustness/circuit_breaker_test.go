package robustness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cb := NewCircuitBreaker(2, time.Minute).WithClock(clock.now)

	cb.RecordFailure()
	assert.True(t, cb.Allow())
	assert.Equal(t, StateClosed, cb.State())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerHalfOpenTrial(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cb := NewCircuitBreaker(1, time.Minute).WithClock(clock.now)

	cb.RecordFailure()
	assert.False(t, cb.Allow())

	clock.advance(time.Minute)
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.True(t, cb.Allow())
	// only one trial at a time
	assert.False(t, cb.Allow())
	assert.False(t, cb.Allow())

	// a failed trial reopens immediately
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())

	clock.advance(2 * time.Minute)
	assert.True(t, cb.Allow())
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Failures())
	assert.True(t, cb.Allow())
	assert.True(t, cb.Allow())
}

func TestCircuitBreakerReleaseAdmitsNextTrial(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cb := NewCircuitBreaker(1, time.Minute).WithClock(clock.now)

	cb.RecordFailure()
	clock.advance(time.Minute)
	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow())

	cb.Release()
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, 2, cb.Failures())

	cb.RecordSuccess()
	assert.Zero(t, cb.Failures())
	assert.Equal(t, "closed", cb.State().String())
}
