package router

import (
	"sync"
	"time"

	"radsim/internal/robustness"
)

// Health tracks a circuit breaker per (provider, model) pair.
type Health struct {
	mu        sync.Mutex
	breakers  map[string]*robustness.CircuitBreaker
	threshold int
	reset     time.Duration
	now       func() time.Time
}

// NewHealth returns a tracker that opens a pair after threshold consecutive
// transient failures and retries it after reset.
func NewHealth(threshold int, reset time.Duration) *Health {
	return &Health{
		breakers:  make(map[string]*robustness.CircuitBreaker),
		threshold: threshold,
		reset:     reset,
		now:       time.Now,
	}
}

func (h *Health) breaker(c Candidate) *robustness.CircuitBreaker {
	h.mu.Lock()
	defer h.mu.Unlock()
	cb, ok := h.breakers[c.key()]
	if !ok {
		cb = robustness.NewCircuitBreaker(h.threshold, h.reset).WithClock(h.now)
		h.breakers[c.key()] = cb
	}
	return cb
}

// Available reports whether c should be offered in a chain. It does not
// claim the half-open trial; Allow does.
func (h *Health) Available(c Candidate) bool {
	return h.breaker(c).State() != robustness.StateOpen
}

// Allow reports whether a call to c may start now. A half-open pair admits
// one call until its outcome is recorded or released.
func (h *Health) Allow(c Candidate) bool {
	return h.breaker(c).Allow()
}

// Release ends a call to c that told nothing about the pair's health.
func (h *Health) Release(c Candidate) {
	h.breaker(c).Release()
}

// State returns the breaker state for c.
func (h *Health) State(c Candidate) robustness.State {
	return h.breaker(c).State()
}

// Failure records a transient failure for c.
func (h *Health) Failure(c Candidate) {
	h.breaker(c).RecordFailure()
}

// Success records a successful call to c.
func (h *Health) Success(c Candidate) {
	h.breaker(c).RecordSuccess()
}
