// Package router picks the provider and model for each request and fails
// over across the configured chain on transient errors.
package router

import (
	"context"
	"time"

	"radsim/internal/config"
	"radsim/internal/logging"
	"radsim/internal/provider"
	"radsim/internal/ratelimit"
)

// Router sends requests along a chain of (provider, model) candidates.
type Router struct {
	cfg      config.RouterConfig
	registry *provider.Registry
	pricing  Pricing
	health   *Health
	limiter  *ratelimit.Limiter
}

// Option configures a Router.
type Option func(*Router)

// WithClock replaces the time source used by health tracking.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.health.now = now
	}
}

// WithLimiter replaces the rate limiter built from configuration.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(r *Router) {
		r.limiter = l
	}
}

// New returns a router over the adapters in registry.
func New(cfg config.RouterConfig, registry *provider.Registry, opts ...Option) *Router {
	threshold := cfg.Health.FailureThreshold
	if threshold <= 0 {
		threshold = config.DefaultFailureThreshold
	}
	reset := cfg.Health.ResetTimeout
	if reset <= 0 {
		reset = config.DefaultHealthReset
	}

	r := &Router{
		cfg:      cfg,
		registry: registry,
		pricing:  Pricing(cfg.Pricing),
		health:   NewHealth(threshold, reset),
		limiter:  ratelimit.NewLimiter(cfg.RateLimit),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Health returns the router's health tracker.
func (r *Router) Health() *Health {
	return r.health
}

// Route sends req to the first candidate that succeeds. A transient failure
// moves on to the next candidate, a fatal one is returned at once, and when
// every candidate fails transiently the result is an *ExhaustedError. A
// recovering pair whose single trial is already taken is skipped.
func (r *Router) Route(ctx context.Context, req *provider.Request, onDelta provider.DeltaFunc) (*provider.Response, error) {
	chain, gated := r.buildChain(req)
	if len(chain) == 0 {
		return nil, ErrNoCandidates
	}

	var attempts []Attempt
	for i, c := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if gated && !r.health.Allow(c) {
			logging.Debug("skipping candidate with trial in flight", "candidate", c.String())
			attempts = append(attempts, Attempt{Candidate: c, Err: ErrUnavailable})
			continue
		}
		if err := r.limiter.Wait(ctx, c.Provider); err != nil {
			r.health.Release(c)
			return nil, err
		}

		adapter, _ := r.registry.Get(c.Provider)
		start := time.Now()
		resp, err := adapter.Send(ctx, c.Model, req.Clone(), onDelta)
		if err == nil {
			r.health.Success(c)
			if i > 0 {
				logging.Info("request served by fallback", "candidate", c.String(), "position", i)
			}
			return resp, nil
		}

		if ctx.Err() != nil {
			r.health.Release(c)
			return nil, ctx.Err()
		}
		err = provider.Classify(ctx, c.Provider, c.Model, err)

		if !provider.IsTransient(err) {
			r.health.Release(c)
			logging.Error("provider failed with fatal error", "candidate", c.String(), "error", err.Error())
			return nil, err
		}

		r.health.Failure(c)
		attempts = append(attempts, Attempt{Candidate: c, Err: err, Duration: time.Since(start)})
		logging.Warn("provider failed, falling back",
			"candidate", c.String(),
			"position", i,
			"error", err.Error())
	}

	return nil, &ExhaustedError{Attempts: attempts}
}
