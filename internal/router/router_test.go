package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radsim/internal/chat"
	"radsim/internal/config"
	"radsim/internal/provider"
	"radsim/internal/provider/providertest"
)

func ref(p, m string) config.ModelRef {
	return config.ModelRef{Provider: p, Model: m}
}

func newRequest() *provider.Request {
	return &provider.Request{
		System: "You are a test.",
		Turns:  []chat.Turn{chat.NewUserTurn("list the go files")},
	}
}

func newRouter(t *testing.T, cfg config.RouterConfig, adapters ...provider.Adapter) *Router {
	t.Helper()
	reg, err := provider.NewRegistry(adapters...)
	require.NoError(t, err)
	if cfg.Pricing == nil {
		cfg.Pricing = config.DefaultPricing()
	}
	return New(cfg, reg)
}

func models(chain []Candidate) []string {
	out := make([]string, 0, len(chain))
	for _, c := range chain {
		out = append(out, c.String())
	}
	return out
}

func TestBuildChainCostOrdering(t *testing.T) {
	cfg := config.RouterConfig{
		Primary: ref("claude", "claude-sonnet-4-5"),
		Fallbacks: []config.ModelRef{
			ref("claude", "claude-opus-4-6"),
			ref("ollama", "mystery-model"),
			ref("claude", "claude-haiku-4-5"),
			ref("gemini", "gemini-3-flash"),
		},
		Strategy: config.StrategyCost,
	}
	r := newRouter(t, cfg,
		providertest.New("claude"), providertest.New("gemini"), providertest.New("ollama"))

	chain := r.BuildChain(newRequest())
	assert.Equal(t, []string{
		"claude/claude-sonnet-4-5",
		"gemini/gemini-3-flash",
		"claude/claude-haiku-4-5",
		"claude/claude-opus-4-6",
		"ollama/mystery-model",
	}, models(chain))
	assert.True(t, chain[1].PriceKnown)
	assert.False(t, chain[4].PriceKnown)
	assert.Less(t, chain[1].EstimatedCost, chain[2].EstimatedCost)
}

func TestBuildChainOrderedAndDeduped(t *testing.T) {
	cfg := config.RouterConfig{
		Primary: ref("claude", "claude-sonnet-4-5"),
		Fallbacks: []config.ModelRef{
			ref("claude", "claude-opus-4-6"),
			ref("claude", "claude-sonnet-4-5"),
			ref("openai", "gpt-5"),
			ref("claude", "claude-opus-4-6"),
			ref("claude", "claude-haiku-4-5"),
		},
		Strategy: config.StrategyOrdered,
	}
	r := newRouter(t, cfg, providertest.New("claude"))

	assert.Equal(t, []string{
		"claude/claude-sonnet-4-5",
		"claude/claude-opus-4-6",
		"claude/claude-haiku-4-5",
	}, models(r.BuildChain(newRequest())))
}

func TestRouteExhaustsChainOncePerPair(t *testing.T) {
	claude := providertest.New("claude",
		providertest.Fail(providertest.Transient("claude", "a")),
		providertest.Fail(providertest.Transient("claude", "b")),
	)
	gemini := providertest.New("gemini",
		providertest.Fail(providertest.Transient("gemini", "c")),
	)
	cfg := config.RouterConfig{
		Primary:   ref("claude", "a"),
		Fallbacks: []config.ModelRef{ref("claude", "b"), ref("gemini", "c"), ref("claude", "a")},
		Strategy:  config.StrategyOrdered,
	}
	r := newRouter(t, cfg, claude, gemini)

	_, err := r.Route(context.Background(), newRequest(), nil)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 3)
	assert.Equal(t, "claude/a", exhausted.Attempts[0].Candidate.String())
	assert.Equal(t, "gemini/c", exhausted.Attempts[2].Candidate.String())
	assert.True(t, provider.IsTransient(err))

	assert.Equal(t, 2, claude.CallCount())
	assert.Equal(t, 1, gemini.CallCount())
	assert.Equal(t, "a", claude.Calls()[0].Model)
	assert.Equal(t, "b", claude.Calls()[1].Model)
}

func TestRouteFatalStopsChain(t *testing.T) {
	claude := providertest.New("claude",
		providertest.Fail(providertest.Transient("claude", "a")),
		providertest.Fail(providertest.Fatal("claude", "b")),
	)
	gemini := providertest.New("gemini", providertest.Text("unused"))
	cfg := config.RouterConfig{
		Primary:   ref("claude", "a"),
		Fallbacks: []config.ModelRef{ref("claude", "b"), ref("gemini", "c")},
		Strategy:  config.StrategyOrdered,
	}
	r := newRouter(t, cfg, claude, gemini)

	_, err := r.Route(context.Background(), newRequest(), nil)
	require.Error(t, err)
	assert.True(t, provider.IsFatal(err))
	assert.Equal(t, 2, claude.CallCount())
	assert.Zero(t, gemini.CallCount())
}

func TestRouteFallsBackAndSucceeds(t *testing.T) {
	claude := providertest.New("claude", providertest.Fail(providertest.Transient("claude", "a")))
	gemini := providertest.New("gemini", providertest.Text("hello"))
	cfg := config.RouterConfig{
		Primary:   ref("claude", "a"),
		Fallbacks: []config.ModelRef{ref("gemini", "c")},
	}
	r := newRouter(t, cfg, claude, gemini)

	req := newRequest()
	var streamed string
	resp, err := r.Route(context.Background(), req, func(s string) { streamed += s })
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Equal(t, "hello", streamed)

	// every candidate saw the same conversation
	first := claude.Calls()[0].Request
	second := gemini.Calls()[0].Request
	assert.Equal(t, first.Turns, second.Turns)
	assert.Equal(t, req.Turns, first.Turns)
}

func TestRouteSendsClonedRequest(t *testing.T) {
	mutating := &mutatingAdapter{}
	gemini := providertest.New("gemini", providertest.Text("ok"))
	cfg := config.RouterConfig{
		Primary:   ref("claude", "a"),
		Fallbacks: []config.ModelRef{ref("gemini", "c")},
	}
	r := newRouter(t, cfg, mutating, gemini)

	req := newRequest()
	_, err := r.Route(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, "list the go files", req.Turns[0].Text)
	assert.Equal(t, "list the go files", gemini.Calls()[0].Request.Turns[0].Text)
}

type mutatingAdapter struct{}

func (mutatingAdapter) Name() string { return "claude" }
func (mutatingAdapter) Send(_ context.Context, model string, req *provider.Request, _ provider.DeltaFunc) (*provider.Response, error) {
	req.Turns[0].Text = "tampered"
	req.Turns = append(req.Turns, chat.NewUserTurn("extra"))
	return nil, provider.StatusError("claude", model, 503, "unavailable")
}

func TestRouteUnclassifiedErrorIsFatal(t *testing.T) {
	claude := providertest.New("claude", providertest.Fail(errors.New("invalid request shape")))
	gemini := providertest.New("gemini", providertest.Text("unused"))
	cfg := config.RouterConfig{
		Primary:   ref("claude", "a"),
		Fallbacks: []config.ModelRef{ref("gemini", "c")},
	}
	r := newRouter(t, cfg, claude, gemini)

	_, err := r.Route(context.Background(), newRequest(), nil)
	assert.True(t, provider.IsFatal(err))
	assert.Zero(t, gemini.CallCount())
}

func TestRouteCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	claude := providertest.New("claude", providertest.Step{
		Err:  providertest.Transient("claude", "a"),
		Hook: func(context.Context) { cancel() },
	})
	gemini := providertest.New("gemini", providertest.Text("unused"))
	cfg := config.RouterConfig{
		Primary:   ref("claude", "a"),
		Fallbacks: []config.ModelRef{ref("gemini", "c")},
	}
	r := newRouter(t, cfg, claude, gemini)

	_, err := r.Route(ctx, newRequest(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gemini.CallCount())
}

func TestHealthSkipsOpenPairsUntilReset(t *testing.T) {
	now := time.Unix(5000, 0)
	clock := func() time.Time { return now }

	claude := providertest.New("claude",
		providertest.Fail(providertest.Transient("claude", "a")),
		providertest.Text("recovered"),
	)
	gemini := providertest.New("gemini", providertest.Text("one"), providertest.Text("two"))
	cfg := config.RouterConfig{
		Primary:   ref("claude", "a"),
		Fallbacks: []config.ModelRef{ref("gemini", "c")},
		Health:    config.HealthConfig{FailureThreshold: 1, ResetTimeout: 5 * time.Minute},
	}
	reg, err := provider.NewRegistry(claude, gemini)
	require.NoError(t, err)
	r := New(cfg, reg, WithClock(clock))

	resp, err := r.Route(context.Background(), newRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "one", resp.Text)

	// claude/a is open: the next request goes straight to gemini
	assert.Equal(t, []string{"gemini/c"}, models(r.BuildChain(newRequest())))
	resp, err = r.Route(context.Background(), newRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "two", resp.Text)
	assert.Equal(t, 1, claude.CallCount())

	now = now.Add(5 * time.Minute)
	resp, err = r.Route(context.Background(), newRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Text)
}

func TestHalfOpenPairAdmitsSingleTrial(t *testing.T) {
	now := time.Unix(5000, 0)
	clock := func() time.Time { return now }

	started := make(chan struct{})
	release := make(chan struct{})
	claude := providertest.New("claude",
		providertest.Fail(providertest.Transient("claude", "a")),
		providertest.Step{Text: "recovered", Hook: func(context.Context) {
			close(started)
			<-release
		}},
	)
	gemini := providertest.New("gemini", providertest.Text("one"), providertest.Text("two"))
	cfg := config.RouterConfig{
		Primary:   ref("claude", "a"),
		Fallbacks: []config.ModelRef{ref("gemini", "c")},
		Health:    config.HealthConfig{FailureThreshold: 1, ResetTimeout: time.Minute},
	}
	reg, err := provider.NewRegistry(claude, gemini)
	require.NoError(t, err)
	r := New(cfg, reg, WithClock(clock))

	_, err = r.Route(context.Background(), newRequest(), nil)
	require.NoError(t, err)
	now = now.Add(time.Minute)

	trial := make(chan *provider.Response, 1)
	go func() {
		resp, _ := r.Route(context.Background(), newRequest(), nil)
		trial <- resp
	}()
	<-started

	// the trial is in flight, so a second request skips claude/a
	resp, err := r.Route(context.Background(), newRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "two", resp.Text)
	assert.Equal(t, 2, claude.CallCount())

	close(release)
	resp = <-trial
	require.NotNil(t, resp)
	assert.Equal(t, "recovered", resp.Text)
	assert.Equal(t, "closed", r.Health().State(Candidate{Provider: "claude", Model: "a"}).String())
}

func TestFatalTrialReleasesPair(t *testing.T) {
	now := time.Unix(5000, 0)
	clock := func() time.Time { return now }

	claude := providertest.New("claude",
		providertest.Fail(providertest.Transient("claude", "a")),
		providertest.Fail(providertest.Fatal("claude", "a")),
		providertest.Text("back"),
	)
	cfg := config.RouterConfig{
		Primary:   ref("claude", "a"),
		Fallbacks: []config.ModelRef{ref("gemini", "c")},
		Health:    config.HealthConfig{FailureThreshold: 1, ResetTimeout: time.Minute},
	}
	reg, err := provider.NewRegistry(claude, providertest.New("gemini", providertest.Text("one")))
	require.NoError(t, err)
	r := New(cfg, reg, WithClock(clock))

	_, err = r.Route(context.Background(), newRequest(), nil)
	require.NoError(t, err)
	now = now.Add(time.Minute)

	_, err = r.Route(context.Background(), newRequest(), nil)
	assert.True(t, provider.IsFatal(err))

	resp, err := r.Route(context.Background(), newRequest(), nil)
	require.NoError(t, err)
	assert.Equal(t, "back", resp.Text)
}

func TestHealthAllOpenFallsBackToFullChain(t *testing.T) {
	cfg := config.RouterConfig{
		Primary:   ref("claude", "a"),
		Fallbacks: []config.ModelRef{ref("gemini", "c")},
	}
	r := newRouter(t, cfg, providertest.New("claude"), providertest.New("gemini"))
	r.Health().Failure(Candidate{Provider: "claude", Model: "a"})
	r.Health().Failure(Candidate{Provider: "gemini", Model: "c"})

	assert.Equal(t, []string{"claude/a", "gemini/c"}, models(r.BuildChain(newRequest())))
}

func TestRouteNoCandidates(t *testing.T) {
	cfg := config.RouterConfig{Primary: ref("openai", "gpt-5")}
	r := newRouter(t, cfg, providertest.New("claude"))
	_, err := r.Route(context.Background(), newRequest(), nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestPricingCost(t *testing.T) {
	p := Pricing(config.DefaultPricing())
	cost, ok := p.Cost("claude-sonnet-4-5", 1_000_000, 1_000_000)
	require.True(t, ok)
	assert.InDelta(t, 18.0, cost, 1e-9)

	_, ok = p.Cost("nope", 1, 1)
	assert.False(t, ok)
}

func TestEstimateTokens(t *testing.T) {
	req := &provider.Request{
		System: "12345678",
		Turns: []chat.Turn{
			chat.NewUserTurn("abcdefgh"),
			chat.NewToolResultTurn([]chat.ToolResult{{CallID: "x", Success: true, Content: "abcd"}}),
		},
	}
	assert.Equal(t, 5, EstimateTokens(req))
}

func TestDescribe(t *testing.T) {
	lines := Describe([]Candidate{
		{Provider: "claude", Model: "a", EstimatedCost: 0.0015, PriceKnown: true},
		{Provider: "ollama", Model: "b"},
	})
	assert.Equal(t, "1. claude/a (est. $0.001500)", lines[0])
	assert.Equal(t, "2. ollama/b (est. unknown)", lines[1])
}
