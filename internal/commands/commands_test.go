package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radsim/internal/agent"
	"radsim/internal/chat"
	"radsim/internal/config"
	"radsim/internal/provider"
	"radsim/internal/robustness"
	"radsim/internal/router"
)

type fakeApp struct {
	session  *agent.Session
	cfg      *config.Config
	chain    []router.Candidate
	open     map[string]bool
	sessions []chat.SessionInfo
	budget   *agent.Budget
	cleared  int
}

func newFakeApp() *fakeApp {
	cfg := config.DefaultConfig()
	cfg.Tools.Rules = map[string]string{"run_shell": "deny", "write_file": "allow"}
	return &fakeApp{
		session: agent.NewSession(nil),
		cfg:     cfg,
		chain: []router.Candidate{
			{Provider: "claude", Model: "claude-sonnet-4-5", EstimatedCost: 0.0015, PriceKnown: true},
			{Provider: "ollama", Model: "qwen3"},
		},
		open:   map[string]bool{"ollama/qwen3": true},
		budget: agent.NewBudget(1000, 0),
	}
}

func (f *fakeApp) Session() *agent.Session               { return f.session }
func (f *fakeApp) Sessions() ([]chat.SessionInfo, error) { return f.sessions, nil }
func (f *fakeApp) ClearConversation()                    { f.cleared++; f.session.Reset(); f.budget.Reset() }
func (f *fakeApp) Chain() []router.Candidate             { return f.chain }
func (f *fakeApp) Config() *config.Config                { return f.cfg }
func (f *fakeApp) Budget() *agent.Budget                 { return f.budget }
func (f *fakeApp) Version() string                       { return "1.2.3" }

func (f *fakeApp) HealthState(c router.Candidate) robustness.State {
	if f.open[c.String()] {
		return robustness.StateOpen
	}
	return robustness.StateClosed
}

func TestParse(t *testing.T) {
	h := NewHandler()

	name, args, ok := h.Parse("  /help route ")
	require.True(t, ok)
	assert.Equal(t, "help", name)
	assert.Equal(t, []string{"route"}, args)

	_, _, ok = h.Parse("/home/user/file.go")
	assert.False(t, ok)
	_, _, ok = h.Parse("explain /route")
	assert.False(t, ok)
}

func TestHelp(t *testing.T) {
	h := NewHandler()
	app := newFakeApp()

	out, err := h.Execute(context.Background(), "help", nil, app)
	require.NoError(t, err)
	for _, cmd := range h.ListCommands() {
		assert.Contains(t, out, "/"+cmd.Name())
	}

	out, err = h.Execute(context.Background(), "help", []string{"/route"}, app)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: /route")

	_, err = h.Execute(context.Background(), "nope", nil, app)
	assert.Error(t, err)
}

func TestRouteShowsChainAndHealth(t *testing.T) {
	out, err := NewHandler().Execute(context.Background(), "route", nil, newFakeApp())
	require.NoError(t, err)
	assert.Contains(t, out, "Strategy: cost")
	assert.Contains(t, out, "1. claude/claude-sonnet-4-5 (est. $0.001500)")
	assert.Contains(t, out, "2. ollama/qwen3 (est. unknown) [open]")
}

func TestClearAndStats(t *testing.T) {
	h := NewHandler()
	app := newFakeApp()
	before := app.session.ID()

	out, err := h.Execute(context.Background(), "clear", nil, app)
	require.NoError(t, err)
	assert.Equal(t, 1, app.cleared)
	assert.NotEqual(t, before, app.session.ID())
	assert.Contains(t, out, app.session.ID())

	app.budget.Record(provider.Usage{InputTokens: 120, OutputTokens: 30})
	out, err = h.Execute(context.Background(), "stats", nil, app)
	require.NoError(t, err)
	assert.Contains(t, out, "120 in, 30 out")
	assert.Contains(t, out, "Budget:   12% of 1000 in, unlimited out")
	assert.Contains(t, out, "1.2.3")
}

func TestSessionsAndPermissions(t *testing.T) {
	h := NewHandler()
	app := newFakeApp()

	out, err := h.Execute(context.Background(), "sessions", nil, app)
	require.NoError(t, err)
	assert.Equal(t, "No saved sessions.", out)

	app.sessions = []chat.SessionInfo{
		{ID: app.session.ID(), LastActive: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{ID: "older", LastActive: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)},
	}
	out, err = h.Execute(context.Background(), "sessions", nil, app)
	require.NoError(t, err)
	assert.Contains(t, out, "* "+app.session.ID()+"  2026-03-01 09:30")
	assert.Contains(t, out, "  older")

	out, err = h.Execute(context.Background(), "permissions", nil, app)
	require.NoError(t, err)
	assert.Contains(t, out, "Default for destructive tools: ask")
	assert.Contains(t, out, "run_shell")
	assert.Contains(t, out, "deny")
}
