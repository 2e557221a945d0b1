// Package app wires configuration, providers, tools and the agent loop into
// the interactive and one-shot front ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"radsim/internal/agent"
	"radsim/internal/chat"
	"radsim/internal/commands"
	"radsim/internal/config"
	"radsim/internal/logging"
	"radsim/internal/permission"
	"radsim/internal/robustness"
	"radsim/internal/router"
	"radsim/internal/ui"
)

const prompt = "radsim> "

// App is the assembled application.
type App struct {
	cfg      *config.Config
	opts     Options
	router   *router.Router
	perms    *permission.Manager
	store    *chat.Store
	loop     *agent.Loop
	budget   *agent.Budget
	input    *ui.Input
	printer  *ui.Printer
	renderer *ui.Renderer
	commands *commands.Handler

	mu         sync.Mutex
	cancelTurn context.CancelFunc
}

var _ commands.AppInterface = (*App)(nil)

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	return NewBuilder(ctx, cfg, opts).Build()
}

// Run reads prompts until input ends, "exit" is typed or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	out := a.opts.Out
	a.printer.Info(fmt.Sprintf("radsim %s  session %s  (/help for commands)", a.opts.Version, a.Session().ID()))

	for {
		fmt.Fprint(out, prompt)
		line, err := a.input.ReadLine(ctx)
		if err != nil {
			fmt.Fprintln(out)
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit", "/exit", "/quit":
			return nil
		}

		if name, args, ok := a.commands.Parse(line); ok {
			result, err := a.commands.Execute(ctx, name, args, a)
			if err != nil {
				a.printer.Error(err)
			} else if result != "" {
				fmt.Fprintln(out, result)
			}
			continue
		}

		a.runTurn(ctx, line)
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Ask submits a single prompt and prints the answer.
func (a *App) Ask(ctx context.Context, input string) error {
	return a.runTurn(ctx, input)
}

func (a *App) runTurn(ctx context.Context, input string) error {
	turnCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancelTurn = cancel
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.cancelTurn = nil
		a.mu.Unlock()
		cancel()
	}()

	res, err := a.loop.Submit(turnCtx, input)

	switch {
	case errors.Is(err, agent.ErrCancelled):
		fmt.Fprintln(a.opts.Out)
		a.printer.Warn("cancelled")
		return err
	case err != nil:
		fmt.Fprintln(a.opts.Out)
		a.printer.Error(err)
		var exhausted *router.ExhaustedError
		if errors.As(err, &exhausted) {
			for _, attempt := range exhausted.Attempts {
				a.printer.Info(fmt.Sprintf("  %s failed after %s: %v", attempt.Candidate, attempt.Duration.Round(time.Millisecond), attempt.Err))
			}
		}
		if errors.Is(err, agent.ErrBudgetExceeded) {
			a.printer.Info("  /clear starts a new session with a fresh budget")
		}
		logging.Error("turn failed", "session", a.Session().ID(), "error", err)
		return err
	}

	if a.opts.Markdown {
		fmt.Fprint(a.opts.Out, a.renderer.Render(res.Text))
	} else {
		fmt.Fprintln(a.opts.Out)
	}
	logging.Info("turn completed",
		"session", a.Session().ID(),
		"provider", res.Provider,
		"model", res.Model,
		"rounds", res.Rounds)
	return nil
}

// RouteSummary describes the failover chain for the next request.
func (a *App) RouteSummary() (string, error) {
	return a.commands.Execute(context.Background(), "route", nil, a)
}

// Interrupt cancels the running turn. It reports false when no turn is
// running.
func (a *App) Interrupt() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelTurn == nil {
		return false
	}
	a.cancelTurn()
	return true
}

// Session returns the current session.
func (a *App) Session() *agent.Session {
	return a.loop.Session()
}

// Sessions lists saved sessions.
func (a *App) Sessions() ([]chat.SessionInfo, error) {
	if a.store == nil {
		return nil, nil
	}
	return a.store.List()
}

// ClearConversation starts a new session, forgets "always" answers and
// resets the token budget.
func (a *App) ClearConversation() {
	a.Session().Reset()
	a.perms.ClearSession()
	a.budget.Reset()
}

// Chain returns the failover chain for the next request.
func (a *App) Chain() []router.Candidate {
	return a.router.BuildChain(a.loop.NextRequest())
}

// HealthState reports the health breaker state of a candidate.
func (a *App) HealthState(c router.Candidate) robustness.State {
	return a.router.Health().State(c)
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Budget returns the session token budget.
func (a *App) Budget() *agent.Budget {
	return a.budget
}

// Version returns the build version.
func (a *App) Version() string {
	return a.opts.Version
}
