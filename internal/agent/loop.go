// Package agent drives a conversation: it dispatches the context through the
// router, runs requested tools and feeds results back until the model answers.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"radsim/internal/audit"
	"radsim/internal/chat"
	"radsim/internal/config"
	"radsim/internal/logging"
	"radsim/internal/provider"
	"radsim/internal/tools"
)

// Router dispatches a request to some provider. *router.Router satisfies it.
type Router interface {
	Route(ctx context.Context, req *provider.Request, onDelta provider.DeltaFunc) (*provider.Response, error)
}

// Handler observes a running turn. Any field may be nil. OnToolStart and
// OnToolEnd may be called from several goroutines at once for read-only tools.
type Handler struct {
	OnText      func(text string)
	OnState     func(state State)
	OnToolStart func(call chat.ToolCall)
	OnToolEnd   func(result chat.ToolResult)
	OnWarning   func(msg string)
}

// Result is the outcome of one submitted turn.
type Result struct {
	Text     string
	Outcome  Outcome
	Rounds   int // provider calls made
	Usage    provider.Usage
	Provider string
	Model    string
}

// Loop runs turns for one session. Only one turn may be in flight.
type Loop struct {
	session   *Session
	router    Router
	tools     *tools.Registry
	confirmer tools.Confirmer
	handler   Handler
	audit     *audit.Logger
	budget    *Budget
	cfg       config.AgentConfig

	busy    sync.Mutex
	stateMu sync.RWMutex
	state   State
}

// Option configures a Loop.
type Option func(*Loop)

// WithConfirmer sets who answers confirmation prompts for destructive tools.
// Without one every prompt is refused.
func WithConfirmer(c tools.Confirmer) Option {
	return func(l *Loop) { l.confirmer = c }
}

// WithHandler sets the turn observer.
func WithHandler(h Handler) Option {
	return func(l *Loop) { l.handler = h }
}

// WithAudit records provider rounds and tool executions.
func WithAudit(a *audit.Logger) Option {
	return func(l *Loop) { l.audit = a }
}

// WithBudget stops turns once the session token budget is spent.
func WithBudget(b *Budget) Option {
	return func(l *Loop) { l.budget = b }
}

// New creates a loop for session.
func New(session *Session, router Router, registry *tools.Registry, cfg config.AgentConfig, opts ...Option) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = config.DefaultMaxIterations
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = config.DefaultMaxConsecutiveFailures
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = config.DefaultMaxTokens
	}

	l := &Loop{
		session:   session,
		router:    router,
		tools:     registry,
		confirmer: tools.DenyAll,
		cfg:       cfg,
		state:     StateAwaitingInput,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Session returns the loop's session.
func (l *Loop) Session() *Session {
	return l.session
}

// State returns the current state.
func (l *Loop) State() State {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.state
}

func (l *Loop) setState(s State) {
	l.stateMu.Lock()
	changed := l.state != s
	l.state = s
	l.stateMu.Unlock()

	if !changed {
		return
	}
	logging.Debug("agent state", "session", l.session.ID(), "state", s)
	if l.handler.OnState != nil {
		l.handler.OnState(s)
	}
}

// Submit appends input as a user turn and runs the loop until the model
// answers without tool calls.
//
// On router failure the error is returned and nothing past the turns already
// completed is appended. On cancellation the Result has OutcomeCancelled and
// the error is ErrCancelled.
func (l *Loop) Submit(ctx context.Context, input string) (*Result, error) {
	if !l.busy.TryLock() {
		return nil, ErrBusy
	}
	defer l.busy.Unlock()
	defer l.setState(StateAwaitingInput)

	l.session.append(chat.NewUserTurn(input))
	result := &Result{}

	failures := 0
	for {
		if ctx.Err() != nil {
			return l.cancelled(result)
		}
		if result.Rounds >= l.cfg.MaxIterations {
			result.Outcome = OutcomeStopped
			logging.Warn("iteration limit reached", "session", l.session.ID(), "rounds", result.Rounds)
			return result, fmt.Errorf("%w: %d provider calls", ErrIterationLimit, result.Rounds)
		}
		if err := l.budget.Check(); err != nil {
			result.Outcome = OutcomeStopped
			logging.Warn("token budget spent", "session", l.session.ID(), "error", err)
			return result, err
		}

		l.setState(StateDispatching)
		resp, err := l.dispatch(ctx)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return l.cancelled(result)
			}
			return nil, err
		}
		result.Rounds++
		result.Usage.InputTokens += resp.Usage.InputTokens
		result.Usage.OutputTokens += resp.Usage.OutputTokens
		result.Provider, result.Model = resp.Provider, resp.Model
		if warning := l.budget.Record(resp.Usage); warning != "" {
			logging.Warn("token budget warning", "session", l.session.ID(), "warning", warning)
			if l.handler.OnWarning != nil {
				l.handler.OnWarning(warning)
			}
		}

		if !resp.HasToolCalls() {
			l.setState(StateResponding)
			l.session.append(chat.NewAssistantTurn(resp.Text, nil))
			result.Text = resp.Text
			result.Outcome = OutcomeCompleted
			return result, nil
		}

		l.setState(StateAwaitingToolResults)
		calls := uniqueCallIDs(resp.ToolCalls)
		results := l.runTools(ctx, calls)

		// request and results are appended as one unit
		l.session.append(chat.NewAssistantTurn(resp.Text, calls), chat.NewToolResultTurn(results))

		for _, r := range results {
			if r.Success {
				failures = 0
			} else {
				failures++
			}
		}
		if failures >= l.cfg.MaxConsecutiveFailures {
			result.Outcome = OutcomeStopped
			logging.Warn("stopping after consecutive tool failures", "session", l.session.ID(), "failures", failures)
			return result, fmt.Errorf("%w: %d", ErrTooManyFailures, failures)
		}
	}
}

func (l *Loop) cancelled(result *Result) (*Result, error) {
	l.setState(StateCancelled)
	result.Outcome = OutcomeCancelled
	logging.Info("turn cancelled", "session", l.session.ID(), "rounds", result.Rounds)
	return result, ErrCancelled
}

// NextRequest returns the request the next provider call would send.
func (l *Loop) NextRequest() *provider.Request {
	return &provider.Request{
		System: l.cfg.SystemPrompt,
		Turns:  l.session.Turns(),
		Tools:  l.tools.Definitions(),
		Params: provider.Params{
			MaxTokens:   l.cfg.MaxTokens,
			Temperature: l.cfg.Temperature,
		},
	}
}

func (l *Loop) dispatch(ctx context.Context) (*provider.Response, error) {
	start := time.Now()
	resp, err := l.router.Route(ctx, l.NextRequest(), l.handler.OnText)
	if err != nil {
		return nil, err
	}

	if l.audit.Enabled() {
		entry := audit.NewRouteEntry(l.session.ID(), resp.Provider, resp.Model)
		entry.Tokens = resp.Usage.InputTokens + resp.Usage.OutputTokens
		entry.Complete(resp.StopReason, true, "", time.Since(start))
		if err := l.audit.Log(entry); err != nil {
			logging.Warn("audit write failed", "error", err)
		}
	}
	return resp, nil
}

// runTools resolves every call of one batch. A batch made only of read-only
// calls runs concurrently; any other batch runs one call at a time in request
// order. Calls not started before cancellation get a cancelled result.
// Results are in request order.
func (l *Loop) runTools(ctx context.Context, calls []chat.ToolCall) []chat.ToolResult {
	results := make([]chat.ToolResult, len(calls))

	if !l.allReadOnly(calls) {
		for i, call := range calls {
			if ctx.Err() != nil {
				results[i] = cancelledResult(call)
				continue
			}
			results[i] = l.execute(ctx, call)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, call := range calls {
		if ctx.Err() != nil {
			results[i] = cancelledResult(call)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = l.execute(ctx, call)
		}()
	}
	wg.Wait()
	return results
}

func (l *Loop) allReadOnly(calls []chat.ToolCall) bool {
	for _, call := range calls {
		if !l.tools.IsReadOnly(call.Name) {
			return false
		}
	}
	return true
}

func (l *Loop) execute(ctx context.Context, call chat.ToolCall) chat.ToolResult {
	if l.handler.OnToolStart != nil {
		l.handler.OnToolStart(call)
	}

	result := l.tools.Execute(ctx, call, l.confirmer)

	if l.handler.OnToolEnd != nil {
		l.handler.OnToolEnd(result)
	}

	if l.audit.Enabled() {
		entry := audit.NewToolEntry(l.session.ID(), call.Name, call.ID, call.Args)
		entry.Complete(result.Content, result.Success, result.Error, time.Duration(result.DurationMs)*time.Millisecond)
		if err := l.audit.Log(entry); err != nil {
			logging.Warn("audit write failed", "error", err)
		}
	}
	return result
}

func cancelledResult(call chat.ToolCall) chat.ToolResult {
	return chat.ToolResult{
		CallID: call.ID,
		Name:   call.Name,
		Error:  "cancelled",
	}
}

// uniqueCallIDs gives every call in a batch a distinct, non-empty ID.
func uniqueCallIDs(calls []chat.ToolCall) []chat.ToolCall {
	out := make([]chat.ToolCall, len(calls))
	seen := make(map[string]bool, len(calls))
	for i, c := range calls {
		c = c.Clone()
		if c.ID == "" || seen[c.ID] {
			c.ID = provider.NewCallID()
		}
		seen[c.ID] = true
		out[i] = c
	}
	return out
}
