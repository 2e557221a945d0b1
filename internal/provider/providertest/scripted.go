// Package providertest provides a deterministic provider adapter for tests.
package providertest

import (
	"context"
	"fmt"
	"sync"

	"radsim/internal/chat"
	"radsim/internal/provider"
)

// Step configures one Send in a scripted sequence.
type Step struct {
	Text      string
	ToolCalls []chat.ToolCall
	Err       error
	// Hook runs before the step is answered, e.g. to cancel a context.
	Hook func(ctx context.Context)
}

// Call records one Send.
type Call struct {
	Model   string
	Request *provider.Request
}

// Scripted replays steps in order and records every call.
type Scripted struct {
	name string

	mu    sync.Mutex
	steps []Step
	index int
	calls []Call
}

var _ provider.Adapter = (*Scripted)(nil)

// New returns a scripted adapter registered under name.
func New(name string, steps ...Step) *Scripted {
	return &Scripted{name: name, steps: append([]Step(nil), steps...)}
}

// Text is a step answering with plain text.
func Text(text string) Step {
	return Step{Text: text}
}

// Tools is a step answering with tool calls.
func Tools(calls ...chat.ToolCall) Step {
	return Step{ToolCalls: calls}
}

// Fail is a step answering with err.
func Fail(err error) Step {
	return Step{Err: err}
}

// Name implements provider.Adapter.
func (s *Scripted) Name() string { return s.name }

// Send implements provider.Adapter.
func (s *Scripted) Send(ctx context.Context, model string, req *provider.Request, onDelta provider.DeltaFunc) (*provider.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Model: model, Request: req.Clone()})
	if s.index >= len(s.steps) {
		s.mu.Unlock()
		return nil, fmt.Errorf("script exhausted at step %d", s.index+1)
	}
	step := s.steps[s.index]
	s.index++
	s.mu.Unlock()

	if step.Hook != nil {
		step.Hook(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if step.Err != nil {
		return nil, step.Err
	}

	if step.Text != "" && onDelta != nil {
		onDelta(step.Text)
	}
	resp := &provider.Response{
		Text:       step.Text,
		StopReason: provider.StopEndTurn,
		Provider:   s.name,
		Model:      model,
		Usage:      provider.Usage{InputTokens: 10, OutputTokens: len(step.Text) / 4},
	}
	for _, tc := range step.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, tc.Clone())
	}
	if resp.HasToolCalls() {
		resp.StopReason = provider.StopToolUse
	}
	return resp, nil
}

// Calls returns the recorded calls.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many times Send was invoked.
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Transient returns a transient provider error for tests.
func Transient(name, model string) error {
	return provider.StatusError(name, model, 429, "rate limited")
}

// Fatal returns a fatal provider error for tests.
func Fatal(name, model string) error {
	return provider.StatusError(name, model, 401, "invalid api key")
}
