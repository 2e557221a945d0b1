// Package provider defines the contract every model API adapter satisfies and
// the shared types that flow through it.
package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"radsim/internal/chat"
)

// DeltaFunc receives incremental assistant text while a response streams.
type DeltaFunc func(text string)

// Adapter normalizes one provider's API into the common request/response shape.
//
// Send streams internally, delivers text through onDelta as it arrives, and
// returns a single final Response. Errors are *Error values classified as
// transient or fatal, except caller cancellation, which is returned as the
// context error.
type Adapter interface {
	Name() string
	Send(ctx context.Context, model string, req *Request, onDelta DeltaFunc) (*Response, error)
}

// ToolSpec is a tool definition as sent to a provider.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any // JSON schema object: type, properties, required
}

// Params are generation parameters.
type Params struct {
	MaxTokens   int
	Temperature float32
}

// Request is the provider-agnostic input to Send.
type Request struct {
	System string
	Turns  []chat.Turn
	Tools  []ToolSpec
	Params Params
}

// Clone returns a deep copy so each routing attempt sees an untouched request.
func (r *Request) Clone() *Request {
	out := &Request{
		System: r.System,
		Turns:  chat.CloneTurns(r.Turns),
		Params: r.Params,
	}
	if r.Tools != nil {
		out.Tools = make([]ToolSpec, len(r.Tools))
		for i, t := range r.Tools {
			out.Tools[i] = ToolSpec{Name: t.Name, Description: t.Description, Schema: chat.CloneArgs(t.Schema)}
		}
	}
	return out
}

// Usage is token accounting for one response.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Stop reasons.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// Response is the normalized result of one Send.
type Response struct {
	Text       string
	ToolCalls  []chat.ToolCall
	Usage      Usage
	StopReason string
	Provider   string
	Model      string
}

// HasToolCalls reports whether the model asked for tools.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// NewCallID returns a correlation ID for providers that do not issue one.
func NewCallID() string {
	return "call_" + uuid.NewString()
}

// Registry is the fixed set of adapters compiled into the binary.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry. Duplicate names are a programming error.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if _, exists := r.adapters[a.Name()]; exists {
			return nil, fmt.Errorf("adapter already registered: %s", a.Name())
		}
		r.adapters[a.Name()] = a
	}
	return r, nil
}

// Get returns the adapter for name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns registered adapter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
