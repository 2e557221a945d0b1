package tools

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"radsim/internal/chat"
	"radsim/internal/logging"
	"radsim/internal/permission"
)

// Execute runs call and converts every outcome, including unknown tools,
// invalid arguments, refusals, handler errors and panics, into a ToolResult
// carrying the call ID.
func (r *Registry) Execute(ctx context.Context, call chat.ToolCall, confirmer Confirmer) chat.ToolResult {
	start := time.Now()
	content, err := r.Run(ctx, call, confirmer)

	result := chat.ToolResult{
		CallID:     call.ID,
		Name:       call.Name,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
		logging.Debug("tool failed", "tool", call.Name, "call_id", call.ID, "error", result.Error)
		return result
	}
	result.Success = true
	result.Content = r.truncate(content)
	return result
}

// Run is Execute with the typed error: ErrUnknownTool, ErrInvalidArguments,
// ErrConfirmationDenied, *ExecutionError, or the context error when ctx is
// done before the handler starts.
func (r *Registry) Run(ctx context.Context, call chat.ToolCall, confirmer Confirmer) (string, error) {
	def, ok := r.Get(call.Name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(def.Schema, args); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	if !def.ReadOnly {
		if err := r.gate(ctx, def, call.ID, args, confirmer); err != nil {
			return "", err
		}
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s not started", err, call.Name)
	}

	return r.invoke(ctx, def, args)
}

// gate enforces the permission policy for a call that is not read-only. The
// handler never runs unless this returns nil.
func (r *Registry) gate(ctx context.Context, def Definition, callID string, args map[string]any, confirmer Confirmer) error {
	switch r.permissions.Check(def.Name, args, def.Risk()) {
	case permission.LevelAllow:
		return nil
	case permission.LevelDeny:
		return fmt.Errorf("%w: %s is not permitted by configuration", ErrConfirmationDenied, def.Name)
	}

	if confirmer == nil {
		return fmt.Errorf("%w: no confirmer available", ErrConfirmationDenied)
	}

	c := Confirmation{
		Tool:        def.Name,
		CallID:      callID,
		Description: permission.Describe(def.Name, args),
		Args:        chat.CloneArgs(args),
	}
	if def.Preview != nil {
		diff, err := def.Preview(ctx, args)
		if err != nil {
			return &ExecutionError{Tool: def.Name, Err: err}
		}
		c.Diff = diff
	}

	ok, err := confirmer.Confirm(ctx, c)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfirmationDenied, err)
	}
	if !ok {
		return fmt.Errorf("%w: user declined %s", ErrConfirmationDenied, def.Name)
	}
	return nil
}

type outcome struct {
	content string
	err     error
}

// invoke runs the handler under the tool timeout. Caller cancellation does
// not interrupt a handler that has already started; only the timeout does.
func (r *Registry) invoke(ctx context.Context, def Definition, args map[string]any) (string, error) {
	timeout := def.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	execCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				stack := make([]byte, 4096)
				length := runtime.Stack(stack, false)
				logging.Error("tool execution panic",
					"tool", def.Name,
					"panic", rec,
					"stack", string(stack[:length]))
				done <- outcome{err: &ExecutionError{Tool: def.Name, Err: fmt.Errorf("%v", rec), Panic: true}}
			}
		}()
		content, err := def.Handler(execCtx, args)
		done <- outcome{content: content, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			if _, ok := o.err.(*ExecutionError); ok {
				return "", o.err
			}
			return "", &ExecutionError{Tool: def.Name, Err: o.err}
		}
		return o.content, nil
	case <-execCtx.Done():
		return "", &ExecutionError{Tool: def.Name, Err: fmt.Errorf("timed out after %s", timeout)}
	}
}

func (r *Registry) truncate(content string) string {
	if r.maxResultChars <= 0 || len(content) <= r.maxResultChars {
		return content
	}
	return content[:r.maxResultChars] + fmt.Sprintf("\n... (truncated %d characters)", len(content)-r.maxResultChars)
}
