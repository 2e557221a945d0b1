package tools

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radsim/internal/chat"
	"radsim/internal/permission"
)

func echoTool(name string, destructive bool, calls *int32) Definition {
	return Definition{
		Name:        name,
		Description: "echoes its text",
		Schema: Object(map[string]any{
			"text": Prop("string", "text to echo"),
			"mode": map[string]any{"type": "string", "enum": []string{"plain", "loud"}},
			"n":    Prop("integer", "repeat count"),
		}, "text"),
		ReadOnly:    !destructive,
		Destructive: destructive,
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			if calls != nil {
				atomic.AddInt32(calls, 1)
			}
			text, _ := GetString(args, "text")
			return strings.Repeat(text, GetIntDefault(args, "n", 1)), nil
		},
	}
}

func call(name string, args map[string]any) chat.ToolCall {
	return chat.ToolCall{ID: "call_" + name, Name: name, Args: args}
}

func TestRegisterDuplicateAndFrozen(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", false, nil)))
	assert.ErrorIs(t, r.Register(echoTool("echo", false, nil)), ErrDuplicateTool)

	r.Freeze()
	assert.ErrorIs(t, r.Register(echoTool("other", false, nil)), ErrRegistryFrozen)
	_, ok := r.Get("other")
	assert.False(t, ok)

	assert.Error(t, NewRegistry().Register(Definition{Name: "nohandler"}))

	both := echoTool("both", true, nil)
	both.ReadOnly = true
	assert.Error(t, NewRegistry().Register(both))
}

func TestDefinitionsAreSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("zeta", false, nil)))
	require.NoError(t, r.Register(echoTool("alpha", true, nil)))

	specs := r.Definitions()
	require.Len(t, specs, 2)
	assert.Equal(t, "alpha", specs[0].Name)
	assert.Equal(t, "zeta", specs[1].Name)
	assert.True(t, r.IsDestructive("alpha"))
	assert.False(t, r.IsDestructive("zeta"))
	assert.False(t, r.IsDestructive("missing"))
	assert.True(t, r.IsReadOnly("zeta"))
	assert.False(t, r.IsReadOnly("alpha"))
	assert.False(t, r.IsReadOnly("missing"))
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.Execute(context.Background(), call("nope", nil), AutoConfirm)
	assert.False(t, res.Success)
	assert.Equal(t, "call_nope", res.CallID)
	assert.Contains(t, res.Error, "unknown tool")

	_, err := r.Run(context.Background(), call("nope", nil), AutoConfirm)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestExecuteInvalidArguments(t *testing.T) {
	var calls int32
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", false, &calls)))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing required", map[string]any{}, `missing required argument "text"`},
		{"wrong type", map[string]any{"text": 12.0}, `argument "text" must be string`},
		{"not in enum", map[string]any{"text": "a", "mode": "quiet"}, `argument "mode" must be one of`},
		{"fractional integer", map[string]any{"text": "a", "n": 1.5}, `argument "n" must be integer`},
		{"unknown argument", map[string]any{"text": "a", "extra": true}, `unknown argument "extra"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(context.Background(), call("echo", tt.args), AutoConfirm)
			assert.ErrorIs(t, err, ErrInvalidArguments)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Zero(t, atomic.LoadInt32(&calls))

	res := r.Execute(context.Background(), call("echo", map[string]any{"text": "ab", "n": 2.0, "mode": "loud"}), nil)
	assert.True(t, res.Success)
	assert.Equal(t, "abab", res.Content)
}

func TestDestructiveDeniedNeverRunsHandler(t *testing.T) {
	var calls int32
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("erase", true, &calls)))

	res := r.Execute(context.Background(), call("erase", map[string]any{"text": "x"}), DenyAll)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "confirmation denied")
	assert.Zero(t, atomic.LoadInt32(&calls))

	_, err := r.Run(context.Background(), call("erase", map[string]any{"text": "x"}), nil)
	assert.ErrorIs(t, err, ErrConfirmationDenied)

	failing := ConfirmFunc(func(context.Context, Confirmation) (bool, error) {
		return true, errors.New("terminal closed")
	})
	_, err = r.Run(context.Background(), call("erase", map[string]any{"text": "x"}), failing)
	assert.ErrorIs(t, err, ErrConfirmationDenied)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestDestructiveConfirmedRuns(t *testing.T) {
	var calls int32
	def := echoTool("erase", true, &calls)
	def.Preview = func(ctx context.Context, args map[string]any) (string, error) {
		return "-old\n+new\n", nil
	}
	r := NewRegistry()
	require.NoError(t, r.Register(def))

	var seen Confirmation
	confirmer := ConfirmFunc(func(_ context.Context, c Confirmation) (bool, error) {
		seen = c
		return true, nil
	})
	res := r.Execute(context.Background(), call("erase", map[string]any{"text": "x"}), confirmer)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "erase", seen.Tool)
	assert.Equal(t, "call_erase", seen.CallID)
	assert.Equal(t, "-old\n+new\n", seen.Diff)
	assert.Equal(t, "x", seen.Args["text"])
}

func TestReadOnlyBypassesGate(t *testing.T) {
	var calls int32
	rules := permission.NewRulesFromConfig(map[string]string{"look": "deny"})
	r := NewRegistry(WithPermissions(permission.NewManager(rules)))
	require.NoError(t, r.Register(echoTool("look", false, &calls)))

	res := r.Execute(context.Background(), call("look", map[string]any{"text": "x"}), DenyAll)
	assert.True(t, res.Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPermissionRules(t *testing.T) {
	var calls int32
	rules := permission.NewRulesFromConfig(map[string]string{"allowed": "allow", "blocked": "deny"})
	r := NewRegistry(WithPermissions(permission.NewManager(rules)))
	require.NoError(t, r.Register(echoTool("allowed", true, &calls)))
	require.NoError(t, r.Register(echoTool("blocked", true, &calls)))

	res := r.Execute(context.Background(), call("allowed", map[string]any{"text": "x"}), nil)
	assert.True(t, res.Success)

	asked := false
	confirmer := ConfirmFunc(func(context.Context, Confirmation) (bool, error) {
		asked = true
		return true, nil
	})
	res = r.Execute(context.Background(), call("blocked", map[string]any{"text": "x"}), confirmer)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not permitted by configuration")
	assert.False(t, asked)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNeitherReadOnlyNorDestructiveIsPolicyChecked(t *testing.T) {
	var calls int32
	rules := permission.NewRulesFromConfig(map[string]string{"blocked": "deny"})
	r := NewRegistry(WithPermissions(permission.NewManager(rules)))
	for _, name := range []string{"tidy", "blocked"} {
		def := echoTool(name, false, &calls)
		def.ReadOnly = false
		require.NoError(t, r.Register(def))
	}

	res := r.Execute(context.Background(), call("tidy", map[string]any{"text": "x"}), DenyAll)
	assert.True(t, res.Success, res.Error)

	res = r.Execute(context.Background(), call("blocked", map[string]any{"text": "x"}), AutoConfirm)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not permitted by configuration")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCancelDuringConfirmationSkipsHandler(t *testing.T) {
	var calls int32
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("remove", true, &calls)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	confirmer := ConfirmFunc(func(context.Context, Confirmation) (bool, error) {
		cancel()
		return true, nil
	})

	_, err := r.Run(ctx, call("remove", map[string]any{"text": "x"}), confirmer)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestHandlerErrorAndPanic(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{
		Name: "fails",
		Handler: func(context.Context, map[string]any) (string, error) {
			return "", errors.New("disk full")
		},
	}))
	require.NoError(t, r.Register(Definition{
		Name: "panics",
		Handler: func(context.Context, map[string]any) (string, error) {
			panic("boom")
		},
	}))

	_, err := r.Run(context.Background(), call("fails", nil), nil)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.False(t, execErr.Panic)
	assert.Contains(t, err.Error(), "disk full")

	res := r.Execute(context.Background(), call("panics", nil), nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "panicked: boom")
	assert.Equal(t, "call_panics", res.CallID)
}

func TestHandlerTimeout(t *testing.T) {
	r := NewRegistry(WithTimeout(20 * time.Millisecond))
	require.NoError(t, r.Register(Definition{
		Name: "slow",
		Handler: func(ctx context.Context, _ map[string]any) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}))

	_, err := r.Run(context.Background(), call("slow", nil), nil)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, err.Error(), "timed out")
}

func TestStartedHandlerFinishesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{
		Name: "steady",
		Handler: func(hctx context.Context, _ map[string]any) (string, error) {
			cancel()
			time.Sleep(10 * time.Millisecond)
			if hctx.Err() != nil {
				return "", hctx.Err()
			}
			return "finished", nil
		},
	}))

	res := r.Execute(ctx, call("steady", nil), nil)
	assert.True(t, res.Success, res.Error)
	assert.Equal(t, "finished", res.Content)
}

func TestResultTruncation(t *testing.T) {
	r := NewRegistry(WithMaxResultChars(10))
	require.NoError(t, r.Register(echoTool("echo", false, nil)))

	res := r.Execute(context.Background(), call("echo", map[string]any{"text": strings.Repeat("a", 25)}), nil)
	require.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Content, "aaaaaaaaaa\n"))
	assert.Contains(t, res.Content, "truncated 15 characters")
}
