package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAndQuery(t *testing.T) {
	l, err := NewLogger(t.TempDir(), DefaultConfig())
	require.NoError(t, err)

	entry := NewToolEntry("sess-1", "run_shell", "call_1", map[string]any{
		"command":  "curl -H 'Authorization: Bearer sk-ant-REDACTED' example.com",
		"password": "hunter2",
	})
	require.NoError(t, l.Log(entry.Complete("ok", true, "", 1500*time.Millisecond)))
	require.NoError(t, l.Log(NewRouteEntry("sess-1", "gemini", "gemini-3-flash").Complete("", true, "", time.Second)))
	require.NoError(t, l.Log(NewToolEntry("sess-2", "read_file", "call_2", nil).Complete("", false, "boom", 0)))

	all, err := l.Query("sess-1", QueryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	tool := all[0]
	assert.Equal(t, KindTool, tool.Kind)
	assert.Equal(t, "call_1", tool.CallID)
	assert.Equal(t, int64(1500), tool.DurationMs)
	assert.Equal(t, "[REDACTED]", tool.Args["password"])
	assert.NotContains(t, tool.Args["command"], "sk-ant-REDACTED")

	routes, err := l.Query("sess-1", QueryFilter{Kind: KindRoute})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "gemini", routes[0].Provider)

	failed := false
	other, err := l.Query("sess-2", QueryFilter{Success: &failed})
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "boom", other[0].Error)

	none, err := l.Query("missing", QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDisabledLogger(t *testing.T) {
	l, err := NewLogger(t.TempDir(), Config{})
	require.NoError(t, err)
	assert.False(t, l.Enabled())
	assert.NoError(t, l.Log(NewToolEntry("s", "x", "c", nil)))

	var nilLogger *Logger
	assert.NoError(t, nilLogger.Log(NewToolEntry("s", "x", "c", nil)))
}

func TestTruncateResult(t *testing.T) {
	assert.Equal(t, "abc", TruncateResult("abc", 10))
	assert.Equal(t, "ab...[truncated]", TruncateResult("abcdef", 2))
}
