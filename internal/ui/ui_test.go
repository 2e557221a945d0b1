package ui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radsim/internal/chat"
	"radsim/internal/permission"
	"radsim/internal/tools"
)

func confirmation() tools.Confirmation {
	return tools.Confirmation{
		Tool:        "delete_file",
		CallID:      "call_1",
		Description: "Delete: temp.txt",
		Args:        map[string]any{"path": "temp.txt"},
		Diff:        "--- a\n+++ b\n-old\n+new\n",
	}
}

func TestConfirmerAnswers(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\nyes\n", true},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			c := NewConfirmer(NewInput(strings.NewReader(tt.input)), &out, nil, nil)
			ok, err := c.Confirm(context.Background(), confirmation())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "Delete: temp.txt")
		})
	}
}

func TestConfirmerAlwaysRemembers(t *testing.T) {
	perms := permission.NewManager(nil)
	c := NewConfirmer(NewInput(strings.NewReader("a\n")), io.Discard, perms, nil)

	ok, err := c.Confirm(context.Background(), confirmation())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, permission.LevelAllow, perms.Check("delete_file", map[string]any{"path": "temp.txt"}, permission.RiskHigh))
	assert.Equal(t, permission.LevelAsk, perms.Check("delete_file", map[string]any{"path": "other.txt"}, permission.RiskHigh))
}

func TestConfirmerEOFAndCancel(t *testing.T) {
	c := NewConfirmer(NewInput(strings.NewReader("")), io.Discard, nil, nil)
	ok, err := c.Confirm(context.Background(), confirmation())
	assert.False(t, ok)
	assert.ErrorIs(t, err, io.EOF)

	pr, pw := io.Pipe()
	defer pw.Close()
	c = NewConfirmer(NewInput(pr), io.Discard, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ok, err = c.Confirm(ctx, confirmation())
	assert.False(t, ok)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestPrinter(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, nil, true)
	h := p.Handler()
	require.NotNil(t, h.OnText)

	h.OnText("hello ")
	h.OnToolStart(chat.ToolCall{ID: "1", Name: "read_file", Args: map[string]any{"path": "a.go", "limit": 10}})
	h.OnToolEnd(chat.ToolResult{CallID: "1", Name: "read_file", Success: true, DurationMs: 4})
	h.OnToolEnd(chat.ToolResult{CallID: "2", Name: "run_shell", Error: "exit code 1\nboom"})

	s := out.String()
	assert.Contains(t, s, "hello ")
	assert.Contains(t, s, "limit=10 path=a.go")
	assert.Contains(t, s, "(4ms)")
	assert.Contains(t, s, "exit code 1")
	assert.NotContains(t, s, "boom")

	assert.Nil(t, NewPrinter(io.Discard, nil, false).Handler().OnText)
}

func TestHighlightDiffKeepsLines(t *testing.T) {
	out := DefaultStyles().HighlightDiff("--- a\n+++ b\n-x\n+y\n same\n")
	assert.Len(t, strings.Split(out, "\n"), 5)
	assert.Contains(t, out, "+y")
}

func TestRendererFallsBackOnBlank(t *testing.T) {
	r := NewRenderer(80)
	assert.Equal(t, "  ", r.Render("  "))
	assert.Contains(t, r.Render("# Title\n\nbody"), "Title")
}

func TestFormatArgsTruncates(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := formatArgs(map[string]any{"command": long})
	assert.Equal(t, "command="+strings.Repeat("x", maxArgPreview)+"...", got)
}
