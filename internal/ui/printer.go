package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"radsim/internal/agent"
	"radsim/internal/chat"
)

const maxArgPreview = 60

// Printer writes a running turn to the terminal.
type Printer struct {
	out    io.Writer
	styles *Styles
	stream bool
	mu     sync.Mutex
}

// NewPrinter creates a printer. When stream is false assistant text is not
// echoed as it arrives and the caller prints the final answer itself.
func NewPrinter(out io.Writer, styles *Styles, stream bool) *Printer {
	if styles == nil {
		styles = DefaultStyles()
	}
	return &Printer{out: out, styles: styles, stream: stream}
}

// Handler returns agent hooks bound to this printer.
func (p *Printer) Handler() agent.Handler {
	h := agent.Handler{
		OnToolStart: p.ToolStart,
		OnToolEnd:   p.ToolEnd,
		OnWarning:   p.Warn,
	}
	if p.stream {
		h.OnText = p.Text
	}
	return h
}

// Text writes streamed assistant text.
func (p *Printer) Text(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, text)
}

// ToolStart announces a tool call.
func (p *Printer) ToolStart(call chat.ToolCall) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := fmt.Sprintf("%s %s", GetToolIcon(call.Name), call.Name)
	if args := formatArgs(call.Args); args != "" {
		line += " " + p.styles.Dim.Render(args)
	}
	fmt.Fprintln(p.out, p.styles.ToolCall.Render(line))
}

// ToolEnd reports a tool result.
func (p *Printer) ToolEnd(result chat.ToolResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if result.Success {
		fmt.Fprintf(p.out, "  %s %s\n", p.styles.Success.Render(MessageIcons["success"]+" "+result.Name),
			p.styles.Dim.Render(fmt.Sprintf("(%dms)", result.DurationMs)))
		return
	}
	fmt.Fprintf(p.out, "  %s %s\n", p.styles.Error.Render(MessageIcons["error"]+" "+result.Name),
		p.styles.Dim.Render(firstLine(result.Error)))
}

// Error prints an error line.
func (p *Printer) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.styles.Error.Render(MessageIcons["error"]+" "+err.Error()))
}

// Warn prints a warning line.
func (p *Printer) Warn(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.styles.Warning.Render(MessageIcons["warning"]+" "+msg))
}

// Info prints a dimmed informational line.
func (p *Printer) Info(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.styles.Dim.Render(msg))
}

// formatArgs renders arguments as key=value pairs in key order.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := firstLine(fmt.Sprint(args[k]))
		if len(v) > maxArgPreview {
			v = v[:maxArgPreview] + "..."
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
