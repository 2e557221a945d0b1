package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"radsim/internal/logging"
)

// Renderer formats final answers as terminal markdown.
type Renderer struct {
	renderer *glamour.TermRenderer
}

// NewRenderer creates a markdown renderer wrapping at width columns. A zero
// width disables wrapping.
func NewRenderer(width int) *Renderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logging.Warn("markdown renderer unavailable", "error", err)
		return &Renderer{}
	}
	return &Renderer{renderer: renderer}
}

// Render returns markdown rendered for the terminal, or the input unchanged
// when rendering fails.
func (r *Renderer) Render(markdown string) string {
	if r.renderer == nil || strings.TrimSpace(markdown) == "" {
		return markdown
	}
	out, err := r.renderer.Render(markdown)
	if err != nil {
		logging.Debug("markdown render failed", "error", err)
		return markdown
	}
	return out
}
