// Package ui renders the line-oriented terminal interface: streamed text,
// tool activity, confirmation prompts and markdown answers.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors for the UI theme.
var (
	ColorPrimary   = lipgloss.Color("#A78BFA") // Lavender 400
	ColorSecondary = lipgloss.Color("#22D3EE") // Cyan 400
	ColorSuccess   = lipgloss.Color("#059669") // Emerald 600
	ColorWarning   = lipgloss.Color("#D97706") // Amber 600
	ColorError     = lipgloss.Color("#DC2626") // Red 600
	ColorMuted     = lipgloss.Color("#9CA3AF") // Gray 400
	ColorDim       = lipgloss.Color("#6B7280") // Gray 500
	ColorRunning   = lipgloss.Color("#60A5FA") // Blue 400
	ColorInfo      = lipgloss.Color("#2DD4BF") // Teal 400

	ColorDiffAdd    = lipgloss.Color("#10B981")
	ColorDiffRemove = lipgloss.Color("#EF4444")
)

// MessageIcons provides consistent icons for different message types.
var MessageIcons = map[string]string{
	"success": "✓",
	"error":   "✗",
	"warning": "⚠",
	"info":    "ℹ",
	"active":  "●",
}

// ToolIcons maps builtin tool names to icons.
var ToolIcons = map[string]string{
	"read_file":      "📄",
	"write_file":     "✨",
	"delete_file":    "🗑",
	"run_shell":      "💻",
	"glob_files":     "📁",
	"grep_files":     "🔍",
	"list_directory": "📂",
	"default":        "⚙️",
}

// GetToolIcon returns the icon for a given tool name.
func GetToolIcon(toolName string) string {
	normalized := strings.ToLower(strings.ReplaceAll(toolName, "-", "_"))
	if icon, ok := ToolIcons[normalized]; ok {
		return icon
	}
	return ToolIcons["default"]
}

// Styles contains all UI styles.
type Styles struct {
	Prompt    lipgloss.Style
	ToolCall  lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style

	ConfirmBox   lipgloss.Style
	ConfirmTitle lipgloss.Style

	DiffAdd    lipgloss.Style
	DiffRemove lipgloss.Style
	DiffHeader lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() *Styles {
	return &Styles{
		Prompt:    lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
		ToolCall:  lipgloss.NewStyle().Foreground(ColorRunning),
		Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
		Error:     lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
		Dim:       lipgloss.NewStyle().Foreground(ColorDim),
		Highlight: lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true),

		ConfirmBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorWarning).
			Padding(0, 1),
		ConfirmTitle: lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),

		DiffAdd:    lipgloss.NewStyle().Foreground(ColorDiffAdd).Bold(true),
		DiffRemove: lipgloss.NewStyle().Foreground(ColorDiffRemove).Bold(true),
		DiffHeader: lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true),
	}
}

// HighlightDiff colors a unified-style diff line by line.
func (s *Styles) HighlightDiff(diff string) string {
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	var result strings.Builder
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			result.WriteString(s.DiffHeader.Render(line))
		case strings.HasPrefix(line, "+"):
			result.WriteString(s.DiffAdd.Render(line))
		case strings.HasPrefix(line, "-"):
			result.WriteString(s.DiffRemove.Render(line))
		default:
			result.WriteString(s.Dim.Render(line))
		}
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
