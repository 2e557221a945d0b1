package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"radsim/internal/permission"
	"radsim/internal/tools"
)

// Confirmer asks on the terminal before a destructive tool runs.
// "always" is remembered for the rest of the session.
type Confirmer struct {
	in     *Input
	out    io.Writer
	perms  *permission.Manager
	styles *Styles
	mu     sync.Mutex
}

var _ tools.Confirmer = (*Confirmer)(nil)

// NewConfirmer creates a terminal confirmer. perms may be nil, in which
// case "always" approves only the current call.
func NewConfirmer(in *Input, out io.Writer, perms *permission.Manager, styles *Styles) *Confirmer {
	if styles == nil {
		styles = DefaultStyles()
	}
	return &Confirmer{in: in, out: out, perms: perms, styles: styles}
}

// Confirm implements tools.Confirmer. Prompts are serialized. A cancelled
// context abandons the prompt and counts as a refusal.
func (c *Confirmer) Confirm(ctx context.Context, conf tools.Confirmation) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var body strings.Builder
	body.WriteString(c.styles.ConfirmTitle.Render(MessageIcons["warning"] + " " + conf.Tool))
	body.WriteString("\n")
	body.WriteString(conf.Description)
	if conf.Diff != "" {
		body.WriteString("\n\n")
		body.WriteString(c.styles.HighlightDiff(conf.Diff))
	}
	fmt.Fprintln(c.out, c.styles.ConfirmBox.Render(body.String()))

	for {
		fmt.Fprint(c.out, c.styles.Prompt.Render("Allow? [y]es / [n]o / [a]lways: "))
		line, err := c.in.ReadLine(ctx)
		if err != nil {
			fmt.Fprintln(c.out)
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		case "a", "always":
			if c.perms != nil {
				c.perms.Remember(conf.Tool, conf.Args, permission.DecisionAllowSession)
			}
			return true, nil
		}
	}
}
