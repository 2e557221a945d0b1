package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"radsim/internal/agent"
	"radsim/internal/permission"
	"radsim/internal/robustness"
	"radsim/internal/router"
)

// HelpCommand shows help for commands.
type HelpCommand struct {
	handler *Handler
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Show help for commands" }
func (c *HelpCommand) Usage() string       { return "/help [command]" }

func (c *HelpCommand) Execute(ctx context.Context, args []string, app AppInterface) (string, error) {
	if len(args) > 0 {
		cmd, exists := c.handler.GetCommand(strings.TrimPrefix(args[0], "/"))
		if !exists {
			return fmt.Sprintf("Unknown command: /%s\nUse /help to see all commands.", args[0]), nil
		}
		return fmt.Sprintf("/%s - %s\n\nUsage: %s", cmd.Name(), cmd.Description(), cmd.Usage()), nil
	}

	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, cmd := range c.handler.ListCommands() {
		fmt.Fprintf(&sb, "  %-14s %s\n", "/"+cmd.Name(), cmd.Description())
	}
	sb.WriteString("\nPress Ctrl+C to cancel a running turn, Ctrl+D to exit.")
	return sb.String(), nil
}

// ClearCommand starts a new conversation.
type ClearCommand struct{}

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Description() string { return "Start a new conversation" }
func (c *ClearCommand) Usage() string       { return "/clear" }

func (c *ClearCommand) Execute(ctx context.Context, args []string, app AppInterface) (string, error) {
	app.ClearConversation()
	return fmt.Sprintf("Started new session %s", app.Session().ID()), nil
}

// RouteCommand prints the failover chain for the current conversation.
type RouteCommand struct{}

func (c *RouteCommand) Name() string        { return "route" }
func (c *RouteCommand) Description() string { return "Show the provider failover chain" }
func (c *RouteCommand) Usage() string       { return "/route" }

func (c *RouteCommand) Execute(ctx context.Context, args []string, app AppInterface) (string, error) {
	chain := app.Chain()
	if len(chain) == 0 {
		return "No usable providers are configured.", nil
	}

	lines := router.Describe(chain)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Strategy: %s\n", app.Config().Router.Strategy)
	for i, line := range lines {
		sb.WriteString("  " + line)
		if state := app.HealthState(chain[i]); state != robustness.StateClosed {
			fmt.Fprintf(&sb, " [%s]", state)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// SessionsCommand lists saved sessions.
type SessionsCommand struct{}

func (c *SessionsCommand) Name() string        { return "sessions" }
func (c *SessionsCommand) Description() string { return "List saved sessions" }
func (c *SessionsCommand) Usage() string       { return "/sessions" }

func (c *SessionsCommand) Execute(ctx context.Context, args []string, app AppInterface) (string, error) {
	sessions, err := app.Sessions()
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "No saved sessions.", nil
	}

	current := app.Session().ID()
	var sb strings.Builder
	for _, s := range sessions {
		marker := " "
		if s.ID == current {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %s  %s\n", marker, s.ID, s.LastActive.Format("2006-01-02 15:04"))
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// StatsCommand shows session statistics.
type StatsCommand struct{}

func (c *StatsCommand) Name() string        { return "stats" }
func (c *StatsCommand) Description() string { return "Show session statistics" }
func (c *StatsCommand) Usage() string       { return "/stats" }

func (c *StatsCommand) Execute(ctx context.Context, args []string, app AppInterface) (string, error) {
	budget := app.Budget()
	usage := budget.Used()
	session := app.Session()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session:  %s\n", session.ID())
	fmt.Fprintf(&sb, "Turns:    %d\n", session.Len())
	fmt.Fprintf(&sb, "Tokens:   %d in, %d out\n", usage.InputTokens, usage.OutputTokens)
	fmt.Fprintf(&sb, "Budget:   %s\n", formatBudget(budget))
	fmt.Fprintf(&sb, "Version:  %s", app.Version())
	return sb.String(), nil
}

func formatBudget(b *agent.Budget) string {
	maxIn, maxOut := b.Limits()
	pctIn, pctOut := b.Percent()
	side := func(limit int, pct float64, label string) string {
		if limit <= 0 {
			return "unlimited " + label
		}
		return fmt.Sprintf("%.0f%% of %d %s", pct, limit, label)
	}
	return side(maxIn, pctIn, "in") + ", " + side(maxOut, pctOut, "out")
}

// PermissionsCommand lists the configured tool rules.
type PermissionsCommand struct{}

func (c *PermissionsCommand) Name() string        { return "permissions" }
func (c *PermissionsCommand) Description() string { return "Show tool permission rules" }
func (c *PermissionsCommand) Usage() string       { return "/permissions" }

func (c *PermissionsCommand) Execute(ctx context.Context, args []string, app AppInterface) (string, error) {
	cfg := app.Config()
	rules := permission.NewRulesFromConfig(cfg.Tools.Rules)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Default for destructive tools: %s\n", rules.DefaultPolicy)
	if cfg.Tools.AutoConfirm {
		sb.WriteString("Auto-confirm is on: prompts are approved automatically.\n")
	}

	names := make([]string, 0, len(rules.ToolPolicies))
	for name := range rules.ToolPolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "  %-14s %s\n", name, rules.ToolPolicies[name])
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
