// Package commands implements the REPL's slash commands.
package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"radsim/internal/agent"
	"radsim/internal/chat"
	"radsim/internal/config"
	"radsim/internal/robustness"
	"radsim/internal/router"
)

// Command represents a slash command.
type Command interface {
	Name() string
	Description() string
	Usage() string
	Execute(ctx context.Context, args []string, app AppInterface) (string, error)
}

// AppInterface defines what commands need from the application.
type AppInterface interface {
	Session() *agent.Session
	Sessions() ([]chat.SessionInfo, error)
	ClearConversation()
	Chain() []router.Candidate
	HealthState(c router.Candidate) robustness.State
	Config() *config.Config
	Budget() *agent.Budget
	Version() string
}

// Handler manages slash commands.
type Handler struct {
	commands map[string]Command
}

// NewHandler creates a new command handler with built-in commands.
func NewHandler() *Handler {
	h := &Handler{
		commands: make(map[string]Command),
	}

	h.Register(&HelpCommand{handler: h})
	h.Register(&ClearCommand{})
	h.Register(&RouteCommand{})
	h.Register(&SessionsCommand{})
	h.Register(&StatsCommand{})
	h.Register(&PermissionsCommand{})

	return h
}

// Register adds a command to the handler.
func (h *Handler) Register(cmd Command) {
	h.commands[cmd.Name()] = cmd
}

// Parse checks if input is a slash command and extracts name and args.
// Paths like /home/user/... are not commands.
func (h *Handler) Parse(input string) (string, []string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", nil, false
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil, false
	}

	name := strings.TrimPrefix(parts[0], "/")
	if _, exists := h.commands[name]; !exists {
		return "", nil, false
	}
	return name, parts[1:], true
}

// Execute runs a command by name.
func (h *Handler) Execute(ctx context.Context, name string, args []string, app AppInterface) (string, error) {
	cmd, exists := h.commands[name]
	if !exists {
		return "", fmt.Errorf("unknown command: /%s", name)
	}
	return cmd.Execute(ctx, args, app)
}

// ListCommands returns all registered commands sorted by name.
func (h *Handler) ListCommands() []Command {
	cmds := make([]Command, 0, len(h.commands))
	for _, cmd := range h.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
	return cmds
}

// GetCommand returns a command by name.
func (h *Handler) GetCommand(name string) (Command, bool) {
	cmd, exists := h.commands[name]
	return cmd, exists
}
