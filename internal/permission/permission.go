// Package permission decides whether a destructive tool call may run
// unattended, must be confirmed, or is refused outright.
package permission

import "fmt"

// Level represents the permission level for a tool.
type Level string

const (
	// LevelAllow allows the tool to execute without asking.
	LevelAllow Level = "allow"
	// LevelAsk asks for confirmation before executing.
	LevelAsk Level = "ask"
	// LevelDeny denies execution of the tool.
	LevelDeny Level = "deny"
)

// RiskLevel indicates how much a tool can change outside the conversation.
type RiskLevel int

const (
	// RiskLow for read-only tools (read, glob, grep, list).
	RiskLow RiskLevel = iota
	// RiskMedium for tools that are neither read-only nor destructive.
	RiskMedium
	// RiskHigh for destructive tools (write, delete, shell).
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Decision is a remembered answer to a confirmation.
type Decision int

const (
	DecisionNone Decision = iota
	// DecisionAllowSession allows this tool and target for the session.
	DecisionAllowSession
	// DecisionDenySession denies this tool and target for the session.
	DecisionDenySession
)

// Describe returns a human-readable summary of what a call will do.
func Describe(toolName string, args map[string]any) string {
	switch toolName {
	case "write_file":
		if path, ok := args["path"].(string); ok {
			return fmt.Sprintf("Write to file: %s", path)
		}
		return "Write to file"

	case "delete_file":
		if path, ok := args["path"].(string); ok {
			return fmt.Sprintf("Delete: %s", path)
		}
		return "Delete file"

	case "run_shell":
		if cmd, ok := args["command"].(string); ok {
			if len(cmd) > 150 {
				cmd = cmd[:147] + "..."
			}
			return fmt.Sprintf("Execute command: %s", cmd)
		}
		return "Execute shell command"

	default:
		return fmt.Sprintf("Execute tool: %s", toolName)
	}
}
