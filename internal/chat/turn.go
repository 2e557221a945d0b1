// Package chat holds the conversation model shared by the agent loop, the
// router and the provider adapters.
package chat

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to run a named tool.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult answers exactly one ToolCall, matched by CallID.
type ToolResult struct {
	CallID     string `json:"call_id"`
	Name       string `json:"name"`
	Success    bool   `json:"success"`
	Content    string `json:"content,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Text returns the content sent back to the model for this result.
func (r ToolResult) Text() string {
	if r.Success {
		return r.Content
	}
	if r.Content != "" {
		return "Error: " + r.Error + "\n" + r.Content
	}
	return "Error: " + r.Error
}

// Turn is one entry of a conversation: a user message, an assistant message
// (possibly requesting tools), or the set of results for those requests.
type Turn struct {
	Role      Role         `json:"role"`
	Text      string       `json:"text,omitempty"`
	ToolCalls []ToolCall   `json:"tool_calls,omitempty"`
	Results   []ToolResult `json:"results,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewUserTurn returns a user turn.
func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text, Timestamp: time.Now()}
}

// NewAssistantTurn returns an assistant turn. calls may be empty.
func NewAssistantTurn(text string, calls []ToolCall) Turn {
	return Turn{Role: RoleAssistant, Text: text, ToolCalls: calls, Timestamp: time.Now()}
}

// NewToolResultTurn returns the turn carrying results for one batch of calls.
func NewToolResultTurn(results []ToolResult) Turn {
	return Turn{Role: RoleTool, Results: results, Timestamp: time.Now()}
}

// Clone returns a deep copy, including tool argument maps.
func (t Turn) Clone() Turn {
	out := t
	if t.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(t.ToolCalls))
		for i, c := range t.ToolCalls {
			out.ToolCalls[i] = c.Clone()
		}
	}
	if t.Results != nil {
		out.Results = append([]ToolResult(nil), t.Results...)
	}
	return out
}

// Clone returns a deep copy of the call.
func (c ToolCall) Clone() ToolCall {
	out := c
	if c.Args != nil {
		out.Args = CloneArgs(c.Args)
	}
	return out
}

// CloneArgs deep-copies a decoded JSON object.
func CloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneArgs(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = cloneValue(item)
		}
		return cp
	default:
		return val
	}
}

// CloneTurns deep-copies a turn slice.
func CloneTurns(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	out := make([]Turn, len(turns))
	for i, t := range turns {
		out[i] = t.Clone()
	}
	return out
}
