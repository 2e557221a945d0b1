// Package audit keeps an append-only record of tool executions and provider
// routing decisions per session.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes audit records.
type Kind string

const (
	KindTool  Kind = "tool"
	KindRoute Kind = "route"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	SessionID  string         `json:"session_id"`
	Kind       Kind           `json:"kind"`
	ToolName   string         `json:"tool_name,omitempty"`
	CallID     string         `json:"call_id,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	Result     string         `json:"result,omitempty"` // truncated
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	Provider   string         `json:"provider,omitempty"`
	Model      string         `json:"model,omitempty"`
	Tokens     int            `json:"tokens,omitempty"`
}

// NewToolEntry creates an entry for one tool call.
func NewToolEntry(sessionID, toolName, callID string, args map[string]any) *Entry {
	return &Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		SessionID: sessionID,
		Kind:      KindTool,
		ToolName:  toolName,
		CallID:    callID,
		Args:      args,
	}
}

// NewRouteEntry creates an entry for one provider round.
func NewRouteEntry(sessionID, provider, model string) *Entry {
	return &Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		SessionID: sessionID,
		Kind:      KindRoute,
		Provider:  provider,
		Model:     model,
	}
}

// Complete fills in the result fields after execution.
func (e *Entry) Complete(result string, success bool, errMsg string, duration time.Duration) *Entry {
	e.Result = result
	e.Success = success
	e.Error = errMsg
	e.DurationMs = duration.Milliseconds()
	return e
}

// QueryFilter defines criteria for querying audit entries.
type QueryFilter struct {
	Kind     Kind
	ToolName string
	Success  *bool
	Since    time.Time
	Limit    int
}

// Matches checks if the entry matches the filter criteria.
func (e *Entry) Matches(filter QueryFilter) bool {
	if filter.Kind != "" && e.Kind != filter.Kind {
		return false
	}
	if filter.ToolName != "" && e.ToolName != filter.ToolName {
		return false
	}
	if filter.Success != nil && e.Success != *filter.Success {
		return false
	}
	if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
		return false
	}
	return true
}

var sensitiveKeys = map[string]bool{
	"password":    true,
	"secret":      true,
	"token":       true,
	"api_key":     true,
	"apikey":      true,
	"credentials": true,
	"auth":        true,
}

// SanitizeArgs creates a copy of args with sensitive keys redacted.
func SanitizeArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	sanitized := make(map[string]any, len(args))
	for k, v := range args {
		if sensitiveKeys[k] {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}

// TruncateResult truncates a result string to the specified maximum length.
func TruncateResult(result string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 1000
	}
	if len(result) <= maxLen {
		return result
	}
	return result[:maxLen] + "...[truncated]"
}
