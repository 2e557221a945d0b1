// Package tools holds the tool registry, the confirmation gate for
// destructive tools, and the builtin file and shell tools.
package tools

import (
	"context"
	"time"

	"radsim/internal/permission"
	"radsim/internal/provider"
)

// Handler runs a tool with already-validated arguments and returns the text
// sent back to the model.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// PreviewFunc describes the effect a destructive call would have, such as a
// diff of a pending write. It must not change anything.
type PreviewFunc func(ctx context.Context, args map[string]any) (string, error)

// Definition describes one tool.
type Definition struct {
	Name        string
	Description string

	// Schema is a JSON schema object with type, properties, required and
	// optionally additionalProperties.
	Schema map[string]any

	// ReadOnly tools only observe. They skip the permission policy and may
	// run concurrently with other read-only calls.
	ReadOnly bool

	// Destructive tools change state outside the conversation and must pass
	// the confirmation gate before Handler runs.
	Destructive bool

	// Timeout overrides the registry default when positive.
	Timeout time.Duration

	Handler Handler
	Preview PreviewFunc
}

// Risk maps the definition's flags onto a permission risk level.
func (d Definition) Risk() permission.RiskLevel {
	switch {
	case d.Destructive:
		return permission.RiskHigh
	case d.ReadOnly:
		return permission.RiskLow
	default:
		return permission.RiskMedium
	}
}

// Spec returns the provider-facing form of the definition.
func (d Definition) Spec() provider.ToolSpec {
	return provider.ToolSpec{
		Name:        d.Name,
		Description: d.Description,
		Schema:      d.Schema,
	}
}

// Object builds an object schema from properties and required names.
func Object(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Prop builds a property schema of the given JSON type.
func Prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

// GetString extracts a string argument from the args map.
func GetString(args map[string]any, key string) (string, bool) {
	val, ok := args[key]
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetStringDefault extracts a string argument with a default value.
func GetStringDefault(args map[string]any, key, defaultVal string) string {
	if val, ok := GetString(args, key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetInt extracts an integer argument. JSON numbers arrive as float64.
func GetInt(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// GetIntDefault extracts an integer argument with a default value.
func GetIntDefault(args map[string]any, key string, defaultVal int) int {
	if val, ok := GetInt(args, key); ok {
		return val
	}
	return defaultVal
}

// GetBoolDefault extracts a boolean argument with a default value.
func GetBoolDefault(args map[string]any, key string, defaultVal bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultVal
}
