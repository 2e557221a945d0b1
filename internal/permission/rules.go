package permission

// Rules holds the per-tool policies for destructive tools.
type Rules struct {
	DefaultPolicy Level            // Policy for destructive tools without an entry
	ToolPolicies  map[string]Level // Per-tool policies
}

// DefaultRules asks before every destructive tool.
func DefaultRules() *Rules {
	return &Rules{
		DefaultPolicy: LevelAsk,
		ToolPolicies:  make(map[string]Level),
	}
}

// GetPolicy returns the permission level for a tool.
func (r *Rules) GetPolicy(toolName string) Level {
	if policy, ok := r.ToolPolicies[toolName]; ok {
		return policy
	}
	return r.DefaultPolicy
}

// SetPolicy sets the permission level for a tool.
func (r *Rules) SetPolicy(toolName string, level Level) {
	r.ToolPolicies[toolName] = level
}

// NewRulesFromConfig creates rules from a config map of tool name to
// allow, ask or deny.
func NewRulesFromConfig(toolPolicies map[string]string) *Rules {
	rules := DefaultRules()
	for tool, policy := range toolPolicies {
		rules.ToolPolicies[tool] = ParseLevel(policy)
	}
	return rules
}

// ParseLevel converts a string to a Level. Unknown values mean ask.
func ParseLevel(s string) Level {
	switch s {
	case "allow":
		return LevelAllow
	case "deny":
		return LevelDeny
	default:
		return LevelAsk
	}
}
