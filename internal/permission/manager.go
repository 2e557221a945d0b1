package permission

import (
	"crypto/sha256"
	"fmt"
	"sync"
)

// DefaultMaxCacheEntries bounds the number of remembered session decisions.
const DefaultMaxCacheEntries = 1000

// Manager combines configured rules with decisions remembered for the
// current session.
type Manager struct {
	rules *Rules

	sessionCache    map[string]Decision
	maxCacheEntries int

	mu sync.RWMutex
}

// NewManager creates a permission manager. Nil rules mean DefaultRules.
func NewManager(rules *Rules) *Manager {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Manager{
		rules:           rules,
		sessionCache:    make(map[string]Decision),
		maxCacheEntries: DefaultMaxCacheEntries,
	}
}

// cacheKey scopes a remembered decision to the target of the call, so
// allowing one command does not allow every command.
func cacheKey(toolName string, args map[string]any) string {
	switch toolName {
	case "run_shell":
		if cmd, ok := args["command"].(string); ok {
			hash := sha256.Sum256([]byte(cmd))
			return fmt.Sprintf("%s:%x", toolName, hash[:8])
		}
	case "write_file", "delete_file":
		if path, ok := args["path"].(string); ok {
			return fmt.Sprintf("%s:%s", toolName, path)
		}
	}
	return toolName
}

// Check returns the effective level for a call. Read-only tools are always
// allowed. A configured deny wins over any remembered decision. Medium-risk
// tools run unattended unless a rule or session decision says otherwise;
// destructive tools fall back to the default policy.
func (m *Manager) Check(toolName string, args map[string]any, risk RiskLevel) Level {
	if risk == RiskLow {
		return LevelAllow
	}

	m.mu.RLock()
	policy, configured := m.rules.ToolPolicies[toolName]
	if !configured {
		policy = m.rules.DefaultPolicy
	}
	decision := m.sessionCache[cacheKey(toolName, args)]
	m.mu.RUnlock()

	if policy == LevelDeny && (configured || risk == RiskHigh) {
		return LevelDeny
	}
	switch decision {
	case DecisionAllowSession:
		return LevelAllow
	case DecisionDenySession:
		return LevelDeny
	}
	if risk == RiskMedium && !configured {
		return LevelAllow
	}
	return policy
}

// Remember stores a session-level decision for a call.
func (m *Manager) Remember(toolName string, args map[string]any, decision Decision) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessionCache) >= m.maxCacheEntries {
		evict := m.maxCacheEntries / 2
		for k := range m.sessionCache {
			if evict == 0 {
				break
			}
			delete(m.sessionCache, k)
			evict--
		}
	}
	m.sessionCache[cacheKey(toolName, args)] = decision
}

// ClearSession forgets all session-level decisions.
func (m *Manager) ClearSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionCache = make(map[string]Decision)
}

// Rules returns the configured rules.
func (m *Manager) Rules() *Rules {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules
}
