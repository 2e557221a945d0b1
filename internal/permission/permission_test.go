package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckReadOnlyBypassesRules(t *testing.T) {
	m := NewManager(NewRulesFromConfig(map[string]string{"read_file": "deny"}))
	assert.Equal(t, LevelAllow, m.Check("read_file", nil, RiskLow))
}

func TestCheckDestructiveDefaultsToAsk(t *testing.T) {
	m := NewManager(nil)
	assert.Equal(t, LevelAsk, m.Check("delete_file", map[string]any{"path": "a"}, RiskHigh))
}

func TestCheckRules(t *testing.T) {
	m := NewManager(NewRulesFromConfig(map[string]string{
		"write_file":  "allow",
		"run_shell":   "deny",
		"delete_file": "bogus",
	}))
	assert.Equal(t, LevelAllow, m.Check("write_file", nil, RiskHigh))
	assert.Equal(t, LevelDeny, m.Check("run_shell", nil, RiskHigh))
	assert.Equal(t, LevelAsk, m.Check("delete_file", nil, RiskHigh))
}

func TestCheckMediumRisk(t *testing.T) {
	m := NewManager(NewRulesFromConfig(map[string]string{
		"make_dir": "deny",
		"touch":    "ask",
	}))
	assert.Equal(t, LevelAllow, m.Check("format_code", nil, RiskMedium))
	assert.Equal(t, LevelDeny, m.Check("make_dir", nil, RiskMedium))
	assert.Equal(t, LevelAsk, m.Check("touch", nil, RiskMedium))

	m.Remember("format_code", nil, DecisionDenySession)
	assert.Equal(t, LevelDeny, m.Check("format_code", nil, RiskMedium))
}

func TestCheckDefaultDenyOnlyBindsDestructive(t *testing.T) {
	m := NewManager(&Rules{DefaultPolicy: LevelDeny, ToolPolicies: map[string]Level{}})
	assert.Equal(t, LevelDeny, m.Check("delete_file", nil, RiskHigh))
	assert.Equal(t, LevelAllow, m.Check("format_code", nil, RiskMedium))
	assert.Equal(t, LevelAllow, m.Check("read_file", nil, RiskLow))
}

func TestRiskLevelString(t *testing.T) {
	assert.Equal(t, "low", RiskLow.String())
	assert.Equal(t, "high", RiskHigh.String())
}

func TestRememberIsScopedToTarget(t *testing.T) {
	m := NewManager(nil)
	m.Remember("run_shell", map[string]any{"command": "go test ./..."}, DecisionAllowSession)

	assert.Equal(t, LevelAllow, m.Check("run_shell", map[string]any{"command": "go test ./..."}, RiskHigh))
	assert.Equal(t, LevelAsk, m.Check("run_shell", map[string]any{"command": "rm -rf build"}, RiskHigh))

	m.Remember("delete_file", map[string]any{"path": "tmp.txt"}, DecisionDenySession)
	assert.Equal(t, LevelDeny, m.Check("delete_file", map[string]any{"path": "tmp.txt"}, RiskHigh))

	m.ClearSession()
	assert.Equal(t, LevelAsk, m.Check("run_shell", map[string]any{"command": "go test ./..."}, RiskHigh))
}

func TestConfiguredDenyWinsOverSession(t *testing.T) {
	m := NewManager(NewRulesFromConfig(map[string]string{"run_shell": "deny"}))
	m.Remember("run_shell", map[string]any{"command": "ls"}, DecisionAllowSession)
	assert.Equal(t, LevelDeny, m.Check("run_shell", map[string]any{"command": "ls"}, RiskHigh))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Delete: notes.txt", Describe("delete_file", map[string]any{"path": "notes.txt"}))
	assert.Equal(t, "Execute command: ls", Describe("run_shell", map[string]any{"command": "ls"}))
	assert.Equal(t, "Execute tool: custom", Describe("custom", nil))
}
