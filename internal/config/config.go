package config

import "time"

// Config holds all application configuration.
type Config struct {
	Providers ProvidersConfig `yaml:"providers"`
	Router    RouterConfig    `yaml:"router"`
	Tools     ToolsConfig     `yaml:"tools"`
	Agent     AgentConfig     `yaml:"agent"`
	Session   SessionConfig   `yaml:"session"`
	Audit     AuditConfig     `yaml:"audit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ProvidersConfig holds credentials and endpoints per provider.
type ProvidersConfig struct {
	Claude      ProviderConfig `yaml:"claude"`
	Gemini      ProviderConfig `yaml:"gemini"`
	Ollama      ProviderConfig `yaml:"ollama"`
	HTTPTimeout time.Duration  `yaml:"http_timeout"`
}

// ProviderConfig is one provider's connection settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// ModelRef names a (provider, model) pair.
type ModelRef struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

func (m ModelRef) String() string {
	return m.Provider + "/" + m.Model
}

// Price is USD per 1M tokens.
type Price struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// RouterConfig configures candidate ordering and failover.
type RouterConfig struct {
	Primary   ModelRef   `yaml:"primary"`
	Fallbacks []ModelRef `yaml:"fallbacks"`

	// Strategy is "cost" (fallbacks by ascending estimated cost) or "ordered".
	Strategy             string           `yaml:"strategy"`
	ExpectedOutputTokens int              `yaml:"expected_output_tokens"`
	Pricing              map[string]Price `yaml:"pricing"`
	Health               HealthConfig     `yaml:"health"`

	// RateLimit is requests per minute per provider. Zero or absent means unlimited.
	RateLimit map[string]int `yaml:"rate_limit,omitempty"`
}

// HealthConfig controls when a failing (provider, model) pair is skipped.
type HealthConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

// ToolsConfig holds tool execution settings.
type ToolsConfig struct {
	WorkDir        string            `yaml:"work_dir,omitempty"`
	Timeout        time.Duration     `yaml:"timeout"`
	ShellTimeout   time.Duration     `yaml:"shell_timeout"`
	MaxResultChars int               `yaml:"max_result_chars"`
	AutoConfirm    bool              `yaml:"auto_confirm"`
	Rules          map[string]string `yaml:"rules,omitempty"` // tool name -> allow|ask|deny
}

// AgentConfig holds agent loop settings.
type AgentConfig struct {
	SystemPrompt           string  `yaml:"system_prompt"`
	MaxIterations          int     `yaml:"max_iterations"`
	MaxConsecutiveFailures int     `yaml:"max_consecutive_failures"`
	MaxTokens              int     `yaml:"max_tokens"`
	Temperature            float32 `yaml:"temperature"`

	// Session token budget; 0 means unlimited.
	MaxSessionInputTokens  int `yaml:"max_session_input_tokens"`
	MaxSessionOutputTokens int `yaml:"max_session_output_tokens"`
}

// SessionConfig holds conversation persistence settings.
type SessionConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir,omitempty"`
}

// AuditConfig holds tool audit log settings.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Chain returns the primary followed by the configured fallbacks, in file order.
func (r RouterConfig) Chain() []ModelRef {
	refs := make([]ModelRef, 0, len(r.Fallbacks)+1)
	refs = append(refs, r.Primary)
	return append(refs, r.Fallbacks...)
}
