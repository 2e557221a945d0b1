package config

import "time"

// Default configuration values.
const (
	// Generation
	DefaultMaxTokens            = 8192
	DefaultExpectedOutputTokens = 500

	// Agent loop guards
	DefaultMaxIterations          = 50
	DefaultMaxConsecutiveFailures = 5
	DefaultMaxSessionInput        = 500_000
	DefaultMaxSessionOutput       = 100_000

	// Router health
	DefaultFailureThreshold = 1
	DefaultHealthReset      = 5 * time.Minute

	// Timeouts
	DefaultHTTPTimeout  = 120 * time.Second
	DefaultToolTimeout  = 30 * time.Second
	DefaultShellTimeout = 60 * time.Second

	// Tool output limits
	DefaultToolResultMaxChars = 30000
	DefaultMaxGlobResults     = 1000

	DefaultOllamaURL    = "http://localhost:11434"
	DefaultAnthropicURL = "https://api.anthropic.com"
)

// Provider names understood by the adapter registry.
const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Router strategies.
const (
	StrategyCost    = "cost"
	StrategyOrdered = "ordered"
)

// DefaultModels is the model used for a provider when none is configured.
var DefaultModels = map[string]string{
	ProviderClaude: "claude-sonnet-4-5",
	ProviderGemini: "gemini-3-flash",
	ProviderOllama: "llama3.1",
}

// DefaultPricing is USD per 1M tokens (input, output).
func DefaultPricing() map[string]Price {
	return map[string]Price{
		"claude-opus-4-6":   {Input: 15.00, Output: 75.00},
		"claude-sonnet-4-5": {Input: 3.00, Output: 15.00},
		"claude-haiku-4-5":  {Input: 0.80, Output: 4.00},
		"gemini-3-pro":      {Input: 1.25, Output: 5.00},
		"gemini-3-flash":    {Input: 0.10, Output: 0.40},
		"gemini-2.5-pro":    {Input: 1.25, Output: 5.00},
		"gemini-2.5-flash":  {Input: 0.075, Output: 0.30},
		"llama3.1":          {Input: 0, Output: 0},
	}
}

const defaultSystemPrompt = `You are RadSim, a coding agent working inside the user's project directory.
Use the available tools to inspect and change files. Destructive tools may be refused by the user;
when that happens, say so plainly and do not pretend the action happened.`

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Providers: ProvidersConfig{
			Claude: ProviderConfig{BaseURL: DefaultAnthropicURL},
			Ollama: ProviderConfig{BaseURL: DefaultOllamaURL},
			HTTPTimeout: DefaultHTTPTimeout,
		},
		Router: RouterConfig{
			Primary: ModelRef{Provider: ProviderClaude, Model: DefaultModels[ProviderClaude]},
			Fallbacks: []ModelRef{
				{Provider: ProviderClaude, Model: "claude-haiku-4-5"},
				{Provider: ProviderGemini, Model: "gemini-3-flash"},
				{Provider: ProviderGemini, Model: "gemini-2.5-flash"},
			},
			Strategy:             StrategyCost,
			ExpectedOutputTokens: DefaultExpectedOutputTokens,
			Pricing:              DefaultPricing(),
			Health: HealthConfig{
				FailureThreshold: DefaultFailureThreshold,
				ResetTimeout:     DefaultHealthReset,
			},
		},
		Tools: ToolsConfig{
			Timeout:        DefaultToolTimeout,
			ShellTimeout:   DefaultShellTimeout,
			MaxResultChars: DefaultToolResultMaxChars,
			Rules:          map[string]string{},
		},
		Agent: AgentConfig{
			SystemPrompt:           defaultSystemPrompt,
			MaxIterations:          DefaultMaxIterations,
			MaxConsecutiveFailures: DefaultMaxConsecutiveFailures,
			MaxTokens:              DefaultMaxTokens,
			Temperature:            0.2,
			MaxSessionInputTokens:  DefaultMaxSessionInput,
			MaxSessionOutputTokens: DefaultMaxSessionOutput,
		},
		Session: SessionConfig{Enabled: true},
		Audit:   AuditConfig{Enabled: true},
		Logging: LoggingConfig{Level: "info"},
	}
}
