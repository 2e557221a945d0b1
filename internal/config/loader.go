package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"radsim/internal/fileutil"
)

// Load builds the configuration from defaults, the config file and the
// environment, in that order. An empty path means the default location.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = Path()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	loadFromEnv(cfg)
	return cfg, nil
}

// Path returns the default config file location.
func Path() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "radsim", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "radsim", "config.yaml")
}

// DataDir returns the directory for sessions, audit logs and the log file.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "radsim")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "radsim")
	}
	return filepath.Join(home, ".local", "share", "radsim")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.Providers.Claude.APIKey = key
	}

	// GEMINI_API_KEY wins over GOOGLE_API_KEY.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Providers.Gemini.APIKey = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		cfg.Providers.Gemini.APIKey = key
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		cfg.Providers.Ollama.BaseURL = host
	}

	if provider := os.Getenv("RADSIM_PROVIDER"); provider != "" {
		cfg.Router.Primary.Provider = provider
		if model, ok := DefaultModels[provider]; ok {
			cfg.Router.Primary.Model = model
		}
	}
	if model := os.Getenv("RADSIM_MODEL"); model != "" {
		cfg.Router.Primary.Model = model
	}
	if level := os.Getenv("RADSIM_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// ConfigError is a configuration validation failure.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrMissingAuth     ConfigError = "missing authentication: set ANTHROPIC_API_KEY or GEMINI_API_KEY, or configure an ollama provider"
	ErrMissingPrimary  ConfigError = "router.primary must name a provider and a model"
	ErrInvalidStrategy ConfigError = "router.strategy must be \"cost\" or \"ordered\""
)

// Validate checks the configuration for values the runtime cannot work with.
func (c *Config) Validate() error {
	if c.Router.Primary.Provider == "" || c.Router.Primary.Model == "" {
		return ErrMissingPrimary
	}
	switch c.Router.Strategy {
	case StrategyCost, StrategyOrdered:
	default:
		return ErrInvalidStrategy
	}

	usable := 0
	for _, ref := range c.Router.Chain() {
		if !IsKnownProvider(ref.Provider) {
			return ConfigError(fmt.Sprintf("unknown provider %q in router chain", ref.Provider))
		}
		if ref.Model == "" {
			return ConfigError(fmt.Sprintf("router entry for %s has no model", ref.Provider))
		}
		if c.HasCredentials(ref.Provider) {
			usable++
		}
	}
	if usable == 0 {
		return ErrMissingAuth
	}

	for tool, rule := range c.Tools.Rules {
		switch rule {
		case "allow", "ask", "deny":
		default:
			return ConfigError(fmt.Sprintf("tools.rules.%s: unknown rule %q", tool, rule))
		}
	}

	if c.Agent.MaxIterations <= 0 {
		return ConfigError("agent.max_iterations must be positive")
	}
	if c.Agent.MaxSessionInputTokens < 0 || c.Agent.MaxSessionOutputTokens < 0 {
		return ConfigError("agent session token budgets must be 0 (unlimited) or positive")
	}
	return nil
}

// IsKnownProvider reports whether an adapter exists for name.
func IsKnownProvider(name string) bool {
	switch name {
	case ProviderClaude, ProviderGemini, ProviderOllama:
		return true
	}
	return false
}

// HasCredentials reports whether provider is configured well enough to be called.
func (c *Config) HasCredentials(provider string) bool {
	switch provider {
	case ProviderClaude:
		return c.Providers.Claude.APIKey != ""
	case ProviderGemini:
		return c.Providers.Gemini.APIKey != ""
	case ProviderOllama:
		return c.Providers.Ollama.BaseURL != ""
	}
	return false
}

// Save writes the configuration to path, or the default location when path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold API keys.
	if err := fileutil.AtomicWrite(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
