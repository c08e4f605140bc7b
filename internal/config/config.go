package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/apivet/apivet/internal/llm"
)

// LLMConfig controls the optional hypothesis engine.
type LLMConfig struct {
	// Enable hypothesis generation (requires an API key)
	Enabled bool `mapstructure:"enabled"`

	// OpenAI-compatible chat completions endpoint
	BaseURL string `mapstructure:"base_url"`

	// Model identifier passed to the provider
	Model string `mapstructure:"model"`

	// API key (from config or APIVET_LLM_API_KEY / OPENROUTER_API_KEY)
	APIKey string `mapstructure:"api_key"`

	// Endpoints per request batch
	BatchSize int `mapstructure:"batch_size"`

	// Per-batch completion timeout
	Timeout time.Duration `mapstructure:"timeout"`

	// Sampling temperature
	Temperature float64 `mapstructure:"temperature"`
}

// Config holds all configuration for apivet.
type Config struct {
	// Output format (text, json, sarif, both)
	Format string `mapstructure:"format"`

	// Verbose output
	Verbose bool `mapstructure:"verbose"`

	// Debug mode
	Debug bool `mapstructure:"debug"`

	// Skip TLS certificate verification (lab targets only)
	Insecure bool `mapstructure:"insecure"`

	// Timeout for spec downloads and discovery probes
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`

	// Probe paths for spec discovery; empty means the built-in list
	DiscoveryPaths []string `mapstructure:"discovery_paths"`

	// Tokens that mark a path parameter as an object identifier;
	// empty means the built-in list
	IdentifierTokens []string `mapstructure:"identifier_tokens"`

	// LLM hypothesis engine settings
	LLM LLMConfig `mapstructure:"llm"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Format:       "text",
		Verbose:      false,
		Debug:        false,
		Insecure:     false,
		FetchTimeout: 10 * time.Second,
		LLM: LLMConfig{
			Enabled:     false,
			BaseURL:     llm.DefaultBaseURL,
			Model:       llm.DefaultModel,
			BatchSize:   10,
			Timeout:     llm.DefaultTimeout,
			Temperature: llm.DefaultTemperature,
		},
	}
}

// Load loads configuration with the following precedence (lowest to highest):
// 1. Default values
// 2. Config file (./apivet.yaml, ~/apivet.yaml, or XDG config dir)
// 3. Environment variables (APIVET_*)
// 4. CLI flags (handled by caller)
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile loads configuration from a specific file path.
// If path is empty, it searches for config in standard locations.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("format", defaults.Format)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("insecure", defaults.Insecure)
	v.SetDefault("fetch_timeout", defaults.FetchTimeout)
	v.SetDefault("discovery_paths", []string{})
	v.SetDefault("identifier_tokens", []string{})
	v.SetDefault("llm.enabled", defaults.LLM.Enabled)
	v.SetDefault("llm.base_url", defaults.LLM.BaseURL)
	v.SetDefault("llm.model", defaults.LLM.Model)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.batch_size", defaults.LLM.BatchSize)
	v.SetDefault("llm.timeout", defaults.LLM.Timeout)
	v.SetDefault("llm.temperature", defaults.LLM.Temperature)

	v.SetConfigName("apivet")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			v.AddConfigPath(filepath.Join(xdgConfig, "apivet"))
		}
	}

	// Nested keys map to env vars as APIVET_LLM_API_KEY etc.
	v.SetEnvPrefix("APIVET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// OPENROUTER_API_KEY is the conventional provider variable.
	_ = v.BindEnv("llm.api_key", "APIVET_LLM_API_KEY", "OPENROUTER_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validFormats := map[string]bool{
		"text":  true,
		"json":  true,
		"sarif": true,
		"both":  true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid format: %s (must be text, json, sarif, or both)", c.Format)
	}

	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout cannot be negative")
	}

	for _, p := range c.DiscoveryPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("discovery path %q must start with /", p)
		}
	}

	for _, tok := range c.IdentifierTokens {
		if strings.TrimSpace(tok) == "" {
			return fmt.Errorf("identifier_tokens must not contain empty entries")
		}
	}

	if c.LLM.BatchSize < 0 {
		return fmt.Errorf("llm.batch_size cannot be negative")
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout cannot be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.Enabled && c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url cannot be empty when llm is enabled")
	}

	return nil
}

// GenerateSampleConfig generates a sample configuration file content.
func GenerateSampleConfig() string {
	return `# apivet Configuration
# Save this file as ./apivet.yaml or ~/apivet.yaml

# Output format: text, json, sarif, or both (text + json)
format: text

# Enable verbose output
verbose: false

# Enable debug mode
debug: false

# Skip TLS certificate verification (lab targets with self-signed certs)
insecure: false

# Timeout for spec downloads and discovery probes
fetch_timeout: 10s

# Probe paths checked by the discover command, in order.
# Leave empty to use the built-in list.
# discovery_paths:
#   - /openapi.json
#   - /swagger.json

# Tokens that mark a path parameter as an object identifier.
# Leave empty to use the built-in list.
# identifier_tokens:
#   - id
#   - user
#   - sku

llm:
  # Enable LLM-assisted hypothesis generation
  enabled: false

  # OpenAI-compatible chat completions endpoint
  base_url: https://openrouter.ai/api/v1

  # Model identifier
  model: openai/gpt-oss-120b

  # API key, or set APIVET_LLM_API_KEY / OPENROUTER_API_KEY
  # api_key: sk-or-your-key-here

  # Endpoints per request batch
  batch_size: 10

  # Per-batch completion timeout
  timeout: 60s

  # Sampling temperature
  temperature: 0.2
`
}
