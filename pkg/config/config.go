// Package config provides configuration loading and model/provider mapping
// for the time-off assistant.
//
// The assistant config is a YAML file holding the model identifier, the
// system prompt, loop limits, and the seed leave balance. Model pricing and
// provider mappings are hardcoded in KnownModels and ProviderPatterns; they
// are not user-configurable.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Provider constants.
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"

	// API key environment variable names.
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvGoogleAPIKey    = "GOOGLE_GENAI_API_KEY"
	EnvOllamaHost      = "OLLAMA_HOST"

	// Model name constants.
	ModelClaudeSonnet4      = "claude-sonnet-4-5"
	ModelClaudeSonnet3      = "claude-3-7-sonnet-20250219"
	ModelClaudeSonnetLatest = ModelClaudeSonnet4
	ModelGPT4o              = "gpt-4o"
	ModelGPT5               = "gpt-5"
	ModelGemini3Pro         = "gemini-3-pro-preview"
	DefaultAssistantModel   = ModelClaudeSonnetLatest
)

// ModelInfo contains static information about a known LLM model.
type ModelInfo struct {
	Provider         string  // API provider (anthropic, openai, google, ollama)
	InputCPM         float64 // Cost per million input tokens (USD)
	OutputCPM        float64 // Cost per million output tokens (USD)
	MaxContextTokens int     // Maximum context window size in tokens
	MaxOutputTokens  int     // Maximum output tokens per request
}

// KnownModels registry contains pricing and provider information for common
// models. Unknown models are inferred via ProviderPatterns.
//
//nolint:gochecknoglobals // static model registry
var KnownModels = map[string]ModelInfo{
	ModelClaudeSonnet4: {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	ModelClaudeSonnet3: {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	ModelGPT4o: {
		Provider:         ProviderOpenAI,
		InputCPM:         2.5,
		OutputCPM:        10.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
	},
	ModelGPT5: {
		Provider:         ProviderOpenAI,
		InputCPM:         1.25,
		OutputCPM:        10.0,
		MaxContextTokens: 272000,
		MaxOutputTokens:  128000,
	},
	ModelGemini3Pro: {
		Provider:         ProviderGoogle,
		InputCPM:         2.0,
		OutputCPM:        12.0,
		MaxContextTokens: 1000000,
		MaxOutputTokens:  64000,
	},
}

// ProviderPattern maps a model name prefix to a provider.
type ProviderPattern struct {
	Prefix   string
	Provider string
}

// ProviderPatterns defines rules for inferring providers from unknown model names.
//
//nolint:gochecknoglobals // static inference rules
var ProviderPatterns = []ProviderPattern{
	{"claude", ProviderAnthropic},
	{"gpt", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"gemini", ProviderGoogle},
	{"phi", ProviderOllama},
	{"llama", ProviderOllama},
	{"qwen", ProviderOllama},
	{"mistral", ProviderOllama},
	{"deepseek", ProviderOllama},
	{"ollama:", ProviderOllama},
}

// GetModelProvider returns the API provider for a given model.
// First checks KnownModels, then tries pattern matching.
func GetModelProvider(modelName string) (string, error) {
	if info, exists := KnownModels[modelName]; exists {
		return info.Provider, nil
	}

	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			return ProviderPatterns[i].Provider, nil
		}
	}

	return "", fmt.Errorf("unknown model '%s': no known provider mapping or pattern match", modelName)
}

// GetModelInfo returns the ModelInfo for a model name. Unknown models get
// conservative defaults with an inferred provider and found=false.
func GetModelInfo(modelName string) (ModelInfo, bool) {
	if info, exists := KnownModels[modelName]; exists {
		return info, true
	}

	provider := ""
	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			provider = ProviderPatterns[i].Provider
			break
		}
	}

	return ModelInfo{
		Provider:         provider,
		MaxContextTokens: 32000,
		MaxOutputTokens:  4096,
	}, false
}

// BalanceSeed is the employee leave balance the store is seeded with at startup.
type BalanceSeed struct {
	TotalDays int `yaml:"total_days"`
	UsedDays  int `yaml:"used_days"`
}

// RetryConfig controls LLM retry middleware behavior.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// EventLogConfig controls the JSONL conversation event log.
type EventLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// MetricsConfig controls Prometheus exposure and the optional cost query.
type MetricsConfig struct {
	ListenAddr    string `yaml:"listen_addr"`    // e.g. ":9090"; empty disables the endpoint
	PrometheusURL string `yaml:"prometheus_url"` // external Prometheus for session cost summary
}

// Config is the assistant configuration loaded from YAML.
type Config struct {
	Model         string          `yaml:"model"`
	SystemPrompt  string          `yaml:"system_prompt"`
	MaxIterations int             `yaml:"max_iterations"`
	MaxTokens     int             `yaml:"max_tokens"`
	Temperature   float32         `yaml:"temperature"`
	Balance       BalanceSeed     `yaml:"balance"`
	Retry         RetryConfig     `yaml:"retry"`
	EventLog      EventLogConfig  `yaml:"eventlog"`
	Metrics       MetricsConfig   `yaml:"metrics"`
}

// DefaultSystemPrompt is used when the config file does not set one.
const DefaultSystemPrompt = `You are an HR assistant that helps employees manage their time off.
You can check leave balances and submit time off requests.
Time off requests require explicit confirmation from the employee before
they are submitted: first propose the request, relay the confirmation
message, and only call the resolve tool after the employee has clearly
confirmed or declined.`

// Default seed values for the leave balance.
const (
	DefaultTotalDays = 25
	DefaultUsedDays  = 10
)

// Default returns a config with working defaults for every field.
func Default() Config {
	return Config{
		Model:         DefaultAssistantModel,
		SystemPrompt:  DefaultSystemPrompt,
		MaxIterations: 10,
		MaxTokens:     2048,
		Temperature:   0.3,
		Balance: BalanceSeed{
			TotalDays: DefaultTotalDays,
			UsedDays:  DefaultUsedDays,
		},
		Retry: RetryConfig{MaxAttempts: 4},
		EventLog: EventLogConfig{
			Enabled: false,
			Dir:     "logs",
		},
	}
}

// Load reads the YAML config at path, layered over Default(). A missing file
// is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks config invariants that would otherwise fail deep inside a session.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if _, err := GetModelProvider(c.Model); err != nil {
		return err
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Balance.TotalDays < 0 || c.Balance.UsedDays < 0 {
		return fmt.Errorf("balance seed values must be non-negative")
	}
	if c.Balance.UsedDays > c.Balance.TotalDays {
		return fmt.Errorf("balance used_days (%d) exceeds total_days (%d)", c.Balance.UsedDays, c.Balance.TotalDays)
	}
	return nil
}

// GetAPIKey returns the credential for a provider. For Ollama this is the
// host URL rather than a key. Checks the in-memory secrets first, then the
// environment.
func GetAPIKey(provider string) (string, error) {
	var envVar string
	switch provider {
	case ProviderAnthropic:
		envVar = EnvAnthropicAPIKey
	case ProviderOpenAI:
		envVar = EnvOpenAIAPIKey
	case ProviderGoogle:
		envVar = EnvGoogleAPIKey
	case ProviderOllama:
		host := os.Getenv(EnvOllamaHost)
		if host == "" {
			host = "http://localhost:11434"
		}
		return host, nil
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}

	key, err := GetSecret(envVar)
	if err == nil && key != "" {
		return key, nil
	}

	return "", fmt.Errorf("API key not found: %s not set in secrets file or environment", envVar)
}
