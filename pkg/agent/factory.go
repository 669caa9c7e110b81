// Package agent provides LLM client construction with middleware chain assembly.
package agent

import (
	"fmt"

	"hrassist/pkg/agent/internal/llmimpl/anthropic"
	"hrassist/pkg/agent/internal/llmimpl/google"
	"hrassist/pkg/agent/internal/llmimpl/ollama"
	"hrassist/pkg/agent/internal/llmimpl/openaiofficial"
	"hrassist/pkg/agent/llm"
	"hrassist/pkg/agent/llmerrors"
	"hrassist/pkg/agent/middleware/metrics"
	"hrassist/pkg/agent/middleware/resilience/retry"
	"hrassist/pkg/config"
	"hrassist/pkg/logx"
)

// LLMClient is re-exported so callers outside the agent tree do not need to
// import the llm package for the common case.
type LLMClient = llm.LLMClient

// ClientFactory creates LLM clients with properly configured middleware chains.
type ClientFactory struct {
	config          config.Config
	metricsRecorder metrics.Recorder
}

// NewClientFactory creates a client factory backed by the Prometheus recorder.
func NewClientFactory(cfg config.Config) *ClientFactory {
	return &ClientFactory{
		config:          cfg,
		metricsRecorder: metrics.NewPrometheusRecorder(),
	}
}

// NewClientFactoryWithRecorder creates a client factory with a custom metrics recorder.
func NewClientFactoryWithRecorder(cfg config.Config, recorder metrics.Recorder) *ClientFactory {
	return &ClientFactory{
		config:          cfg,
		metricsRecorder: recorder,
	}
}

// CreateClient creates an LLM client for the configured model with the full
// middleware chain. Credentials are resolved from the secrets store or
// environment based on the model's provider.
func (f *ClientFactory) CreateClient(sessionProvider metrics.SessionProvider, logger *logx.Logger) (LLMClient, error) {
	modelName := f.config.Model

	provider, err := config.GetModelProvider(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to determine provider for model %s: %w", modelName, err)
	}

	apiKey, err := config.GetAPIKey(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get API key for provider %s: %w", provider, err)
	}

	var rawClient LLMClient
	switch provider {
	case config.ProviderAnthropic:
		rawClient = anthropic.NewClaudeClientWithModel(apiKey, modelName)
	case config.ProviderOpenAI:
		rawClient = openaiofficial.NewOfficialClientWithModel(apiKey, modelName)
	case config.ProviderGoogle:
		rawClient = google.NewGeminiClientWithModel(apiKey, modelName)
	case config.ProviderOllama:
		// For Ollama the credential is the host URL
		rawClient = ollama.NewOllamaClientWithModel(apiKey, modelName)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	retryPolicy := retry.NewPolicy(f.retryConfigs(), nil) // Use default classifier

	// Build the middleware chain in the correct order:
	// Metrics -> Retry -> RawClient
	client := llm.Chain(rawClient,
		metrics.Middleware(f.metricsRecorder, nil, sessionProvider, logger),
		retry.Middleware(retryPolicy),
	)

	return client, nil
}

// retryConfigs returns the per-error-type retry budgets, with the configured
// attempt cap applied over the package defaults.
func (f *ClientFactory) retryConfigs() map[llmerrors.ErrorType]llmerrors.RetryConfig {
	maxAttempts := f.config.Retry.MaxAttempts
	if maxAttempts <= 0 {
		return llmerrors.DefaultRetryConfigs
	}

	configs := make(map[llmerrors.ErrorType]llmerrors.RetryConfig, len(llmerrors.DefaultRetryConfigs))
	for errType, cfg := range llmerrors.DefaultRetryConfigs {
		if cfg.MaxRetries > maxAttempts-1 {
			cfg.MaxRetries = maxAttempts - 1
		}
		configs[errType] = cfg
	}
	return configs
}
