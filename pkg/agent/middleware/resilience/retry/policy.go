// Package retry provides retry logic with exponential backoff for resilient LLM calls.
package retry

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"hrassist/pkg/agent/llmerrors"
)

// Classifier determines if an error should be retried.
type Classifier func(error) bool

// ShouldRetry is the default error classifier that determines retry behavior.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	// Never retry context cancellation or deadline exceeded
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Classified errors carry their own retry semantics
	var llmErr *llmerrors.Error
	if errors.As(err, &llmErr) {
		return llmErr.IsRetryable()
	}

	// Fall back to string heuristics for unclassified errors
	errStr := err.Error()

	// Retry on network/timeout errors
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "temporary") {
		return true
	}

	// Retry on rate limiting
	if strings.Contains(errStr, "rate") || strings.Contains(errStr, "429") {
		return true
	}

	// Retry on server errors (5xx)
	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") {
		return true
	}

	// Default to not retrying unknown errors
	return false
}

// Policy encapsulates retry configuration and logic. Retry budgets and
// backoff parameters are selected per error type, so a rate-limited call
// can back off longer than a flaky connection.
//
//nolint:govet // Simple struct, logical grouping preferred
type Policy struct {
	Configs    map[llmerrors.ErrorType]llmerrors.RetryConfig
	Classifier Classifier
}

// NewPolicy creates a new retry policy with the given per-type configs and classifier.
// Nil arguments fall back to the package defaults.
func NewPolicy(configs map[llmerrors.ErrorType]llmerrors.RetryConfig, classifier Classifier) *Policy {
	if configs == nil {
		configs = llmerrors.DefaultRetryConfigs
	}
	if classifier == nil {
		classifier = ShouldRetry
	}
	return &Policy{
		Configs:    configs,
		Classifier: classifier,
	}
}

// ConfigFor returns the retry configuration governing the given error.
func (p *Policy) ConfigFor(err error) llmerrors.RetryConfig {
	if config, exists := p.Configs[llmerrors.TypeOf(err)]; exists {
		return config
	}
	return p.Configs[llmerrors.ErrorTypeUnknown]
}

// CalculateDelay computes the backoff delay before the given retry attempt
// (attempt 1 is the retry after the first failure).
func (p *Policy) CalculateDelay(config llmerrors.RetryConfig, attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt-1)))

	// Cap at maximum delay
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	// Add jitter if enabled
	if config.Jitter && delay > 0 {
		jitterFactor := time.Now().UnixNano()%2*2 - 1 // -1 or 1
		jitter := time.Duration(float64(delay) * 0.1 * float64(jitterFactor))
		delay += jitter
		if delay < 0 {
			delay = config.InitialDelay
		}
	}

	return delay
}

// ShouldRetry determines if an error should be retried based on the configured classifier.
func (p *Policy) ShouldRetry(err error) bool {
	return p.Classifier(err)
}
