package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrassist/pkg/agent/llm"
	"hrassist/pkg/agent/llmerrors"
)

func TestShouldRetry_ClassifiedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context cancelled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"rate limit", llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "429"), true},
		{"transient", llmerrors.NewError(llmerrors.ErrorTypeTransient, "connection reset"), true},
		{"empty response", llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "no content"), true},
		{"auth", llmerrors.NewError(llmerrors.ErrorTypeAuth, "invalid key"), false},
		{"bad prompt", llmerrors.NewError(llmerrors.ErrorTypeBadPrompt, "too long"), false},
		{"service unavailable", llmerrors.NewServiceUnavailableError(errors.New("down"), 3), false},
		{"unclassified timeout string", errors.New("request timeout"), true},
		{"unclassified 503 string", errors.New("upstream returned 503"), true},
		{"unclassified 404 string", errors.New("model not found 404"), false},
		{"unclassified unknown", errors.New("something odd"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(tt.err))
		})
	}
}

func TestPolicy_ConfigFor(t *testing.T) {
	policy := NewPolicy(nil, nil)

	rateCfg := policy.ConfigFor(llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "429"))
	assert.Equal(t, llmerrors.DefaultRetryConfigs[llmerrors.ErrorTypeRateLimit], rateCfg)

	// Unclassified errors fall back to the unknown budget
	unknownCfg := policy.ConfigFor(errors.New("mystery"))
	assert.Equal(t, llmerrors.DefaultRetryConfigs[llmerrors.ErrorTypeUnknown], unknownCfg)
}

func TestPolicy_CalculateDelay(t *testing.T) {
	policy := NewPolicy(nil, nil)
	config := llmerrors.RetryConfig{
		MaxRetries:    5,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        false,
	}

	assert.Equal(t, time.Duration(0), policy.CalculateDelay(config, 0))
	assert.Equal(t, 100*time.Millisecond, policy.CalculateDelay(config, 1))
	assert.Equal(t, 200*time.Millisecond, policy.CalculateDelay(config, 2))
	assert.Equal(t, 400*time.Millisecond, policy.CalculateDelay(config, 3))

	// Capped at MaxDelay
	assert.Equal(t, 1*time.Second, policy.CalculateDelay(config, 10))
}

func TestPolicy_CalculateDelay_JitterWithinBounds(t *testing.T) {
	policy := NewPolicy(nil, nil)
	config := llmerrors.RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}

	// Jitter shifts the base delay by exactly 10% in either direction.
	base := 100 * time.Millisecond
	low := time.Duration(float64(base) * 0.9)
	high := time.Duration(float64(base) * 1.1)
	for i := 0; i < 50; i++ {
		delay := policy.CalculateDelay(config, 1)
		assert.Positive(t, delay)
		assert.True(t, delay == low || delay == high,
			"delay %v outside jitter bounds [%v, %v]", delay, low, high)
	}
}

// countingClient fails a fixed number of times before succeeding.
type countingClient struct {
	failures int
	err      error
	calls    int
}

func (c *countingClient) Complete(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
	c.calls++
	if c.calls <= c.failures {
		return llm.CompletionResponse{}, c.err
	}
	return llm.CompletionResponse{Content: "ok"}, nil
}

func (c *countingClient) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	if _, err := c.Complete(ctx, req); err != nil {
		return nil, err
	}
	ch := make(chan llm.StreamChunk)
	close(ch)
	return ch, nil
}

func (c *countingClient) GetModelName() string { return "test-model" }

func fastConfigs() map[llmerrors.ErrorType]llmerrors.RetryConfig {
	configs := make(map[llmerrors.ErrorType]llmerrors.RetryConfig, len(llmerrors.DefaultRetryConfigs))
	for errType, config := range llmerrors.DefaultRetryConfigs {
		config.InitialDelay = time.Microsecond
		config.MaxDelay = time.Millisecond
		config.Jitter = false
		configs[errType] = config
	}
	return configs
}

func TestMiddleware_RetriesTransientThenSucceeds(t *testing.T) {
	base := &countingClient{
		failures: 2,
		err:      llmerrors.NewError(llmerrors.ErrorTypeTransient, "connection reset"),
	}
	client := Middleware(NewPolicy(fastConfigs(), nil))(base)

	resp, err := client.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, base.calls)
}

func TestMiddleware_NonRetryableFailsImmediately(t *testing.T) {
	base := &countingClient{
		failures: 10,
		err:      llmerrors.NewError(llmerrors.ErrorTypeAuth, "invalid key"),
	}
	client := Middleware(NewPolicy(fastConfigs(), nil))(base)

	_, err := client.Complete(context.Background(), llm.CompletionRequest{})
	require.Error(t, err)
	assert.True(t, llmerrors.Is(err, llmerrors.ErrorTypeAuth))
	assert.Equal(t, 1, base.calls)
}

func TestMiddleware_ExhaustionEmitsServiceUnavailable(t *testing.T) {
	configs := fastConfigs()
	base := &countingClient{
		failures: 100,
		err:      llmerrors.NewError(llmerrors.ErrorTypeRateLimit, "429"),
	}
	client := Middleware(NewPolicy(configs, nil))(base)

	_, err := client.Complete(context.Background(), llm.CompletionRequest{})
	require.Error(t, err)
	assert.True(t, llmerrors.IsServiceUnavailable(err))

	// One initial attempt plus the configured retry budget
	assert.Equal(t, configs[llmerrors.ErrorTypeRateLimit].MaxRetries+1, base.calls)
}

func TestMiddleware_DelegatesModelName(t *testing.T) {
	client := Middleware(NewPolicy(nil, nil))(&countingClient{})
	assert.Equal(t, "test-model", client.GetModelName())
}
