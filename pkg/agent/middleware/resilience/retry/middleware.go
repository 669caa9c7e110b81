// Package retry provides retry middleware for LLM clients.
package retry

import (
	"context"
	"fmt"
	"time"

	"hrassist/pkg/agent/llm"
	"hrassist/pkg/agent/llmerrors"
)

// Middleware returns a middleware function that wraps an LLM client with retry logic.
// It will retry failed requests according to the configured policy, with exponential backoff.
func Middleware(policy *Policy) llm.Middleware {
	return func(next llm.LLMClient) llm.LLMClient {
		return llm.WrapClient(
			// Complete implementation with retry
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				for attempt := 1; ; attempt++ {
					resp, err := next.Complete(ctx, req)
					if err == nil {
						return resp, nil
					}

					if !policy.ShouldRetry(err) {
						return llm.CompletionResponse{}, err
					}

					// Retry budget is governed by the error's classification
					config := policy.ConfigFor(err)
					if attempt > config.MaxRetries {
						return llm.CompletionResponse{}, llmerrors.NewServiceUnavailableError(err, attempt)
					}

					delay := policy.CalculateDelay(config, attempt)
					if delay > 0 {
						select {
						case <-ctx.Done():
							return llm.CompletionResponse{}, fmt.Errorf("retry cancelled: %w", ctx.Err())
						case <-time.After(delay):
							// Continue with retry
						}
					}
				}
			},
			// Stream implementation with retry
			func(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
				for attempt := 1; ; attempt++ {
					ch, err := next.Stream(ctx, req)
					if err == nil {
						return ch, nil
					}

					if !policy.ShouldRetry(err) {
						return nil, err
					}

					config := policy.ConfigFor(err)
					if attempt > config.MaxRetries {
						return nil, llmerrors.NewServiceUnavailableError(err, attempt)
					}

					delay := policy.CalculateDelay(config, attempt)
					if delay > 0 {
						select {
						case <-ctx.Done():
							return nil, fmt.Errorf("stream retry cancelled: %w", ctx.Err())
						case <-time.After(delay):
							// Continue with retry
						}
					}
				}
			},
			// Delegate GetModelName to the next client
			func() string {
				return next.GetModelName()
			},
		)
	}
}
