package llm

import (
	"context"
	"testing"
)

type staticClient struct {
	content string
	model   string
}

func (s *staticClient) Complete(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
	return CompletionResponse{Content: s.content}, nil
}

func (s *staticClient) Stream(ctx context.Context, in CompletionRequest) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk, 2)
	resp, _ := s.Complete(ctx, in)
	ch <- StreamChunk{Content: resp.Content}
	ch <- StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func (s *staticClient) GetModelName() string {
	return s.model
}

// tagMiddleware appends a tag to the response content so ordering is observable.
func tagMiddleware(tag string) Middleware {
	return func(next LLMClient) LLMClient {
		return WrapClient(
			func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
				resp, err := next.Complete(ctx, req)
				resp.Content += tag
				return resp, err
			},
			next.Stream,
			next.GetModelName,
		)
	}
}

// TestChainOrdering verifies earlier middlewares are outermost.
func TestChainOrdering(t *testing.T) {
	base := &staticClient{content: "base", model: "test-model"}
	client := Chain(base, tagMiddleware("+outer"), tagMiddleware("+inner"))

	req := NewCompletionRequest([]CompletionMessage{
		NewSystemMessage("You are an HR assistant."),
		NewUserMessage("How many days do I have left?"),
	})
	if req.Messages[0].Role != RoleSystem || req.Messages[1].Role != RoleUser {
		t.Fatalf("Expected system/user roles, got %s/%s", req.Messages[0].Role, req.Messages[1].Role)
	}

	resp, err := client.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// Inner middleware runs closer to the base, so its tag is appended first.
	if resp.Content != "base+inner+outer" {
		t.Errorf("Expected 'base+inner+outer', got %q", resp.Content)
	}
	if client.GetModelName() != "test-model" {
		t.Errorf("Expected model name to pass through, got %q", client.GetModelName())
	}
}

// TestChainEmpty verifies chaining with no middleware returns the base behavior.
func TestChainEmpty(t *testing.T) {
	base := &staticClient{content: "plain", model: "m"}
	client := Chain(base)

	resp, err := client.Complete(context.Background(), NewCompletionRequest(nil))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != "plain" {
		t.Errorf("Expected 'plain', got %q", resp.Content)
	}
}

// TestLLMConfigValidate exercises the config validation rules.
func TestLLMConfigValidate(t *testing.T) {
	valid := LLMConfig{APIKey: "key", ModelName: "model", MaxTokens: 1024, Temperature: 0.3}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid config, got: %v", err)
	}

	cases := []struct {
		name string
		cfg  LLMConfig
	}{
		{"missing key", LLMConfig{ModelName: "m", MaxTokens: 1}},
		{"missing model", LLMConfig{APIKey: "k", MaxTokens: 1}},
		{"zero tokens", LLMConfig{APIKey: "k", ModelName: "m"}},
		{"bad temperature", LLMConfig{APIKey: "k", ModelName: "m", MaxTokens: 1, Temperature: 3.0}},
	}
	for _, tc := range cases {
		if err := tc.cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
