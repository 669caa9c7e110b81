package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"hrassist/pkg/agent/llm"
	"hrassist/pkg/config"
)

type fakeSession string

func (f fakeSession) GetSessionID() string { return string(f) }

type recordingRecorder struct {
	model       string
	sessionID   string
	prompt      int
	completion  int
	cost        float64
	success     bool
	errorType   string
	invocations int
}

func (r *recordingRecorder) ObserveRequest(model, sessionID string, promptTokens, completionTokens int, cost float64, success bool, errorType string, _ time.Duration) {
	r.model = model
	r.sessionID = sessionID
	r.prompt = promptTokens
	r.completion = completionTokens
	r.cost = cost
	r.success = success
	r.errorType = errorType
	r.invocations++
}

func (r *recordingRecorder) IncToolCall(_ string) {}

type fakeClient struct {
	resp llm.CompletionResponse
	err  error
}

func (f *fakeClient) Complete(_ context.Context, _ llm.CompletionRequest) (llm.CompletionResponse, error) {
	return f.resp, f.err
}

func (f *fakeClient) Stream(_ context.Context, _ llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	return nil, f.err
}

func (f *fakeClient) GetModelName() string { return config.ModelClaudeSonnet4 }

// TestMiddleware_RecordsProviderUsage verifies provider-reported usage is preferred.
func TestMiddleware_RecordsProviderUsage(t *testing.T) {
	recorder := &recordingRecorder{}
	base := &fakeClient{resp: llm.CompletionResponse{
		Content: "done",
		Usage:   llm.Usage{InputTokens: 120, OutputTokens: 30},
	}}

	client := llm.Chain(base, Middleware(recorder, nil, fakeSession("sess-1"), nil))
	_, err := client.Complete(context.Background(), llm.NewCompletionRequest(nil))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if recorder.invocations != 1 {
		t.Fatalf("Expected 1 observation, got %d", recorder.invocations)
	}
	if recorder.prompt != 120 || recorder.completion != 30 {
		t.Errorf("Expected provider usage 120/30, got %d/%d", recorder.prompt, recorder.completion)
	}
	if recorder.sessionID != "sess-1" {
		t.Errorf("Expected session sess-1, got %s", recorder.sessionID)
	}
	if !recorder.success {
		t.Error("Expected success recorded")
	}
	if recorder.cost <= 0 {
		t.Errorf("Expected positive cost for known model, got %f", recorder.cost)
	}
}

// TestMiddleware_RecordsFailure verifies failures are recorded with an error type.
func TestMiddleware_RecordsFailure(t *testing.T) {
	recorder := &recordingRecorder{}
	base := &fakeClient{err: errors.New("boom")}

	client := llm.Chain(base, Middleware(recorder, nil, fakeSession("sess-2"), nil))
	_, err := client.Complete(context.Background(), llm.NewCompletionRequest(nil))
	if err == nil {
		t.Fatal("Expected error passed through")
	}

	if recorder.success {
		t.Error("Expected failure recorded")
	}
	if recorder.errorType == "" {
		t.Error("Expected error type label")
	}
	if recorder.prompt != 0 || recorder.completion != 0 {
		t.Error("Expected no token counts on failure")
	}
}

// TestEstimateCost verifies cost derivation from the model registry.
func TestEstimateCost(t *testing.T) {
	cost := EstimateCost(config.ModelClaudeSonnet4, 1_000_000, 1_000_000)
	info, _ := config.GetModelInfo(config.ModelClaudeSonnet4)
	want := info.InputCPM + info.OutputCPM
	if cost != want {
		t.Errorf("Expected cost %f, got %f", want, cost)
	}

	if EstimateCost("totally-unknown-model", 1000, 1000) != 0 {
		t.Error("Expected zero cost for unknown model")
	}
}

// TestInternalRecorder_Aggregation verifies per-session accumulation.
func TestInternalRecorder_Aggregation(t *testing.T) {
	r := NewInternalRecorder()
	r.Reset()

	r.ObserveRequest("m", "s1", 100, 50, 0.01, true, "", time.Second)
	r.ObserveRequest("m", "s1", 200, 100, 0.02, true, "", time.Second)
	r.ObserveRequest("m", "s1", 999, 999, 9.99, false, "transient", time.Second)
	r.ObserveToolCall("s1")

	m := r.GetSessionMetrics("s1")
	if m == nil {
		t.Fatal("Expected session metrics")
	}
	if m.PromptTokens != 300 || m.CompletionTokens != 150 {
		t.Errorf("Expected 300/150 tokens, got %d/%d", m.PromptTokens, m.CompletionTokens)
	}
	if m.RequestCount != 2 {
		t.Errorf("Expected 2 successful requests counted, got %d", m.RequestCount)
	}
	if m.ToolCallCount != 1 {
		t.Errorf("Expected 1 tool call, got %d", m.ToolCallCount)
	}

	if r.GetSessionMetrics("missing") != nil {
		t.Error("Expected nil for unknown session")
	}
}
