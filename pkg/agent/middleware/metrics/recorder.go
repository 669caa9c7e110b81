// Package metrics provides metrics recording for LLM client operations.
package metrics

import (
	"time"
)

// SessionProvider provides access to the current conversation session for metrics labeling.
type SessionProvider interface {
	// GetSessionID returns the current conversation session ID.
	GetSessionID() string
}

// Recorder defines the interface for recording LLM operation metrics.
type Recorder interface {
	// ObserveRequest records metrics for a completed LLM request.
	ObserveRequest(
		model, sessionID string,
		promptTokens, completionTokens int,
		cost float64,
		success bool,
		errorType string,
		duration time.Duration,
	)

	// IncToolCall increments the tool invocation counter.
	IncToolCall(toolName string)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveRequest(
	_, _ string,
	_, _ int,
	_ float64,
	_ bool,
	_ string,
	_ time.Duration,
) {
}

// IncToolCall does nothing in the no-op recorder.
func (n *NoopRecorder) IncToolCall(_ string) {
}

// MultiRecorder fans observations out to several recorders in order.
type MultiRecorder []Recorder

// ObserveRequest forwards the observation to every recorder.
func (m MultiRecorder) ObserveRequest(
	model, sessionID string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	duration time.Duration,
) {
	for _, r := range m {
		r.ObserveRequest(model, sessionID, promptTokens, completionTokens, cost, success, errorType, duration)
	}
}

// IncToolCall forwards the increment to every recorder.
func (m MultiRecorder) IncToolCall(toolName string) {
	for _, r := range m {
		r.IncToolCall(toolName)
	}
}
