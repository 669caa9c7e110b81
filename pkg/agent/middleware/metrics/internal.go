// Package metrics provides internal metrics tracking for LLM operations.
package metrics

import (
	"sync"
	"time"
)

// InternalRecorder aggregates per-session usage in memory. It backs the
// end-of-session cost summary and does not require a metrics server.
type InternalRecorder struct {
	sessions map[string]*SessionMetrics
	mu       sync.RWMutex
}

// SessionMetrics represents aggregated usage for a conversation session.
//
//nolint:govet
type SessionMetrics struct {
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	RequestCount     int64     `json:"request_count"`
	ToolCallCount    int64     `json:"tool_call_count"`
	TotalCost        float64   `json:"total_cost_usd"`
	SessionID        string    `json:"session_id"`
	LastUpdated      time.Time `json:"last_updated"`
}

var (
	internalInstance *InternalRecorder //nolint:gochecknoglobals
	internalOnce     sync.Once         //nolint:gochecknoglobals
)

// NewInternalRecorder returns a singleton internal metrics recorder.
func NewInternalRecorder() *InternalRecorder {
	internalOnce.Do(func() {
		internalInstance = &InternalRecorder{
			sessions: make(map[string]*SessionMetrics),
		}
	})
	return internalInstance
}

// ObserveRequest records metrics for a completed LLM request.
func (r *InternalRecorder) ObserveRequest(
	_, sessionID string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	_ string,
	_ time.Duration,
) {
	// Only successful requests contribute to token/cost totals.
	if !success || sessionID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[sessionID]
	if !exists {
		session = &SessionMetrics{
			SessionID: sessionID,
		}
		r.sessions[sessionID] = session
	}

	session.PromptTokens += int64(promptTokens)
	session.CompletionTokens += int64(completionTokens)
	session.TotalTokens = session.PromptTokens + session.CompletionTokens
	session.TotalCost += cost
	session.RequestCount++
	session.LastUpdated = time.Now()
}

// IncToolCall is a no-op at the session level; tool counts are attributed
// via ObserveToolCall which knows the session.
func (r *InternalRecorder) IncToolCall(_ string) {
}

// ObserveToolCall attributes a tool invocation to a session.
func (r *InternalRecorder) ObserveToolCall(sessionID string) {
	if sessionID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[sessionID]
	if !exists {
		session = &SessionMetrics{SessionID: sessionID}
		r.sessions[sessionID] = session
	}
	session.ToolCallCount++
	session.LastUpdated = time.Now()
}

// GetSessionMetrics returns the aggregated metrics for a specific session.
func (r *InternalRecorder) GetSessionMetrics(sessionID string) *SessionMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if session, exists := r.sessions[sessionID]; exists {
		clone := *session
		return &clone
	}
	return nil
}

// GetAllSessionMetrics returns metrics for all sessions.
func (r *InternalRecorder) GetAllSessionMetrics() map[string]*SessionMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*SessionMetrics)
	for sessionID, session := range r.sessions {
		clone := *session
		result[sessionID] = &clone
	}
	return result
}

// ClearSessionMetrics removes metrics for a specific session (useful for testing).
func (r *InternalRecorder) ClearSessionMetrics(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Reset clears all metrics (useful for testing).
func (r *InternalRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*SessionMetrics)
}
