package llmerrors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrorTypeRateLimit, "rate_limit"},
		{ErrorTypeTransient, "transient"},
		{ErrorTypeEmptyResponse, "empty_response"},
		{ErrorTypeAuth, "auth"},
		{ErrorTypeBadPrompt, "bad_prompt"},
		{ErrorTypeUnknown, "unknown"},
		{ErrorTypeServiceUnavailable, "service_unavailable"},
		{ErrorType(99), "invalid"},
	}
	for _, tt := range tests {
		if got := tt.errType.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.errType, got, tt.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []ErrorType{ErrorTypeRateLimit, ErrorTypeTransient, ErrorTypeEmptyResponse, ErrorTypeUnknown}
	for _, et := range retryable {
		if !NewError(et, "x").IsRetryable() {
			t.Errorf("expected %s to be retryable", et)
		}
	}

	nonRetryable := []ErrorType{ErrorTypeAuth, ErrorTypeBadPrompt, ErrorTypeServiceUnavailable}
	for _, et := range nonRetryable {
		if NewError(et, "x").IsRetryable() {
			t.Errorf("expected %s to not be retryable", et)
		}
	}
}

func TestIsAndTypeOf(t *testing.T) {
	err := NewErrorWithStatus(ErrorTypeRateLimit, 429, "too many requests")

	if !Is(err, ErrorTypeRateLimit) {
		t.Error("expected Is to match the rate limit type")
	}
	if Is(err, ErrorTypeAuth) {
		t.Error("expected Is to reject a different type")
	}
	if TypeOf(err) != ErrorTypeRateLimit {
		t.Errorf("unexpected TypeOf: %s", TypeOf(err))
	}

	// Wrapped errors still classify
	wrapped := fmt.Errorf("request failed: %w", err)
	if !Is(wrapped, ErrorTypeRateLimit) {
		t.Error("expected wrapped error to classify")
	}

	if TypeOf(errors.New("plain")) != ErrorTypeUnknown {
		t.Error("expected plain error to classify as unknown")
	}
}

func TestErrorMessageFormats(t *testing.T) {
	withMessage := NewError(ErrorTypeAuth, "invalid key")
	if !strings.Contains(withMessage.Error(), "auth") || !strings.Contains(withMessage.Error(), "invalid key") {
		t.Errorf("unexpected message: %s", withMessage.Error())
	}

	cause := errors.New("connection reset")
	withCause := NewErrorWithCause(ErrorTypeTransient, cause, "")
	if !strings.Contains(withCause.Error(), "connection reset") {
		t.Errorf("expected cause in message: %s", withCause.Error())
	}
	if !errors.Is(withCause, cause) {
		t.Error("expected Unwrap to expose the cause")
	}

	withStatus := NewErrorWithStatus(ErrorTypeRateLimit, 429, "")
	if !strings.Contains(withStatus.Error(), "429") {
		t.Errorf("expected status in message: %s", withStatus.Error())
	}
}

func TestGetRetryConfig(t *testing.T) {
	err := NewError(ErrorTypeRateLimit, "429")
	config := err.GetRetryConfig()
	if config.MaxRetries != DefaultRateLimitRetries {
		t.Errorf("expected %d retries, got %d", DefaultRateLimitRetries, config.MaxRetries)
	}
	if config.BackoffFactor != 2.0 {
		t.Errorf("expected backoff factor 2.0, got %f", config.BackoffFactor)
	}
}

func TestServiceUnavailable(t *testing.T) {
	cause := NewError(ErrorTypeTransient, "connection reset")
	err := NewServiceUnavailableError(cause, 4)

	if !IsServiceUnavailable(err) {
		t.Error("expected IsServiceUnavailable to be true")
	}
	if err.IsRetryable() {
		t.Error("service unavailable must not be retryable")
	}
	if !strings.Contains(err.Error(), "4 retry attempts") {
		t.Errorf("expected attempt count in message: %s", err.Error())
	}
}

func TestSanitizePrompt(t *testing.T) {
	short := "short prompt"
	if got := SanitizePrompt(short, 100); got != short {
		t.Errorf("short prompts should pass through, got %q", got)
	}

	long := strings.Repeat("secret data ", 200)
	got := SanitizePrompt(long, 300)
	if len(got) >= len(long) {
		t.Error("expected long prompt to be truncated")
	}
	if !strings.Contains(got, "hash:") {
		t.Errorf("expected content hash in sanitized prompt: %q", got)
	}
	if !strings.Contains(got, fmt.Sprintf("%d chars", len(long))) {
		t.Errorf("expected original length in sanitized prompt: %q", got)
	}
}
