package logx

import "testing"

func TestIsDebugEnabledFor(t *testing.T) {
	// Debug off by default unless the environment enabled it.
	SetDebug(false)
	if IsDebugEnabledFor("toolloop") {
		t.Error("Expected debug disabled for toolloop")
	}

	SetDebug(true)
	defer SetDebug(false)

	if debugDomains == nil {
		if !IsDebugEnabledFor("toolloop") {
			t.Error("Expected debug enabled for all domains when no filter set")
		}
	}
}

func TestLoggerComponent(t *testing.T) {
	l := NewLogger("tracker")
	if l.Component() != "tracker" {
		t.Errorf("Expected component 'tracker', got %q", l.Component())
	}
}
