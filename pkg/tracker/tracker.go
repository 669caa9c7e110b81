// Package tracker reports assistant lifecycle events for transparency.
//
// The tracker is a pure observer: it holds no state, never influences
// control flow, and its output is advisory only. The orchestration layer
// notifies it at defined lifecycle points; any implementation of Observer
// (console printer, structured logger, metrics sink) can be plugged in.
package tracker

import (
	"hrassist/pkg/logx"
)

// Event is a sparse descriptor of a lifecycle point. Exactly one of the
// primary flags is normally set per notification; ToolName may accompany
// any of them and is reported independently.
type Event struct {
	Init          bool   // agent loop initialized
	LoopStart     bool   // conversation loop starting
	CycleStart    bool   // reasoning cycle starting
	MessageRole   string // non-empty: a message was created with this role
	CycleComplete bool   // reasoning cycle finished
	ForceStop     bool   // loop was force-stopped
	StopReason    string // reason for the force stop
	ToolName      string // non-empty: a tool invocation is starting or finished
	ToolResult    string // non-empty: the named tool finished with this payload
	ToolError     bool   // the tool result reports a failure
}

// Observer receives lifecycle events.
type Observer interface {
	OnEvent(evt Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(evt Event) { f(evt) }

// Noop is an Observer that discards all events.
type Noop struct{}

func (Noop) OnEvent(Event) {}

// Console prints one human-readable line per event via logx.
type Console struct {
	logger *logx.Logger
}

// NewConsole creates a console observer.
func NewConsole() *Console {
	return &Console{logger: logx.NewLogger("tracker")}
}

// OnEvent emits exactly one line for the first matching primary flag, in
// fixed priority order. A tool invocation is reported on its own line
// whenever a tool name is present, regardless of the primary flags.
func (c *Console) OnEvent(evt Event) {
	switch {
	case evt.Init:
		c.logger.Info("Agent loop initialized")
	case evt.LoopStart:
		c.logger.Info("Conversation loop starting")
	case evt.CycleStart:
		c.logger.Info("Reasoning cycle starting")
	case evt.MessageRole != "":
		c.logger.Info("Message created (role: %s)", evt.MessageRole)
	case evt.CycleComplete:
		c.logger.Info("Reasoning cycle complete")
	case evt.ForceStop:
		c.logger.Warn("Loop force-stopped: %s", evt.StopReason)
	}

	switch {
	case evt.ToolResult != "" && evt.ToolError:
		c.logger.Warn("Tool %s returned an error", evt.ToolName)
	case evt.ToolResult != "":
		c.logger.Info("Tool %s completed", evt.ToolName)
	case evt.ToolName != "":
		c.logger.Info("Invoking tool: %s", evt.ToolName)
	}
}

// Multi fans events out to several observers in order.
type Multi []Observer

func (m Multi) OnEvent(evt Event) {
	for _, obs := range m {
		obs.OnEvent(evt)
	}
}
