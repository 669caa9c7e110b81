// Package tools provides the assistant's callable tool implementations and registry.
package tools

import (
	"context"
)

// Property describes a single parameter in a tool's input schema.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []string             `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
}

// InputSchema is the JSON schema for a tool's parameters.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition is the dispatcher-facing contract for a tool: its name, a
// natural-language description, and a typed parameter schema. The description
// doubles as the human-facing documentation of what the tool does.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// Tool is a callable operation exposed to the LLM dispatcher.
//
// Exec returns a structured payload intended for direct relay to the human
// (serialized as JSON in the tool result). Domain failures are expressed
// inside the payload as {success: false, message}; a Go error is returned
// only for malformed invocations (missing or mistyped parameters).
type Tool interface {
	Name() string
	Definition() ToolDefinition
	PromptDocumentation() string
	Exec(ctx context.Context, params map[string]any) (map[string]any, error)
}

// stringParam extracts a required string parameter.
func stringParam(params map[string]any, name string) (string, bool) {
	v, ok := params[name].(string)
	return v, ok
}

// intParam extracts a required integer parameter. JSON numbers arrive as
// float64; accept both.
func intParam(params map[string]any, name string) (int, bool) {
	switch v := params[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// boolParam extracts a required boolean parameter.
func boolParam(params map[string]any, name string) (bool, bool) {
	v, ok := params[name].(bool)
	return v, ok
}
