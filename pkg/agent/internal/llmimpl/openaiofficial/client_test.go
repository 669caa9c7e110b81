package openaiofficial

import (
	"strings"
	"testing"

	"hrassist/pkg/agent/llm"
	"hrassist/pkg/tools"
)

// TestFlattenMessages verifies the conversation renders with roles and tool results inline.
func TestFlattenMessages(t *testing.T) {
	messages := []llm.CompletionMessage{
		{Role: llm.RoleSystem, Content: "You are an HR assistant."},
		{Role: llm.RoleUser, Content: "What is my balance?"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c1", Name: "get_balance"}}},
		{Role: llm.RoleUser, ToolResults: []llm.ToolResult{{ToolCallID: "c1", Content: `{"remainingDays":15}`}}},
	}

	out := flattenMessages(messages)

	for _, want := range []string{"System: You are an HR assistant.", "What is my balance?", "get_balance", "Tool result (c1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

// TestFlattenMessages_ErrorResult verifies error results are labeled as such.
func TestFlattenMessages_ErrorResult(t *testing.T) {
	messages := []llm.CompletionMessage{
		{Role: llm.RoleUser, ToolResults: []llm.ToolResult{{ToolCallID: "c2", Content: "boom", IsError: true}}},
	}

	out := flattenMessages(messages)
	if !strings.Contains(out, "Tool error (c2): boom") {
		t.Errorf("Expected error label, got: %s", out)
	}
}

// TestConvertPropertyToSchema verifies nested schema conversion.
func TestConvertPropertyToSchema(t *testing.T) {
	prop := &tools.Property{
		Type:        "object",
		Description: "a nested object",
		Properties: map[string]*tools.Property{
			"names": {
				Type:  "array",
				Items: &tools.Property{Type: "string"},
			},
		},
	}

	schema := convertPropertyToSchema(prop)
	if schema["type"] != "object" {
		t.Errorf("Expected object type, got %v", schema["type"])
	}
	nested, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected nested properties, got %T", schema["properties"])
	}
	arr, ok := nested["names"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected names schema, got %T", nested["names"])
	}
	items, ok := arr["items"].(map[string]interface{})
	if !ok || items["type"] != "string" {
		t.Errorf("Expected string items, got %v", arr["items"])
	}
}

// TestGetModelName verifies the configured model is reported.
func TestGetModelName(t *testing.T) {
	client := NewOfficialClientWithModel("test-key", "gpt-4o")
	if client.GetModelName() != "gpt-4o" {
		t.Errorf("Expected gpt-4o, got %s", client.GetModelName())
	}
}
