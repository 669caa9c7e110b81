package tools

import (
	"context"
	"fmt"

	"hrassist/pkg/timeoff"
)

// RequestTimeOffTool validates a new time off request and prepares it for
// confirmation. It never submits anything; the employee must explicitly
// confirm via resolve_time_off before the request is recorded.
type RequestTimeOffTool struct {
	service *timeoff.Service
}

// NewRequestTimeOffTool creates a new request_time_off tool instance.
func NewRequestTimeOffTool(service *timeoff.Service) *RequestTimeOffTool {
	return &RequestTimeOffTool{service: service}
}

// Definition returns the tool's definition in Claude API format.
func (r *RequestTimeOffTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolRequestTimeOff,
		Description: "Validate a time off request and compute its date range. This does NOT submit the request: relay the returned message to the employee and wait for their explicit confirmation, then call resolve_time_off with their decision.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"startDate": {
					Type:        "string",
					Description: "First day of time off in YYYY-MM-DD format",
				},
				"numberOfDays": {
					Type:        "integer",
					Description: "Number of consecutive days requested",
				},
			},
			Required: []string{"startDate", "numberOfDays"},
		},
	}
}

// Name returns the tool identifier.
func (r *RequestTimeOffTool) Name() string {
	return ToolRequestTimeOff
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (r *RequestTimeOffTool) PromptDocumentation() string {
	return `- **request_time_off** - Validate a time off request and compute its date range
  - Parameters:
    - startDate (string, required): First day of time off, YYYY-MM-DD
    - numberOfDays (integer, required): Number of consecutive days requested
  - Does NOT submit the request - it only validates and summarizes it
  - Relay the returned message to the employee and wait for their decision
  - After the employee confirms or declines, call resolve_time_off`
}

// Exec executes the request_time_off operation.
func (r *RequestTimeOffTool) Exec(_ context.Context, params map[string]any) (map[string]any, error) {
	startDate, ok := stringParam(params, "startDate")
	if !ok || startDate == "" {
		return nil, fmt.Errorf("startDate parameter is required")
	}
	numberOfDays, ok := intParam(params, "numberOfDays")
	if !ok {
		return nil, fmt.Errorf("numberOfDays parameter is required")
	}

	outcome := r.service.ProposeRequest(startDate, numberOfDays)
	result := map[string]any{
		"success": outcome.Success,
		"message": outcome.Message,
	}
	if outcome.Success {
		result["requiresConfirmation"] = true
		result["requestDetails"] = outcome.RequestDetails
	}
	return result, nil
}
