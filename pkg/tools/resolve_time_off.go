package tools

import (
	"context"
	"fmt"

	"hrassist/pkg/timeoff"
)

// ResolveTimeOffTool finalizes a previously validated time off request. When
// the employee confirmed, the request is appended to the pending list exactly
// as passed in; when they declined, nothing is recorded.
type ResolveTimeOffTool struct {
	service *timeoff.Service
}

// NewResolveTimeOffTool creates a new resolve_time_off tool instance.
func NewResolveTimeOffTool(service *timeoff.Service) *ResolveTimeOffTool {
	return &ResolveTimeOffTool{service: service}
}

// Definition returns the tool's definition in Claude API format.
func (r *ResolveTimeOffTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolResolveTimeOff,
		Description: "Record the employee's decision on a validated time off request. Call with confirmed=true to submit the request, or confirmed=false to cancel it. Pass the exact startDate, endDate, and numberOfDays returned by request_time_off.",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"startDate": {
					Type:        "string",
					Description: "First day of time off in YYYY-MM-DD format, as returned by request_time_off",
				},
				"endDate": {
					Type:        "string",
					Description: "Last day of time off in YYYY-MM-DD format, as returned by request_time_off",
				},
				"numberOfDays": {
					Type:        "integer",
					Description: "Number of consecutive days requested",
				},
				"confirmed": {
					Type:        "boolean",
					Description: "true if the employee confirmed the request, false if they declined",
				},
			},
			Required: []string{"startDate", "endDate", "numberOfDays", "confirmed"},
		},
	}
}

// Name returns the tool identifier.
func (r *ResolveTimeOffTool) Name() string {
	return ToolResolveTimeOff
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (r *ResolveTimeOffTool) PromptDocumentation() string {
	return `- **resolve_time_off** - Record the employee's decision on a validated request
  - Parameters:
    - startDate (string, required): As returned by request_time_off
    - endDate (string, required): As returned by request_time_off
    - numberOfDays (integer, required): As returned by request_time_off
    - confirmed (boolean, required): true to submit, false to cancel
  - Only call after the employee has explicitly confirmed or declined
  - confirmed=true appends a pending request; confirmed=false records nothing`
}

// Exec executes the resolve_time_off operation.
func (r *ResolveTimeOffTool) Exec(_ context.Context, params map[string]any) (map[string]any, error) {
	startDate, ok := stringParam(params, "startDate")
	if !ok || startDate == "" {
		return nil, fmt.Errorf("startDate parameter is required")
	}
	endDate, ok := stringParam(params, "endDate")
	if !ok || endDate == "" {
		return nil, fmt.Errorf("endDate parameter is required")
	}
	numberOfDays, ok := intParam(params, "numberOfDays")
	if !ok {
		return nil, fmt.Errorf("numberOfDays parameter is required")
	}
	confirmed, ok := boolParam(params, "confirmed")
	if !ok {
		return nil, fmt.Errorf("confirmed parameter is required")
	}

	outcome := r.service.ResolveRequest(startDate, endDate, numberOfDays, confirmed)
	result := map[string]any{
		"success": outcome.Success,
		"message": outcome.Message,
	}
	if outcome.Request != nil {
		result["request"] = outcome.Request
	}
	return result, nil
}
