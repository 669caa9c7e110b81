package tools

import (
	"context"
	"fmt"

	"hrassist/pkg/timeoff"
)

// GetBalanceTool reports the employee's time off balance and pending requests.
type GetBalanceTool struct {
	service *timeoff.Service
}

// NewGetBalanceTool creates a new get_balance tool instance.
func NewGetBalanceTool(service *timeoff.Service) *GetBalanceTool {
	return &GetBalanceTool{service: service}
}

// Definition returns the tool's definition in Claude API format.
func (g *GetBalanceTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolGetBalance,
		Description: "Get the employee's current time off balance: total allocated days, used days, remaining days, and any pending requests. Call this whenever the employee asks about their balance or remaining days.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
		},
	}
}

// Name returns the tool identifier.
func (g *GetBalanceTool) Name() string {
	return ToolGetBalance
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (g *GetBalanceTool) PromptDocumentation() string {
	return `- **get_balance** - Get the employee's current time off balance
  - Parameters: none
  - Returns total, used, and remaining days plus any pending requests
  - Use whenever the employee asks about their balance or available days`
}

// Exec executes the get_balance operation. Store faults are relayed inside
// the payload so the model can apologize instead of the turn aborting.
func (g *GetBalanceTool) Exec(_ context.Context, _ map[string]any) (map[string]any, error) {
	snapshot, err := g.service.GetBalance()
	if err != nil {
		return map[string]any{
			"success": false,
			"reason":  string(timeoff.ReasonInternalFailure),
			"message": fmt.Sprintf("Failed to read balance: %v", err),
		}, nil
	}

	return map[string]any{
		"totalDays":       snapshot.TotalDays,
		"usedDays":        snapshot.UsedDays,
		"remainingDays":   snapshot.RemainingDays,
		"pendingRequests": snapshot.PendingRequests,
	}, nil
}
