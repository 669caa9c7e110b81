package tools

// Tool name constants.
const (
	ToolGetBalance     = "get_balance"
	ToolRequestTimeOff = "request_time_off"
	ToolResolveTimeOff = "resolve_time_off"
)

// AssistantTools is the tool set exposed to the HR assistant agent.
//
//nolint:gochecknoglobals // Shared tool set definition
var AssistantTools = []string{
	ToolGetBalance,
	ToolRequestTimeOff,
	ToolResolveTimeOff,
}
