package types

// ToolDefinition describes a callable tool as exposed to the completion
// service.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameterSchema"`
}

// ToolResult is the outcome of one executed tool call.
type ToolResult struct {
	Output any    `json:"output"`
	Source string `json:"source,omitempty"`
}
