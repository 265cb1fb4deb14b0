// Package types defines the data model shared by the turn pipeline:
// messages, agent profiles, tool shapes, and the event stream wire format.
package types

import "encoding/json"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in the conversation context. Tool-role messages carry
// the serialized result of the call identified by ToolCallID. Assistant
// messages that requested tools carry ToolCalls.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
}

// ToolCall is a tool invocation as requested by the model. Arguments is the
// raw JSON the model produced; it is parsed best-effort at execution time.
type ToolCall struct {
	ID        string `json:"callId"`
	Name      string `json:"name"`
	Arguments string `json:"rawArguments"`
}

// ParsedArguments decodes the call's arguments. Malformed JSON yields an
// empty object rather than an error; a turn never fails on bad arguments.
func (tc ToolCall) ParsedArguments() map[string]any {
	args := map[string]any{}
	if tc.Arguments == "" {
		return args
	}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return map[string]any{}
	}
	return args
}
