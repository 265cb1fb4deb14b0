package types

import (
	"errors"
	"strings"
)

// ErrMissingInstructions is returned by AgentProfile.Validate when the
// profile has no system instructions.
var ErrMissingInstructions = errors.New("agent profile must have system instructions configured")

// RemoteToolServer describes one externally hosted tool server an agent may
// call. Tools discovered from the server are exposed to the model with the
// server's sanitized label as a name prefix.
type RemoteToolServer struct {
	Label        string            `json:"server_label"`
	URL          string            `json:"server_url"`
	Headers      map[string]string `json:"headers,omitempty"`
	AllowedTools []string          `json:"allowed_tools,omitempty"`
}

// AgentProfile is the per-turn agent configuration supplied by the caller.
// It is read-only to the pipeline.
type AgentProfile struct {
	Name               string             `json:"name,omitempty"`
	Model              string             `json:"model"`
	Temperature        float64            `json:"temperature"`
	VoiceID            string             `json:"voiceId"`
	SystemInstructions string             `json:"systemInstructions"`
	KnowledgeSource    string             `json:"knowledgeSource,omitempty"`
	RemoteTools        []RemoteToolServer `json:"remoteTools,omitempty"`
}

// Validate checks the invariants a profile must satisfy before a turn may
// start. Missing system instructions are a fatal configuration error, not a
// recoverable default.
func (a AgentProfile) Validate() error {
	if strings.TrimSpace(a.SystemInstructions) == "" {
		return ErrMissingInstructions
	}
	return nil
}
