package types

// StreamEvent is one entry in a turn's newline-delimited output stream.
// Each concrete event marshals to a flat JSON object discriminated by its
// "type" field.
type StreamEvent interface {
	streamEvent()
}

// TranscriptEvent carries the resolved user transcript. Emitted exactly once
// per turn, before any text delta.
type TranscriptEvent struct {
	Type string `json:"type"` // "transcript"
	Text string `json:"text"`
}

// StageEvent reports a stage lifecycle transition.
type StageEvent struct {
	Type   string      `json:"type"` // "stage"
	Stage  Stage       `json:"stage"`
	Status StageStatus `json:"status"`
}

// MetricsEvent reports a completed stage's duration in milliseconds.
type MetricsEvent struct {
	Type     string `json:"type"` // "metrics"
	Stage    Stage  `json:"stage"`
	Duration int64  `json:"duration"`
}

// ToolEvent reports one executed tool call.
type ToolEvent struct {
	Type   string `json:"type"` // "tool"
	Name   string `json:"name"`
	CallID string `json:"callId"`
	Input  any    `json:"input"`
	Output any    `json:"output"`
	Source string `json:"source,omitempty"`
}

// TextDeltaEvent carries one incremental slice of generated text.
type TextDeltaEvent struct {
	Type  string `json:"type"` // "text-delta"
	Delta string `json:"delta"`
}

// TextFinalEvent carries the complete generated text. This is the canonical
// assistant message to persist downstream.
type TextFinalEvent struct {
	Type string `json:"type"` // "text-final"
	Text string `json:"text"`
}

// AudioEvent carries one base64-encoded synthesized audio chunk.
type AudioEvent struct {
	Type  string `json:"type"` // "audio"
	Chunk string `json:"chunk"`
}

// DoneEvent terminates a successful turn.
type DoneEvent struct {
	Type string `json:"type"` // "done"
}

// ErrorEvent terminates a failed turn.
type ErrorEvent struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

func (TranscriptEvent) streamEvent() {}
func (StageEvent) streamEvent()      {}
func (MetricsEvent) streamEvent()    {}
func (ToolEvent) streamEvent()       {}
func (TextDeltaEvent) streamEvent()  {}
func (TextFinalEvent) streamEvent()  {}
func (AudioEvent) streamEvent()      {}
func (DoneEvent) streamEvent()       {}
func (ErrorEvent) streamEvent()      {}

// IsTerminal reports whether ev ends the stream.
func IsTerminal(ev StreamEvent) bool {
	switch ev.(type) {
	case DoneEvent, ErrorEvent:
		return true
	}
	return false
}

// Constructors keep the discriminator in one place.

func NewTranscriptEvent(text string) TranscriptEvent {
	return TranscriptEvent{Type: "transcript", Text: text}
}

func NewStageEvent(stage Stage, status StageStatus) StageEvent {
	return StageEvent{Type: "stage", Stage: stage, Status: status}
}

func NewMetricsEvent(stage Stage, durationMS int64) MetricsEvent {
	return MetricsEvent{Type: "metrics", Stage: stage, Duration: durationMS}
}

func NewToolEvent(name, callID string, input, output any, source string) ToolEvent {
	return ToolEvent{Type: "tool", Name: name, CallID: callID, Input: input, Output: output, Source: source}
}

func NewTextDeltaEvent(delta string) TextDeltaEvent {
	return TextDeltaEvent{Type: "text-delta", Delta: delta}
}

func NewTextFinalEvent(text string) TextFinalEvent {
	return TextFinalEvent{Type: "text-final", Text: text}
}

func NewAudioEvent(chunk string) AudioEvent {
	return AudioEvent{Type: "audio", Chunk: chunk}
}

func NewDoneEvent() DoneEvent {
	return DoneEvent{Type: "done"}
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: "error", Message: message}
}
