// Package core defines the error taxonomy shared across the pipeline.
package core

import (
	"fmt"
)

// Error is the canonical error shape surfaced to callers.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Param     string    `json:"param,omitempty"`
	Code      string    `json:"code,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrConfiguration  ErrorType = "configuration_error"
	ErrAuthentication ErrorType = "authentication_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrAPI            ErrorType = "api_error"
)

// Stage error codes. A stage error ends the turn; the codes below identify
// which collaborator failed.
const (
	CodeEmptyAudio          = "empty_audio"
	CodeTranscriptionFailed = "transcription_failed"
	CodeCompletionFailed    = "completion_failed"
	CodeGenerationFailed    = "generation_failed"
	CodeSpeechFailed        = "speech_failed"
	CodeToolLoopExceeded    = "tool_loop_exceeded"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message}
}

// NewInvalidRequestErrorWithParam creates an invalid request error with a parameter.
func NewInvalidRequestErrorWithParam(message, param string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message, Param: param}
}

// NewConfigurationError creates a configuration error. Configuration errors
// are rejected before any stage of a turn starts.
func NewConfigurationError(message string) *Error {
	return &Error{Type: ErrConfiguration, Message: message}
}

// NewStageError creates an api_error carrying a stage error code.
func NewStageError(code, message string) *Error {
	return &Error{Type: ErrAPI, Message: message, Code: code}
}
