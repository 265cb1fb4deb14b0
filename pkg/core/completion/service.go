// Package completion abstracts the chat-completion collaborator used by the
// turn pipeline, in both its tool-augmented non-streaming mode and its
// streaming mode.
package completion

import (
	"context"

	"github.com/parley-ai/parley/pkg/core/types"
)

// Finish reasons the pipeline cares about.
const (
	FinishToolCalls = "tool_calls"
	FinishLength    = "length"
	FinishStop      = "stop"
)

// Request is one completion round trip.
type Request struct {
	Model       string
	Temperature float64
	Messages    []types.Message
	Tools       []types.ToolDefinition // non-streaming mode only
}

// Response is a non-streaming completion result.
type Response struct {
	Message      types.Message // assistant message, possibly carrying tool calls
	FinishReason string
}

// Delta is one increment of a streaming completion. A delta may carry text,
// a finish reason, or both.
type Delta struct {
	Text         string
	FinishReason string
}

// Stream is a lazy, finite, non-restartable sequence of deltas. Next returns
// io.EOF when the underlying sequence ends.
type Stream interface {
	Next() (Delta, error)
	Close() error
}

// Service is the completion capability.
type Service interface {
	// Complete performs one non-streaming round trip with the tool catalog.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Stream opens a streaming completion.
	Stream(ctx context.Context, req *Request) (Stream, error)
}
