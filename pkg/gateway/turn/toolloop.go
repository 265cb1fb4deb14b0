package turn

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/completion"
	"github.com/parley-ai/parley/pkg/core/types"
	"github.com/parley-ai/parley/pkg/gateway/tools"
)

// DefaultMaxToolRounds bounds the tool resolution loop. A model that keeps
// requesting tools past this many rounds ends the turn with a fatal error
// instead of spinning.
const DefaultMaxToolRounds = 8

// toolLoop resolves tool calls round by round until the model produces a
// response that requests none, then hands the hydrated message history to
// the generation streamer.
type toolLoop struct {
	completion completion.Service
	registry   *tools.Registry
	sink       EventSink
	logger     *slog.Logger
	maxRounds  int
}

func (l *toolLoop) resolve(ctx context.Context, model string, temperature float64, messages []types.Message) ([]types.Message, error) {
	maxRounds := l.maxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}
	defs := l.registry.Definitions()

	for round := 0; round < maxRounds; round++ {
		resp, err := l.completion.Complete(ctx, &completion.Request{
			Model:       model,
			Temperature: temperature,
			Messages:    messages,
			Tools:       defs,
		})
		if err != nil {
			return nil, core.NewStageError(core.CodeCompletionFailed, fmt.Sprintf("tool resolution completion failed: %v", err))
		}

		if resp.FinishReason != completion.FinishToolCalls || len(resp.Message.ToolCalls) == 0 {
			return messages, nil
		}

		messages = append(messages, resp.Message)
		for _, call := range resp.Message.ToolCalls {
			input := call.ParsedArguments()
			output, source := l.execute(ctx, call.Name, input)
			_ = l.sink.Send(types.NewToolEvent(call.Name, call.ID, input, output, source))
			messages = append(messages, types.Message{
				Role:       types.RoleTool,
				Content:    serializeOutput(output),
				ToolCallID: call.ID,
			})
		}
	}

	return nil, core.NewStageError(core.CodeToolLoopExceeded, fmt.Sprintf("tool resolution did not settle within %d rounds", maxRounds))
}

// execute runs one tool call. Failures never abort the loop; the model sees
// an error-shaped result and decides how to proceed.
func (l *toolLoop) execute(ctx context.Context, name string, input map[string]any) (output any, source string) {
	if !l.registry.Has(name) {
		l.logger.Warn("model requested unknown tool", "tool", name)
		return map[string]any{"error": "Unknown tool: " + name}, ""
	}
	result, err := l.registry.Execute(ctx, name, input)
	if err != nil {
		l.logger.Warn("tool call failed", "tool", name, "error", err)
		return map[string]any{"error": err.Error()}, ""
	}
	return result.Output, result.Source
}

func serializeOutput(output any) string {
	b, err := json.Marshal(output)
	if err != nil {
		return `{"error":"tool output could not be serialized"}`
	}
	return string(b)
}
