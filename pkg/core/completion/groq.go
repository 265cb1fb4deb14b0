package completion

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"

	"github.com/parley-ai/parley/pkg/core/types"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqService implements Service against Groq's OpenAI-compatible chat
// completions endpoint.
type GroqService struct {
	client openai.Client
}

// NewGroq creates a completion service backed by Groq.
func NewGroq(apiKey string, opts ...option.RequestOption) *GroqService {
	merged := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(groqBaseURL),
	}, opts...)
	return &GroqService{client: openai.NewClient(merged...)}
}

// Complete performs one non-streaming tool-augmented round trip.
func (s *GroqService) Complete(ctx context.Context, req *Request) (*Response, error) {
	params := s.buildParams(req)
	if len(req.Tools) > 0 {
		params.Tools = buildToolParams(req.Tools)
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("auto"),
		}
		params.ParallelToolCalls = openai.Bool(true)
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0]
	msg := types.Message{Role: types.RoleAssistant, Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, types.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return &Response{Message: msg, FinishReason: choice.FinishReason}, nil
}

// Stream opens a streaming completion without tools.
func (s *GroqService) Stream(ctx context.Context, req *Request) (Stream, error) {
	stream := s.client.Chat.Completions.NewStreaming(ctx, s.buildParams(req))
	return &groqStream{inner: stream}, nil
}

func (s *GroqService) buildParams(req *Request) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Model),
		Temperature: openai.Float(req.Temperature),
		Messages:    buildMessageParams(req.Messages),
	}
}

func buildMessageParams(messages []types.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case types.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case types.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		case types.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			for _, tc := range msg.ToolCalls {
				args := tc.Arguments
				if args == "" {
					args = "{}"
				}
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: args,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}

func buildToolParams(tools []types.ToolDefinition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, def := range tools {
		fn := shared.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
		}
		if len(def.Parameters) > 0 {
			fn.Parameters = shared.FunctionParameters(def.Parameters)
		}
		out = append(out, openai.ChatCompletionToolParam{Function: fn})
	}
	return out
}

type groqStream struct {
	inner *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *groqStream) Next() (Delta, error) {
	for s.inner.Next() {
		chunk := s.inner.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		d := Delta{Text: choice.Delta.Content, FinishReason: choice.FinishReason}
		if d.Text == "" && d.FinishReason == "" {
			continue
		}
		return d, nil
	}
	if err := s.inner.Err(); err != nil {
		return Delta{}, err
	}
	return Delta{}, io.EOF
}

func (s *groqStream) Close() error {
	return s.inner.Close()
}
