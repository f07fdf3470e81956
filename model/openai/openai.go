// Package openai implements the model collaborator on top of the OpenAI
// Chat Completions API (including function/tool calling). It adapts Archon's
// normalized messages into the SDK's message format and back; no OpenAI
// payload shape leaks past this package.
package openai

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/openai/openai-go"

	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/model"
)

// Options configure the OpenAI model adapter. Fields mirror a subset of
// Chat Completion parameters intentionally kept minimal; extend via
// functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind model.FunctionCaller.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Chat implements model.Model.
func (m *Model) Chat(ctx context.Context, messages []core.Message, opts model.Options) (*model.Result, error) {
	return m.complete(ctx, messages, nil, opts)
}

// ChatWithTools implements model.FunctionCaller.
func (m *Model) ChatWithTools(ctx context.Context, messages []core.Message, tools []model.ToolDefinition, opts model.Options) (*model.Result, error) {
	return m.complete(ctx, messages, tools, opts)
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}

func (m *Model) complete(ctx context.Context, messages []core.Message, tools []model.ToolDefinition, opts model.Options) (*model.Result, error) {
	params := m.buildParams(messages, tools, opts)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &core.ModelCallError{Provider: "openai", Model: m.opts.Model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &core.ModelCallError{
			Provider: "openai",
			Model:    m.opts.Model,
			Err:      errors.New("no choices returned"),
		}
	}

	choice := resp.Choices[0]
	result := &model.Result{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		Usage: &core.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	if len(choice.Message.ToolCalls) > 0 {
		tc := choice.Message.ToolCalls[0]
		result.ToolCall = &core.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		}
	}
	return result, nil
}

func (m *Model) buildParams(messages []core.Message, tools []model.ToolDefinition, opts model.Options) openai.ChatCompletionNewParams {
	temperature := m.opts.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := m.opts.MaxCompletionTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(messages),
		Model:               m.opts.Model,
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
	if len(opts.StopSequences) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.StopSequences}
	}
	if len(tools) > 0 {
		oaTools := make([]openai.ChatCompletionToolParam, len(tools))
		for i, tdef := range tools {
			oaTools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tdef.Name,
					Description: openai.String(tdef.Description),
					Parameters:  tdef.Parameters,
				},
			}
		}
		params.Tools = oaTools
	}
	return params
}

// buildMessages converts normalized messages into OpenAI chat messages.
// Assistant tool calls become assistant messages with tool_calls and the
// paired function messages become tool messages referencing the call id.
func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case core.RoleAssistant:
			if msg.ToolCall == nil {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role: "assistant",
					ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
						ID:   msg.ToolCall.ID,
						Type: "function",
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      msg.ToolCall.Name,
							Arguments: string(msg.ToolCall.Arguments),
						},
					}},
				},
			})
		case core.RoleFunction:
			out = append(out, openai.ToolMessage(msg.Content, msg.CallID))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
