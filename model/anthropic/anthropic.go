// Package anthropic implements the model collaborator on top of the
// Anthropic Messages API. The Messages API expresses tool calls as content
// blocks rather than a tools array on the message; all of that shaping is
// confined to this package.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind model.FunctionCaller.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
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

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}

func (m *Model) complete(ctx context.Context, messages []core.Message, tools []model.ToolDefinition, opts model.Options) (*model.Result, error) {
	temperature := m.opts.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := m.opts.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(messages),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
	}
	if len(opts.StopSequences) > 0 {
		params.StopSequences = opts.StopSequences
	}
	if system := extractSystem(messages); len(system) > 0 {
		params.System = system
	}
	if len(tools) > 0 {
		params.Tools = buildTools(tools)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &core.ModelCallError{Provider: "anthropic", Model: string(m.opts.Model), Err: err}
	}
	if len(resp.Content) == 0 {
		return nil, &core.ModelCallError{
			Provider: "anthropic",
			Model:    string(m.opts.Model),
			Err:      errors.New("empty content returned"),
		}
	}

	result := &model.Result{
		Model:        string(resp.Model),
		FinishReason: string(resp.StopReason),
		Usage: &core.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			result.Content += block.AsText().Text
		case "tool_use":
			if result.ToolCall != nil {
				continue
			}
			toolBlock := block.AsToolUse()
			args := json.RawMessage(`{}`)
			if toolBlock.Input != nil {
				if b, err := json.Marshal(toolBlock.Input); err == nil {
					args = b
				}
			}
			result.ToolCall = &core.ToolCall{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			}
		}
	}
	return result, nil
}

// buildMessages converts normalized messages to the Anthropic message
// format. Function results become tool_result blocks inside user messages,
// which is how the Messages API pairs them with the preceding tool_use.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			continue // handled separately via params.System
		case core.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				content = append(content, anthropic.NewTextBlock(msg.Content))
			}
			if msg.ToolCall != nil {
				var input any
				if err := json.Unmarshal(msg.ToolCall.Arguments, &input); err != nil {
					input = string(msg.ToolCall.Arguments)
				}
				content = append(content, anthropic.NewToolUseBlock(msg.ToolCall.ID, input, msg.ToolCall.Name))
			}
			if len(content) > 0 {
				out = append(out, anthropic.NewAssistantMessage(content...))
			}
		case core.RoleFunction:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.CallID, msg.Content, false),
			))
		default:
			if msg.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}
	return out
}

func extractSystem(messages []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range messages {
		if msg.Role == core.RoleSystem && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	return blocks
}

func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, tdef := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if tdef.Parameters != nil {
			if properties, ok := tdef.Parameters["properties"]; ok {
				inputSchema.Properties = properties
			}
			switch required := tdef.Parameters["required"].(type) {
			case []string:
				inputSchema.Required = required
			case []any:
				for _, r := range required {
					if s, ok := r.(string); ok {
						inputSchema.Required = append(inputSchema.Required, s)
					}
				}
			}
		}
		out[i] = anthropic.ToolUnionParamOfTool(inputSchema, tdef.Name)
	}
	return out
}
