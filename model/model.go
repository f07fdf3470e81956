// Package model defines the model collaborator boundary: a capability
// interface exposing plain chat and, optionally, function calling. All
// vendor-specific payload shaping (one provider's "tools" array vs.
// another's content blocks) lives in the adapter subpackages, never in the
// orchestration loop.
package model

import (
	"context"

	"github.com/hupe1980/archon/core"
)

// Options tunes one model round-trip.
type Options struct {
	// Temperature, when set, overrides the adapter default.
	Temperature *float64
	// MaxTokens caps the completion length; 0 keeps the adapter default.
	MaxTokens int64
	// StopSequences truncate generation when emitted.
	StopSequences []string
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// ToolDefinition declaratively exposes a callable operation to the model.
// Parameters is a JSON Schema object (minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Result is the normalized outcome of one model round-trip: plain content,
// or content plus a requested tool call.
type Result struct {
	Content      string           `json:"content"`
	ToolCall     *core.ToolCall   `json:"tool_call,omitempty"`
	Usage        *core.TokenUsage `json:"usage,omitempty"`
	Model        string           `json:"model"`
	FinishReason string           `json:"finish_reason"` // "stop", "length", "tool_calls", ...
}

// Model is the minimal capability every bound model provides.
type Model interface {
	// Chat issues one non-tool completion over the given messages.
	Chat(ctx context.Context, messages []core.Message, opts Options) (*Result, error)

	// Info returns information about the model implementation.
	Info() Info
}

// FunctionCaller is the optional capability of models that support function
// calling. The executor type-asserts for it; models without it fall back to
// plain Chat, which is a normal path, not an error.
type FunctionCaller interface {
	Model

	// ChatWithTools issues one completion advertising the given tool
	// schemas. The result may carry a ToolCall.
	ChatWithTools(ctx context.Context, messages []core.Message, tools []ToolDefinition, opts Options) (*Result, error)
}

// SupportsFunctionCalling reports whether m can drive a tool loop.
func SupportsFunctionCalling(m Model) bool {
	if _, ok := m.(FunctionCaller); !ok {
		return false
	}
	return m.Info().SupportsTools
}
