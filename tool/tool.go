// Package tool implements the tool collaborator: a catalog of named
// operations agents can invoke mid-conversation, executed under a permission
// context (folder scope, read-only flag, delegation depth). Execution never
// raises past the collaborator boundary; every outcome is captured in a
// core.ToolResult so failures flow back to the model as data.
package tool

import (
	"fmt"
	"sort"

	"github.com/hupe1980/archon/internal/util"
)

// Tool defines the interface for extending agent capabilities with external
// operations.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Honor the permission context they are called under
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is surfaced to the model to explain when to use the tool.
	Description() string

	// Category groups tools in catalogs and prompt instructions.
	Category() string

	// Dangerous reports whether the tool mutates external state. Dangerous
	// tools are blocked unless the executing agent allows them.
	Dangerous() bool

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Examples returns short usage examples for prompt instructions.
	Examples() []string

	// Call executes the tool with validated arguments under the given
	// permission context.
	Call(ec *ExecContext, args map[string]any) (any, error)
}

// Param is one catalog entry of a tool parameter.
type Param struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// Info is the catalog record of a registered tool.
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Dangerous   bool     `json:"dangerous"`
	Parameters  []Param  `json:"parameters"`
	Examples    []string `json:"examples,omitempty"`
}

// InfoOf derives the catalog record for a tool.
func InfoOf(t Tool) Info {
	return Info{
		Name:        t.Name(),
		Description: t.Description(),
		Category:    t.Category(),
		Dangerous:   t.Dangerous(),
		Parameters:  paramsOf(t.Parameters()),
		Examples:    t.Examples(),
	}
}

func paramsOf(schema map[string]any) []Param {
	properties, _ := schema["properties"].(map[string]any)
	required := make(map[string]bool)
	switch req := schema["required"].(type) {
	case []string:
		for _, r := range req {
			required[r] = true
		}
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}
	params := make([]Param, 0, len(properties))
	for name := range properties {
		params = append(params, Param{Name: name, Required: required[name]})
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	return params
}

// ValidationError represents parameter validation errors.
type ValidationError = util.ValidationError

// Error codes attached to *ToolError by the registry and tool adapters.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeExecution        = "EXECUTION_ERROR"
	CodeNotFound         = "TOOL_NOT_FOUND"
	CodeDangerousBlocked = "DANGEROUS_BLOCKED"
	CodeDepthExceeded    = "DEPTH_EXCEEDED"
	CodePanic            = "PANIC"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
