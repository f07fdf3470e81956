package tool

import (
	"fmt"
	"time"

	"github.com/hupe1980/archon/internal/util"
)

// FunctionTool is a generic adapter that exposes a plain Go function as an
// Archon tool.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification
//   - Validates model supplied arguments against that schema before execution
//   - Invokes the wrapped function with the run's *ExecContext
//   - Normalizes error handling so callers receive *ToolError with
//     consistent codes (VALIDATION_ERROR, EXECUTION_ERROR; custom codes are
//     preserved if the function returns *ToolError directly)
//
// A FunctionTool has no internal mutable state after construction and is
// safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	category    string
	dangerous   bool
	parameters  map[string]any
	examples    []string
	fn          func(ec *ExecContext, args map[string]any) (any, error)
}

// FunctionToolOptions configures optional catalog metadata.
type FunctionToolOptions struct {
	Category  string
	Dangerous bool
	Examples  []string
}

// NewFunctionTool constructs a FunctionTool from explicit schema and
// function.
//
// Example:
//
//	readNote := NewFunctionTool(
//	  "read_note",
//	  "Read the contents of a note by path",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "path": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"path"},
//	  },
//	  func(ec *ExecContext, args map[string]any) (any, error) {
//	    p := args["path"].(string)
//	    if !ec.PathAllowed(p) {
//	      return nil, fmt.Errorf("path %q outside folder scope", p)
//	    }
//	    return readNote(ec.Context(), ec.VaultRoot, p)
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ec *ExecContext, args map[string]any) (any, error),
	optFns ...func(o *FunctionToolOptions),
) *FunctionTool {
	opts := FunctionToolOptions{Category: "general"}
	for _, f := range optFns {
		f(&opts)
	}
	return &FunctionTool{
		name:        name,
		description: description,
		category:    opts.Category,
		dangerous:   opts.Dangerous,
		parameters:  parameters,
		examples:    opts.Examples,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct
// using reflection, equivalent to util.CreateSchema(structType).
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(ec *ExecContext, args map[string]any) (any, error),
	optFns ...func(o *FunctionToolOptions),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn, optFns...)
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Category returns the catalog category.
func (t *FunctionTool) Category() string { return t.category }

// Dangerous reports whether the tool mutates external state.
func (t *FunctionTool) Dangerous() bool { return t.dangerous }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Examples returns usage examples for prompt instructions.
func (t *FunctionTool) Examples() []string { return t.examples }

// Call validates the provided args against the declared schema then invokes
// the underlying function.
//
// Error semantics:
//
//	*ToolError (returned directly)  -> forwarded unchanged
//	validation failure              -> *ToolError{Code: VALIDATION_ERROR}
//	other error                     -> *ToolError{Code: EXECUTION_ERROR}
func (t *FunctionTool) Call(ec *ExecContext, args map[string]any) (any, error) {
	logger := ec.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name, "agent", ec.AgentID)

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(ec, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)
			return nil, toolErr
		}

		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		return nil, &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}
