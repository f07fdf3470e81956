package core

import (
	"encoding/json"
	"fmt"
)

// ToolInvocation is one request to run a named tool. It is always paired 1:1
// with a model-issued ToolCall; ID carries the model's call id through the
// tool boundary for correlation.
type ToolInvocation struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	ID        string         `json:"id"`
}

// ToolResult is the outcome of a single tool invocation. Tool execution
// never raises past the collaborator boundary; failures are captured here
// and fed back to the model as data.
type ToolResult struct {
	ToolName string `json:"tool_name"`
	CallID   string `json:"call_id"`
	Success  bool   `json:"success"`
	Output   any    `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Render returns the result serialized for a function-role message. Errors
// are rendered as a structured object so the model can adapt to them.
func (r ToolResult) Render() string {
	payload := map[string]any{"success": r.Success}
	if r.Success {
		payload["result"] = r.Output
	} else {
		payload["error"] = r.Error
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, "unserializable tool result")
	}
	return string(b)
}
