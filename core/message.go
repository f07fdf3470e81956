package core

import "encoding/json"

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem carries instructions to the model.
	RoleSystem Role = "system"
	// RoleUser carries end-user input.
	RoleUser Role = "user"
	// RoleAssistant carries model output, optionally a tool call request.
	RoleAssistant Role = "assistant"
	// RoleFunction carries the result of a tool call back to the model. A
	// function message always pairs with the preceding assistant message
	// that requested the call.
	RoleFunction Role = "function"
)

// ToolCall is a model-issued request to invoke a named external operation.
// Arguments is the raw JSON argument object exactly as produced by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one entry of a conversation. The valid shapes are:
//
//	{Role: system|user, Content}
//	{Role: assistant, Content, optional ToolCall}
//	{Role: function, Name, CallID, Content}  -- result of the paired ToolCall
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name is the tool name for function messages.
	Name string `json:"name,omitempty"`
	// CallID pairs a function message with the assistant tool call it answers.
	CallID string `json:"call_id,omitempty"`
	// ToolCall is set on assistant messages that request a tool invocation.
	ToolCall *ToolCall `json:"tool_call,omitempty"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage builds a user-role message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// FunctionMessage builds a function-role message answering the given call.
func FunctionMessage(callID, name, content string) Message {
	return Message{Role: RoleFunction, Name: name, CallID: callID, Content: content}
}

// LastUserTurns returns the content of the last n user-role messages in
// order of appearance. Used to widen the retrieval query with recent
// conversational context.
func LastUserTurns(history []Message, n int) []string {
	var turns []string
	for _, m := range history {
		if m.Role == RoleUser {
			turns = append(turns, m.Content)
		}
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns
}
