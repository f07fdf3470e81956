package core

import "time"

// TokenUsage captures token accounting for one run.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage from another model round-trip.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// AgentResponse is the single, complete result of one executor run. It is
// produced exactly once per Execute call and owned by the caller.
type AgentResponse struct {
	Answer          string           `json:"answer"`
	Sources         []string         `json:"sources,omitempty"`
	AgentUsed       string           `json:"agent_used"`
	ModelProvider   string           `json:"model_provider"`
	Model           string           `json:"model"`
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks,omitempty"`
	Usage           *TokenUsage      `json:"usage,omitempty"`
	ExecutionTime   time.Duration    `json:"execution_time_ms"`
	ToolResults     []ToolResult     `json:"tool_results,omitempty"`
}
