package model

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/hupe1980/archon/core"
)

// usageEncoding is the tokenizer used for usage estimation when a provider
// omits token accounting. cl100k_base matches the chat model families the
// adapters target closely enough for accounting purposes.
const usageEncoding = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

func encoder() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		enc, _ = tiktoken.GetEncoding(usageEncoding)
	})
	return enc
}

// countTokens returns the token count of text, falling back to a bytes/4
// heuristic when the encoding is unavailable (e.g. offline first use).
func countTokens(text string) int {
	if e := encoder(); e != nil {
		return len(e.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

// EstimateUsage approximates token usage for one round-trip from the prompt
// messages and the completion text. Adapters prefer provider-reported
// usage; the executor calls this only when none was returned.
func EstimateUsage(messages []core.Message, completion string) *core.TokenUsage {
	prompt := 0
	for _, m := range messages {
		// Small per-message overhead for role framing tokens.
		prompt += countTokens(m.Content) + 4
		if m.ToolCall != nil {
			prompt += countTokens(m.ToolCall.Name) + countTokens(string(m.ToolCall.Arguments))
		}
	}
	out := countTokens(completion)
	return &core.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: out,
		TotalTokens:      prompt + out,
	}
}
