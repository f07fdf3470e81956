package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/archon/core"
)

// Mock is a lightweight in-memory Model useful for tests and examples. It
// replays an enqueued script of results; when the script is exhausted it
// either repeats the final entry (RepeatLast) or echoes the last user
// message.
type Mock struct {
	mu     sync.Mutex
	info   Info
	script []Result
	err    error

	// RepeatLast keeps returning the final script entry once the script is
	// exhausted. Useful for "model always requests a tool" scenarios.
	RepeatLast bool

	// Call accounting for assertions.
	ChatCalls     int
	ToolCallCalls int
	LastMessages  []core.Message
	LastTools     []ToolDefinition
}

// NewMock constructs a Mock with tool support enabled.
func NewMock(name, provider string) *Mock {
	return &Mock{info: Info{Name: name, Provider: provider, SupportsTools: true}}
}

// NewMockWithoutTools constructs a Mock that does not advertise function
// calling, exercising the single-call fallback path.
func NewMockWithoutTools(name, provider string) *Mock {
	return &Mock{info: Info{Name: name, Provider: provider, SupportsTools: false}}
}

// Enqueue appends results to the script in FIFO order.
func (m *Mock) Enqueue(results ...Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, results...)
}

// FailWith makes every subsequent call return err.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Chat implements Model.
func (m *Mock) Chat(ctx context.Context, messages []core.Message, _ Options) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls++
	m.LastMessages = append([]core.Message(nil), messages...)
	m.LastTools = nil
	return m.next(ctx, messages)
}

// ChatWithTools implements FunctionCaller.
func (m *Mock) ChatWithTools(ctx context.Context, messages []core.Message, tools []ToolDefinition, _ Options) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ToolCallCalls++
	m.LastMessages = append([]core.Message(nil), messages...)
	m.LastTools = append([]ToolDefinition(nil), tools...)
	return m.next(ctx, messages)
}

// Info implements Model.
func (m *Mock) Info() Info { return m.info }

func (m *Mock) next(ctx context.Context, messages []core.Message) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) > 0 {
		res := m.script[0]
		if len(m.script) > 1 || !m.RepeatLast {
			m.script = m.script[1:]
		}
		res.Model = m.info.Name
		if res.FinishReason == "" {
			if res.ToolCall != nil {
				res.FinishReason = "tool_calls"
			} else {
				res.FinishReason = "stop"
			}
		}
		return &res, nil
	}

	var lastUser string
	for _, msg := range messages {
		if msg.Role == core.RoleUser {
			lastUser = msg.Content
		}
	}
	return &Result{
		Content:      fmt.Sprintf("Mock response to: %s", lastUser),
		Model:        m.info.Name,
		FinishReason: "stop",
	}, nil
}
