package core

import "time"

// RetrievalStrategy selects how the retrieval collaborator ranks context
// chunks for an agent.
type RetrievalStrategy string

const (
	// RetrievalSemantic ranks chunks by embedding similarity.
	RetrievalSemantic RetrievalStrategy = "semantic"
	// RetrievalKeyword ranks chunks by lexical term overlap.
	RetrievalKeyword RetrievalStrategy = "keyword"
	// RetrievalHybrid combines semantic and keyword scores.
	RetrievalHybrid RetrievalStrategy = "hybrid"
)

// Retrieval bounds used by config validation.
const (
	MinTopK = 1
	MaxTopK = 20
)

// RetrievalSettings configures how much and how strictly context is pulled
// in before a run.
//
// Contract:
//   - TopK must be within [MinTopK, MaxTopK]
//   - ScoreThreshold must be within [0, 1]
type RetrievalSettings struct {
	TopK           int               `json:"top_k" yaml:"top_k"`
	ScoreThreshold float64           `json:"score_threshold" yaml:"score_threshold"`
	Strategy       RetrievalStrategy `json:"strategy" yaml:"strategy"`
}

// TestState is the recorded outcome of the most recent smoke test.
type TestState string

const (
	// TestStateUntested means no smoke test has run yet.
	TestStateUntested TestState = "untested"
	// TestStatePassed means the last smoke test returned a response.
	TestStatePassed TestState = "passed"
	// TestStateFailed means the last smoke test returned an error.
	TestStateFailed TestState = "failed"
)

// TestStatus records the result of the last smoke test of an agent.
type TestStatus struct {
	State    TestState `json:"state" yaml:"state"`
	Message  string    `json:"message,omitempty" yaml:"message,omitempty"`
	TestedAt time.Time `json:"tested_at" yaml:"tested_at"`
}

// AgentConfig is the persisted description of one agent: a prompt template,
// a model binding and a permission / capability envelope. Configs are value
// types; the manager hands out copies so callers can never mutate the roster
// through a returned config.
type AgentConfig struct {
	// ID uniquely identifies the agent across the roster.
	ID string `json:"id" yaml:"id"`
	// Name is the human readable display name.
	Name string `json:"name" yaml:"name"`
	// Description tells the master agent (and humans) what this agent is for.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// SystemPrompt is the system prompt template. It must contain the
	// context slot (see PromptTemplate); validation rejects templates
	// without it.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
	// ModelBindingID references a configured model binding by id.
	ModelBindingID string `json:"model_binding_id" yaml:"model_binding_id"`
	// Retrieval configures context retrieval for this agent.
	Retrieval RetrievalSettings `json:"retrieval" yaml:"retrieval"`
	// EnableTools allows the agent to issue tool calls.
	EnableTools bool `json:"enable_tools" yaml:"enable_tools"`
	// AllowDangerousOperations permits tools that mutate external state.
	// When false the agent runs read-only.
	AllowDangerousOperations bool `json:"allow_dangerous_operations" yaml:"allow_dangerous_operations"`
	// FolderScope restricts tool calls to the listed folders. Empty means
	// unrestricted.
	FolderScope []string `json:"folder_scope,omitempty" yaml:"folder_scope,omitempty"`
	// Capabilities advertises what the agent can do; surfaced in the master
	// agent's catalog.
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	// Category groups agents in the master catalog ("research", "writing", ...).
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	// Enabled controls whether an executor exists for this config.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Permanent marks configs the manager refuses to delete or disable.
	Permanent bool `json:"permanent" yaml:"permanent"`
	// Master marks the single delegating agent. Exactly one config carries
	// this flag once the manager is initialized.
	Master bool `json:"master" yaml:"master"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// TestStatus is the last smoke test outcome, nil if never tested.
	TestStatus *TestStatus `json:"test_status,omitempty" yaml:"test_status,omitempty"`
}

// Clone returns a deep copy safe for independent mutation.
func (c AgentConfig) Clone() AgentConfig {
	clone := c
	clone.FolderScope = append([]string(nil), c.FolderScope...)
	clone.Capabilities = append([]string(nil), c.Capabilities...)
	if c.TestStatus != nil {
		ts := *c.TestStatus
		clone.TestStatus = &ts
	}
	return clone
}

// AgentUpdate is a partial update applied by Manager.UpdateAgent. Nil fields
// are left untouched.
type AgentUpdate struct {
	Name                     *string
	Description              *string
	SystemPrompt             *string
	ModelBindingID           *string
	Retrieval                *RetrievalSettings
	EnableTools              *bool
	AllowDangerousOperations *bool
	FolderScope              *[]string
	Capabilities             *[]string
	Category                 *string
}

// Apply merges the update into cfg and bumps UpdatedAt.
func (u AgentUpdate) Apply(cfg *AgentConfig, now time.Time) {
	if u.Name != nil {
		cfg.Name = *u.Name
	}
	if u.Description != nil {
		cfg.Description = *u.Description
	}
	if u.SystemPrompt != nil {
		cfg.SystemPrompt = *u.SystemPrompt
	}
	if u.ModelBindingID != nil {
		cfg.ModelBindingID = *u.ModelBindingID
	}
	if u.Retrieval != nil {
		cfg.Retrieval = *u.Retrieval
	}
	if u.EnableTools != nil {
		cfg.EnableTools = *u.EnableTools
	}
	if u.AllowDangerousOperations != nil {
		cfg.AllowDangerousOperations = *u.AllowDangerousOperations
	}
	if u.FolderScope != nil {
		cfg.FolderScope = append([]string(nil), (*u.FolderScope)...)
	}
	if u.Capabilities != nil {
		cfg.Capabilities = append([]string(nil), (*u.Capabilities)...)
	}
	if u.Category != nil {
		cfg.Category = *u.Category
	}
	cfg.UpdatedAt = now
}
