// Package archon provides a high-level façade over the agent registry and
// executor machinery enabling rapid construction of retrieval-augmented
// multi-agent assistants. Most applications interact with this package by:
//  1. Creating an Archon via New() with a model binding registry (optionally
//     overriding the default in-memory roster store, retriever and tools)
//  2. Calling Initialize() once, which loads the roster and guarantees a
//     master agent exists
//  3. Managing specialist agents (AddAgent, UpdateAgent, ...) and executing
//     them directly or through the master's delegation
//
// The façade delegates orchestration to agent.Manager while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a file-backed roster
// store and a structured logger.
package archon

import (
	"context"
	"time"

	"github.com/hupe1980/archon/agent"
	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/logging"
	"github.com/hupe1980/archon/model"
	"github.com/hupe1980/archon/retrieval"
	"github.com/hupe1980/archon/store"
	"github.com/hupe1980/archon/tool"
)

// Options configures the Archon instance.
type Options struct {
	// Store persists the agent roster (defaults to in-memory if not provided).
	Store store.Store

	// Retriever supplies knowledge-base context for agent runs. Nil disables
	// retrieval; agents then answer from the prompt and conversation alone.
	Retriever retrieval.Retriever

	// Tools is the shared tool registry. Delegation tools are registered into
	// it automatically; applications add their own tools alongside.
	Tools *tool.Registry

	// VaultRoot restricts folder-scoped tools to paths under this root.
	VaultRoot string

	// CallTimeout bounds every agent execution including its tool
	// round-trips. Zero disables the timeout.
	CallTimeout time.Duration

	// ModelOptions are applied to every model call (temperature, max tokens).
	ModelOptions model.Options

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Archon is the high-level façade aggregating the agent manager and its
// collaborators.
type Archon struct {
	opts    Options
	manager *agent.Manager
}

// New creates a new Archon instance over the given model binding registry
// with optional overrides. Any unset service is initialized with an
// in-memory implementation.
func New(models *model.Registry, optFns ...func(o *Options)) *Archon {
	opts := Options{
		Store:  store.NewInMemoryStore(),
		Tools:  tool.NewRegistry(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	m := agent.NewManager(opts.Store, models, func(o *agent.ManagerOptions) {
		o.Retriever = opts.Retriever
		o.Tools = opts.Tools
		o.Logger = opts.Logger
		o.VaultRoot = opts.VaultRoot
		o.CallTimeout = opts.CallTimeout
		o.ModelOptions = opts.ModelOptions
	})

	return &Archon{opts: opts, manager: m}
}

// Initialize loads the roster and guarantees a live master agent. It must be
// called before any execution and is safe to call more than once.
func (a *Archon) Initialize(ctx context.Context) error { return a.manager.Initialize(ctx) }

// Manager exposes the underlying agent manager for advanced use.
func (a *Archon) Manager() *agent.Manager { return a.manager }

// Tools returns the shared tool registry.
func (a *Archon) Tools() *tool.Registry { return a.manager.Tools() }

// AddAgent registers a new specialist agent.
func (a *Archon) AddAgent(cfg core.AgentConfig) (core.AgentConfig, error) {
	return a.manager.AddAgent(cfg)
}

// UpdateAgent applies a partial update to an existing agent.
func (a *Archon) UpdateAgent(id string, update core.AgentUpdate) (core.AgentConfig, error) {
	return a.manager.UpdateAgent(id, update)
}

// DeleteAgent removes a non-permanent agent.
func (a *Archon) DeleteAgent(id string) error { return a.manager.DeleteAgent(id) }

// ToggleAgent enables or disables an agent.
func (a *Archon) ToggleAgent(id string, enabled bool) error {
	return a.manager.ToggleAgent(id, enabled)
}

// GetAgent returns a copy of an agent config.
func (a *Archon) GetAgent(id string) (core.AgentConfig, error) { return a.manager.GetAgent(id) }

// ListAgents returns copies of all agent configs.
func (a *Archon) ListAgents() []core.AgentConfig { return a.manager.ListAgents() }

// Execute runs a specific agent against a query.
func (a *Archon) Execute(ctx context.Context, agentID, query string, optFns ...func(o *agent.ExecuteOptions)) (*core.AgentResponse, error) {
	return a.manager.ExecuteAgent(ctx, agentID, query, optFns...)
}

// Ask routes a query through the master agent, which answers directly or
// delegates to a specialist.
func (a *Archon) Ask(ctx context.Context, query string, optFns ...func(o *agent.ExecuteOptions)) (*core.AgentResponse, error) {
	return a.manager.ExecuteAgent(ctx, a.manager.MasterID(), query, optFns...)
}

// TestAgent smoke-tests one agent and records the outcome on its config.
func (a *Archon) TestAgent(ctx context.Context, id string) (core.TestStatus, error) {
	return a.manager.TestAgent(ctx, id)
}

// TestAllAgents smoke-tests every enabled agent concurrently.
func (a *Archon) TestAllAgents(ctx context.Context) map[string]core.TestStatus {
	return a.manager.TestAllAgents(ctx)
}
