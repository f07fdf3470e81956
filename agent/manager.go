package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/logging"
	"github.com/hupe1980/archon/model"
	"github.com/hupe1980/archon/retrieval"
	"github.com/hupe1980/archon/store"
	"github.com/hupe1980/archon/tool"
)

// MasterAgentID is the id of the auto-created master agent.
const MasterAgentID = "master"

// defaultMasterName labels the auto-created master agent.
const defaultMasterName = "Archon"

// smokeTestQuery is the canned query used by TestAgent.
const smokeTestQuery = "Hello! Please reply with a short greeting to confirm you are working."

// testAllConcurrency bounds how many smoke tests run in parallel.
const testAllConcurrency = 4

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Retriever retrieval.Retriever
	Tools     *tool.Registry
	Logger    logging.Logger
	VaultRoot string
	// CallTimeout bounds every ExecuteAgent call, including the model and
	// tool round-trips inside it. Zero disables the timeout.
	CallTimeout  time.Duration
	ModelOptions model.Options
	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

// Manager is the single source of truth for the agent roster and the only
// writer of the executor map. Concurrent ExecuteAgent calls read the map
// under a shared lock; structural mutations (Initialize, AddAgent,
// UpdateAgent, DeleteAgent, ToggleAgent) serialize on the write lock.
type Manager struct {
	mu        sync.RWMutex
	stor      store.Store
	models    *model.Registry
	retriever retrieval.Retriever
	tools     *tool.Registry
	logger    logging.Logger
	vaultRoot string
	timeout   time.Duration
	modelOpts model.Options
	now       func() time.Time

	snapshot  store.Snapshot
	executors map[string]*Executor
	// delegations tracks the delegation tool names currently registered,
	// keyed by agent id, so roster changes can retire stale tools.
	delegations map[string]string

	initialized bool
}

// NewManager constructs a Manager over the given persistence store and
// model binding registry. Call Initialize before executing agents.
func NewManager(stor store.Store, models *model.Registry, optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{
		Tools:  tool.NewRegistry(),
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		stor:        stor,
		models:      models,
		retriever:   opts.Retriever,
		tools:       opts.Tools,
		logger:      opts.Logger,
		vaultRoot:   opts.VaultRoot,
		timeout:     opts.CallTimeout,
		modelOpts:   opts.ModelOptions,
		now:         opts.Clock,
		executors:   make(map[string]*Executor),
		delegations: make(map[string]string),
	}
}

// Tools returns the shared tool registry so callers can register their own
// tools alongside the delegation tools the manager maintains.
func (m *Manager) Tools() *tool.Registry { return m.tools }

// Initialize loads the roster, guarantees exactly one master config
// (creating one bound to the first enabled model binding if absent),
// rebuilds the executor map, wires delegation tools and regenerates the
// master prompt. It is idempotent: calling it twice yields the same
// executor-id set and exactly one master.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := m.stor.Load()
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	m.snapshot = snap

	if err := m.ensureMasterLocked(); err != nil {
		return err
	}
	if m.snapshot.DefaultID == "" {
		m.snapshot.DefaultID = m.snapshot.MasterID
	}
	if err := m.persistLocked(); err != nil {
		return err
	}

	m.executors = make(map[string]*Executor)
	for _, cfg := range m.snapshot.Agents {
		if cfg.Enabled && !cfg.Master {
			m.buildExecutorLocked(cfg)
		}
	}
	m.rewireLocked()

	m.initialized = true
	m.logger.Info("manager.initialized",
		"agents", len(m.snapshot.Agents),
		"executors", len(m.executors),
		"master", m.snapshot.MasterID,
	)
	return nil
}

// ensureMasterLocked enforces the single-master invariant: exactly one
// config with Master=true once initialization completes. Extra master
// flags (e.g. from a hand-edited roster file) are demoted.
func (m *Manager) ensureMasterLocked() error {
	masterIdx := -1
	for i := range m.snapshot.Agents {
		if !m.snapshot.Agents[i].Master {
			continue
		}
		if masterIdx == -1 || m.snapshot.Agents[i].ID == m.snapshot.MasterID {
			if masterIdx != -1 {
				m.snapshot.Agents[masterIdx].Master = false
			}
			masterIdx = i
			continue
		}
		m.snapshot.Agents[i].Master = false
	}

	if masterIdx >= 0 {
		m.snapshot.MasterID = m.snapshot.Agents[masterIdx].ID
		return nil
	}

	binding, ok := m.models.FirstEnabled()
	if !ok {
		return core.NewValidationError("model_binding_id", "no enabled model binding available for the master agent")
	}

	now := m.now()
	master := core.AgentConfig{
		ID:             MasterAgentID,
		Name:           defaultMasterName,
		Description:    "Delegates requests to the best suited specialist agent.",
		SystemPrompt:   BuildMasterPrompt(nil),
		ModelBindingID: binding.ID,
		Retrieval: core.RetrievalSettings{
			TopK:           5,
			ScoreThreshold: 0.3,
			Strategy:       core.RetrievalSemantic,
		},
		EnableTools: true,
		Enabled:     true,
		Permanent:   true,
		Master:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.snapshot.Agents = append(m.snapshot.Agents, master)
	m.snapshot.MasterID = master.ID
	m.logger.Info("manager.master.created", "master", master.ID, "model_binding", binding.ID)
	return nil
}

// AddAgent validates, persists and activates a new agent config. The
// master's catalog is refreshed so it can delegate to the newcomer
// immediately.
func (m *Manager) AddAgent(cfg core.AgentConfig) (core.AgentConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if _, ok := m.findLocked(cfg.ID); ok {
		return core.AgentConfig{}, core.NewValidationError("id", fmt.Sprintf("agent '%s' already exists", cfg.ID))
	}
	if cfg.Master {
		return core.AgentConfig{}, core.NewValidationError("master", "the master agent is managed by the registry and cannot be added")
	}
	if err := ValidateConfig(cfg, m.models); err != nil {
		return core.AgentConfig{}, err
	}

	now := m.now()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	m.snapshot.Agents = append(m.snapshot.Agents, cfg.Clone())
	if err := m.persistLocked(); err != nil {
		m.snapshot.Agents = m.snapshot.Agents[:len(m.snapshot.Agents)-1]
		return core.AgentConfig{}, err
	}

	if cfg.Enabled {
		m.buildExecutorLocked(cfg)
	}
	m.rewireLocked()

	m.logger.Info("manager.agent.added", "agent", cfg.ID, "enabled", cfg.Enabled)
	return cfg.Clone(), nil
}

// UpdateAgent applies a partial update, persists it, rebuilds the affected
// executor and, unless the target is the master, refreshes the master's
// catalog and prompt.
func (m *Manager) UpdateAgent(id string, update core.AgentUpdate) (core.AgentConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.findLocked(id)
	if !ok {
		return core.AgentConfig{}, &core.AgentNotFoundError{ID: id}
	}

	updated := m.snapshot.Agents[idx].Clone()
	update.Apply(&updated, m.now())
	if err := ValidateConfig(updated, m.models); err != nil {
		return core.AgentConfig{}, err
	}

	previous := m.snapshot.Agents[idx]
	m.snapshot.Agents[idx] = updated
	if err := m.persistLocked(); err != nil {
		m.snapshot.Agents[idx] = previous
		return core.AgentConfig{}, err
	}

	delete(m.executors, id)
	if updated.Enabled && !updated.Master {
		m.buildExecutorLocked(updated)
	}
	if updated.Master {
		m.rebuildMasterLocked()
	} else {
		m.rewireLocked()
	}

	m.logger.Info("manager.agent.updated", "agent", id)
	return updated.Clone(), nil
}

// DeleteAgent removes an agent. Permanent agents, the master included, are
// refused.
func (m *Manager) DeleteAgent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.findLocked(id)
	if !ok {
		return &core.AgentNotFoundError{ID: id}
	}
	cfg := m.snapshot.Agents[idx]
	if cfg.Master || cfg.Permanent {
		return core.NewValidationError("id", fmt.Sprintf("agent '%s' is permanent and cannot be deleted", id))
	}

	previous := m.snapshot.Agents
	previousDefault := m.snapshot.DefaultID
	m.snapshot.Agents = append(append([]core.AgentConfig{}, previous[:idx]...), previous[idx+1:]...)
	if m.snapshot.DefaultID == id {
		m.snapshot.DefaultID = m.snapshot.MasterID
	}
	if err := m.persistLocked(); err != nil {
		m.snapshot.Agents = previous
		m.snapshot.DefaultID = previousDefault
		return err
	}

	delete(m.executors, id)
	m.rewireLocked()

	m.logger.Info("manager.agent.deleted", "agent", id)
	return nil
}

// ToggleAgent enables or disables an agent. Disabling the master is
// refused; a registry without a live master cannot delegate at all.
func (m *Manager) ToggleAgent(id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.findLocked(id)
	if !ok {
		return &core.AgentNotFoundError{ID: id}
	}
	cfg := &m.snapshot.Agents[idx]
	if cfg.Master && !enabled {
		return core.NewValidationError("enabled", "the master agent cannot be disabled")
	}
	if cfg.Enabled == enabled {
		return nil
	}

	wasEnabled := cfg.Enabled
	cfg.Enabled = enabled
	cfg.UpdatedAt = m.now()
	if err := m.persistLocked(); err != nil {
		cfg.Enabled = wasEnabled
		return err
	}

	delete(m.executors, id)
	if enabled && !cfg.Master {
		m.buildExecutorLocked(*cfg)
	}
	if cfg.Master {
		m.rebuildMasterLocked()
	} else {
		m.rewireLocked()
	}

	m.logger.Info("manager.agent.toggled", "agent", id, "enabled", enabled)
	return nil
}

// GetAgent returns a copy of an agent config.
func (m *Manager) GetAgent(id string) (core.AgentConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.findLocked(id)
	if !ok {
		return core.AgentConfig{}, &core.AgentNotFoundError{ID: id}
	}
	return m.snapshot.Agents[idx].Clone(), nil
}

// ListAgents returns copies of all agent configs.
func (m *Manager) ListAgents() []core.AgentConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.AgentConfig, len(m.snapshot.Agents))
	for i, cfg := range m.snapshot.Agents {
		out[i] = cfg.Clone()
	}
	return out
}

// MasterID returns the id of the master agent.
func (m *Manager) MasterID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.MasterID
}

// DefaultAgentID returns the id of the default agent.
func (m *Manager) DefaultAgentID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.DefaultID
}

// SetDefaultAgent persists a new default agent id.
func (m *Manager) SetDefaultAgent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.findLocked(id); !ok {
		return &core.AgentNotFoundError{ID: id}
	}
	previous := m.snapshot.DefaultID
	m.snapshot.DefaultID = id
	if err := m.persistLocked(); err != nil {
		m.snapshot.DefaultID = previous
		return err
	}
	return nil
}

// ExecuteOptions carries the optional inputs of ExecuteAgent.
type ExecuteOptions struct {
	History     []core.Message
	NoteContext string
	Extra       map[string]any
}

// ExecuteAgent runs the agent with the given id against the query and
// returns its AgentResponse unchanged. It fails with AgentNotFoundError
// when no live executor exists for the id.
func (m *Manager) ExecuteAgent(ctx context.Context, id, query string, optFns ...func(o *ExecuteOptions)) (*core.AgentResponse, error) {
	opts := ExecuteOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return m.execute(ctx, id, Request{
		Query:       query,
		History:     opts.History,
		NoteContext: opts.NoteContext,
		Extra:       opts.Extra,
	})
}

// execute resolves the executor under the read lock and runs it outside,
// so long runs never block roster reads or each other.
func (m *Manager) execute(ctx context.Context, id string, req Request) (*core.AgentResponse, error) {
	m.mu.RLock()
	exec, ok := m.executors[id]
	m.mu.RUnlock()
	if !ok {
		return nil, &core.AgentNotFoundError{ID: id}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return exec.Execute(ctx, req)
}

// TestAgent runs the canned smoke test against one agent and records the
// outcome on its config. Execution failures are captured in the returned
// TestStatus, never propagated.
func (m *Manager) TestAgent(ctx context.Context, id string) (core.TestStatus, error) {
	if _, err := m.GetAgent(id); err != nil {
		return core.TestStatus{}, err
	}

	status := core.TestStatus{State: core.TestStatePassed, TestedAt: m.now()}
	if _, err := m.execute(ctx, id, Request{Query: smokeTestQuery}); err != nil {
		status.State = core.TestStateFailed
		status.Message = err.Error()
	}

	m.mu.Lock()
	if idx, ok := m.findLocked(id); ok {
		st := status
		m.snapshot.Agents[idx].TestStatus = &st
		if err := m.persistLocked(); err != nil {
			m.logger.Warn("manager.test.persist_failed", "agent", id, "error", err.Error())
		}
	}
	m.mu.Unlock()

	m.logger.Info("manager.agent.tested", "agent", id, "state", string(status.State))
	return status, nil
}

// TestAllAgents smoke-tests every enabled agent concurrently and returns
// the outcomes keyed by agent id. Individual failures are recorded, never
// propagated.
func (m *Manager) TestAllAgents(ctx context.Context) map[string]core.TestStatus {
	m.mu.RLock()
	var ids []string
	for id := range m.executors {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	var (
		resMu   sync.Mutex
		results = make(map[string]core.TestStatus, len(ids))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(testAllConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			status, err := m.TestAgent(ctx, id)
			if err != nil {
				status = core.TestStatus{State: core.TestStateFailed, Message: err.Error(), TestedAt: m.now()}
			}
			resMu.Lock()
			results[id] = status
			resMu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are in the map

	return results
}

// ValidateConfig exposes config validation against the manager's binding
// registry.
func (m *Manager) ValidateConfig(cfg core.AgentConfig) error {
	return ValidateConfig(cfg, m.models)
}

// findLocked locates a config index by id. Callers hold at least the read
// lock.
func (m *Manager) findLocked(id string) (int, bool) {
	for i := range m.snapshot.Agents {
		if m.snapshot.Agents[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (m *Manager) persistLocked() error {
	if err := m.stor.Save(m.snapshot); err != nil {
		return fmt.Errorf("persist roster: %w", err)
	}
	return nil
}

// buildExecutorLocked creates the executor for an enabled config. A config
// whose binding can no longer be resolved is skipped with a warning, which
// keeps the rest of the roster available.
func (m *Manager) buildExecutorLocked(cfg core.AgentConfig) {
	llm, err := m.models.Resolve(cfg.ModelBindingID)
	if err != nil {
		m.logger.Warn("manager.executor.skipped", "agent", cfg.ID, "error", err.Error())
		return
	}

	exec, err := NewExecutor(cfg, llm, func(o *ExecutorOptions) {
		o.Retriever = m.retriever
		o.Tools = m.tools
		o.VaultRoot = m.vaultRoot
		o.Logger = m.logger
		o.ModelOptions = m.modelOpts
	})
	if err != nil {
		m.logger.Warn("manager.executor.skipped", "agent", cfg.ID, "error", err.Error())
		return
	}
	m.executors[cfg.ID] = exec
}

// callableLocked returns the agents the master may delegate to: every
// enabled agent except the master itself.
func (m *Manager) callableLocked() []core.AgentConfig {
	var callable []core.AgentConfig
	for _, cfg := range m.snapshot.Agents {
		if cfg.Enabled && !cfg.Master {
			callable = append(callable, cfg.Clone())
		}
	}
	return callable
}

// rewireLocked synchronizes the delegation tool catalog with the current
// callable agent list and regenerates the master prompt from the same
// list, so the master's view of "who exists" never goes stale.
func (m *Manager) rewireLocked() {
	callable := m.callableLocked()

	seen := make(map[string]bool, len(callable))
	for _, cfg := range callable {
		seen[cfg.ID] = true
		name := DelegationToolName(cfg.ID)
		m.tools.Register(&delegateTool{
			manager:     m,
			agentID:     cfg.ID,
			agentName:   cfg.Name,
			description: cfg.Description,
		})
		m.delegations[cfg.ID] = name
	}
	for id, name := range m.delegations {
		if !seen[id] {
			m.tools.Unregister(name)
			delete(m.delegations, id)
		}
	}

	m.regenerateMasterLocked(callable)
}

// regenerateMasterLocked rewrites the master's synthesized prompt and hot
// reloads its executor.
func (m *Manager) regenerateMasterLocked(callable []core.AgentConfig) {
	idx, ok := m.findLocked(m.snapshot.MasterID)
	if !ok {
		return
	}
	m.snapshot.Agents[idx].SystemPrompt = BuildMasterPrompt(callable)
	m.snapshot.Agents[idx].UpdatedAt = m.now()
	if err := m.persistLocked(); err != nil {
		m.logger.Warn("manager.master.persist_failed", "error", err.Error())
	}
	m.rebuildMasterLocked()
}

// rebuildMasterLocked recreates the master executor from its current
// config.
func (m *Manager) rebuildMasterLocked() {
	idx, ok := m.findLocked(m.snapshot.MasterID)
	if !ok {
		return
	}
	cfg := m.snapshot.Agents[idx]
	delete(m.executors, cfg.ID)
	if cfg.Enabled {
		m.buildExecutorLocked(cfg)
	}
}
