package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/internal/testutil"
	"github.com/hupe1980/archon/logging"
	"github.com/hupe1980/archon/model"
	"github.com/hupe1980/archon/store"
	"github.com/hupe1980/archon/tool"
)

type managerFixture struct {
	manager *Manager
	mock    *model.Mock
	store   *store.InMemoryStore
	clock   *time.Time
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()

	mock := model.NewMock("m", "mock")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stor := store.NewInMemoryStore()

	m := NewManager(stor, testutil.Models(mock), func(o *ManagerOptions) {
		o.Logger = logging.NoOpLogger{}
		o.Clock = func() time.Time { return now }
	})
	require.NoError(t, m.Initialize(context.Background()))

	return &managerFixture{manager: m, mock: mock, store: stor, clock: &now}
}

func (f *managerFixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func TestInitializeCreatesMaster(t *testing.T) {
	f := newManagerFixture(t)

	master, err := f.manager.GetAgent(f.manager.MasterID())
	require.NoError(t, err)
	assert.True(t, master.Master)
	assert.True(t, master.Permanent)
	assert.True(t, master.Enabled)
	assert.Equal(t, testutil.BindingID, master.ModelBindingID)
	assert.Equal(t, master.ID, f.manager.DefaultAgentID())

	// The synthesized prompt is a valid template.
	_, err = core.NewPromptTemplate(master.SystemPrompt)
	require.NoError(t, err)
}

func TestInitializeIsIdempotent(t *testing.T) {
	f := newManagerFixture(t)

	_, err := f.manager.AddAgent(testutil.AgentConfig("research"))
	require.NoError(t, err)

	require.NoError(t, f.manager.Initialize(context.Background()))

	agents := f.manager.ListAgents()
	assert.Len(t, agents, 2)
	masters := 0
	for _, a := range agents {
		if a.Master {
			masters++
		}
	}
	assert.Equal(t, 1, masters)

	// Both executors survive re-initialization.
	_, err = f.manager.ExecuteAgent(context.Background(), "research", "hello")
	require.NoError(t, err)
	_, err = f.manager.ExecuteAgent(context.Background(), f.manager.MasterID(), "hello")
	require.NoError(t, err)
}

func TestInitializeDemotesExtraMasters(t *testing.T) {
	stor := store.NewInMemoryStore()
	first := testutil.AgentConfig("one")
	first.Master = true
	first.Enabled = true
	second := testutil.AgentConfig("two")
	second.Master = true
	second.Enabled = true
	require.NoError(t, stor.Save(store.Snapshot{Agents: []core.AgentConfig{first, second}, MasterID: "two"}))

	m := NewManager(stor, testutil.Models(model.NewMock("m", "mock")))
	require.NoError(t, m.Initialize(context.Background()))

	assert.Equal(t, "two", m.MasterID())
	masters := 0
	for _, a := range m.ListAgents() {
		if a.Master {
			masters++
			assert.Equal(t, "two", a.ID)
		}
	}
	assert.Equal(t, 1, masters)
}

func TestInitializeRequiresEnabledBinding(t *testing.T) {
	models := model.NewRegistry()
	models.Add(model.Binding{ID: "off", Model: model.NewMock("m", "mock"), Enabled: false})

	m := NewManager(store.NewInMemoryStore(), models)
	err := m.Initialize(context.Background())
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "model_binding_id", verr.Field)
}

func TestAddAgentValidatesAndActivates(t *testing.T) {
	f := newManagerFixture(t)

	added, err := f.manager.AddAgent(testutil.AgentConfig("research"))
	require.NoError(t, err)
	assert.Equal(t, "research", added.ID)
	assert.False(t, added.CreatedAt.IsZero())

	resp, err := f.manager.ExecuteAgent(context.Background(), "research", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)

	// Rejections: duplicate id, invalid config, master flag.
	_, err = f.manager.AddAgent(testutil.AgentConfig("research"))
	assert.Error(t, err)

	bad := testutil.AgentConfig("bad")
	bad.SystemPrompt = "no slot"
	_, err = f.manager.AddAgent(bad)
	assert.Error(t, err)

	rogue := testutil.AgentConfig("rogue")
	rogue.Master = true
	_, err = f.manager.AddAgent(rogue)
	assert.Error(t, err)
}

func TestAddAgentGeneratesID(t *testing.T) {
	f := newManagerFixture(t)

	cfg := testutil.AgentConfig("")
	cfg.ID = ""
	added, err := f.manager.AddAgent(cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
}

func TestMasterPromptTracksRoster(t *testing.T) {
	f := newManagerFixture(t)

	specialist := testutil.AgentConfig("research")
	specialist.Name = "Researcher"
	_, err := f.manager.AddAgent(specialist)
	require.NoError(t, err)

	master, err := f.manager.GetAgent(f.manager.MasterID())
	require.NoError(t, err)
	assert.Contains(t, master.SystemPrompt, "research")
	assert.Contains(t, master.SystemPrompt, "Researcher")

	// The matching delegation tool exists.
	_, ok := f.manager.Tools().Get(DelegationToolName("research"))
	assert.True(t, ok)

	require.NoError(t, f.manager.DeleteAgent("research"))

	master, err = f.manager.GetAgent(f.manager.MasterID())
	require.NoError(t, err)
	assert.NotContains(t, master.SystemPrompt, "Researcher")

	_, ok = f.manager.Tools().Get(DelegationToolName("research"))
	assert.False(t, ok)
}

func TestDisabledAgentLeavesMasterCatalog(t *testing.T) {
	f := newManagerFixture(t)

	specialist := testutil.AgentConfig("research")
	specialist.Name = "Researcher"
	_, err := f.manager.AddAgent(specialist)
	require.NoError(t, err)

	require.NoError(t, f.manager.ToggleAgent("research", false))

	master, err := f.manager.GetAgent(f.manager.MasterID())
	require.NoError(t, err)
	assert.NotContains(t, master.SystemPrompt, "Researcher")

	_, err = f.manager.ExecuteAgent(context.Background(), "research", "hello")
	var nf *core.AgentNotFoundError
	assert.ErrorAs(t, err, &nf)

	require.NoError(t, f.manager.ToggleAgent("research", true))
	master, _ = f.manager.GetAgent(f.manager.MasterID())
	assert.Contains(t, master.SystemPrompt, "Researcher")
}

func TestUpdateAgentBumpsUpdatedAt(t *testing.T) {
	f := newManagerFixture(t)

	added, err := f.manager.AddAgent(testutil.AgentConfig("research"))
	require.NoError(t, err)

	f.advance(time.Minute)

	name := "Deep Researcher"
	updated, err := f.manager.UpdateAgent("research", core.AgentUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Deep Researcher", updated.Name)
	assert.True(t, updated.UpdatedAt.After(added.UpdatedAt))

	// Visible immediately via GetAgent.
	got, err := f.manager.GetAgent("research")
	require.NoError(t, err)
	assert.Equal(t, "Deep Researcher", got.Name)
	assert.True(t, got.UpdatedAt.Equal(updated.UpdatedAt))
}

func TestUpdateAgentRejectsInvalid(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.AddAgent(testutil.AgentConfig("research"))
	require.NoError(t, err)

	bad := "no slot"
	_, err = f.manager.UpdateAgent("research", core.AgentUpdate{SystemPrompt: &bad})
	assert.Error(t, err)

	// The stored config is untouched after the rejection.
	got, err := f.manager.GetAgent("research")
	require.NoError(t, err)
	assert.Contains(t, got.SystemPrompt, core.ContextSlot)

	_, err = f.manager.UpdateAgent("ghost", core.AgentUpdate{})
	var nf *core.AgentNotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDeleteAgentGuards(t *testing.T) {
	f := newManagerFixture(t)

	err := f.manager.DeleteAgent(f.manager.MasterID())
	assert.Error(t, err)

	perm := testutil.AgentConfig("keeper")
	perm.Permanent = true
	_, err = f.manager.AddAgent(perm)
	require.NoError(t, err)
	assert.Error(t, f.manager.DeleteAgent("keeper"))

	var nf *core.AgentNotFoundError
	assert.ErrorAs(t, f.manager.DeleteAgent("ghost"), &nf)
}

func TestToggleMasterOffRefused(t *testing.T) {
	f := newManagerFixture(t)

	err := f.manager.ToggleAgent(f.manager.MasterID(), false)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "enabled", verr.Field)
}

func TestExecuteAgentNotFound(t *testing.T) {
	f := newManagerFixture(t)

	_, err := f.manager.ExecuteAgent(context.Background(), "ghost", "hello")
	var nf *core.AgentNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.ID)
}

func TestMasterDelegation(t *testing.T) {
	masterMock := model.NewMock("master-model", "mock")
	researchMock := model.NewMock("research-model", "mock")

	models := model.NewRegistry()
	models.Add(model.Binding{ID: "master-binding", Model: masterMock, Enabled: true})
	models.Add(model.Binding{ID: "research-binding", Model: researchMock, Enabled: true})

	m := NewManager(store.NewInMemoryStore(), models)
	require.NoError(t, m.Initialize(context.Background()))

	specialist := testutil.AgentConfig("research")
	specialist.ModelBindingID = "research-binding"
	_, err := m.AddAgent(specialist)
	require.NoError(t, err)

	researchMock.Enqueue(model.Result{Content: "Revenue grew twelve percent."})
	masterMock.Enqueue(
		model.Result{ToolCall: &core.ToolCall{
			ID:        "call-1",
			Name:      DelegationToolName("research"),
			Arguments: json.RawMessage(`{"query": "What changed in Q3?"}`),
		}},
		model.Result{Content: "According to the research agent, revenue grew twelve percent."},
	)

	resp, err := m.ExecuteAgent(context.Background(), m.MasterID(), "What changed in Q3?")
	require.NoError(t, err)

	assert.Equal(t, "According to the research agent, revenue grew twelve percent.", resp.Answer)
	require.Len(t, resp.ToolResults, 1)
	assert.True(t, resp.ToolResults[0].Success)

	out, ok := resp.ToolResults[0].Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "research", out["agent"])
	assert.Equal(t, "Revenue grew twelve percent.", out["answer"])

	// The specialist really ran, with the delegated query as its user turn.
	require.NotEmpty(t, researchMock.LastMessages)
	last := researchMock.LastMessages[len(researchMock.LastMessages)-1]
	assert.Equal(t, "What changed in Q3?", last.Content)
}

func TestDelegationDepthGuard(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.AddAgent(testutil.AgentConfig("research"))
	require.NoError(t, err)

	dt, ok := f.manager.Tools().Get(DelegationToolName("research"))
	require.True(t, ok)

	ec := tool.NewExecContext(context.Background(), logging.NoOpLogger{})
	ec.Depth = tool.MaxCallDepth

	_, err = dt.Call(ec, map[string]any{"query": "go deeper"})
	var terr *tool.ToolError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, tool.CodeDepthExceeded, terr.Code)

	// One hop below the limit still executes.
	ec.Depth = tool.MaxCallDepth - 1
	_, err = dt.Call(ec, map[string]any{"query": "last hop"})
	assert.NoError(t, err)
}

func TestDelegationRequiresQuery(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.AddAgent(testutil.AgentConfig("research"))
	require.NoError(t, err)

	dt, _ := f.manager.Tools().Get(DelegationToolName("research"))
	_, err = dt.Call(tool.NewExecContext(context.Background(), logging.NoOpLogger{}), map[string]any{"query": "  "})
	var terr *tool.ToolError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, tool.CodeValidation, terr.Code)
}

func TestTestAgentRecordsOutcome(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.AddAgent(testutil.AgentConfig("research"))
	require.NoError(t, err)

	status, err := f.manager.TestAgent(context.Background(), "research")
	require.NoError(t, err)
	assert.Equal(t, core.TestStatePassed, status.State)

	got, err := f.manager.GetAgent("research")
	require.NoError(t, err)
	require.NotNil(t, got.TestStatus)
	assert.Equal(t, core.TestStatePassed, got.TestStatus.State)

	// A failing model is captured, not propagated.
	f.mock.FailWith(errors.New("backend down"))
	status, err = f.manager.TestAgent(context.Background(), "research")
	require.NoError(t, err)
	assert.Equal(t, core.TestStateFailed, status.State)
	assert.Contains(t, status.Message, "backend down")

	var nf *core.AgentNotFoundError
	_, err = f.manager.TestAgent(context.Background(), "ghost")
	assert.ErrorAs(t, err, &nf)
}

func TestTestAllAgents(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.AddAgent(testutil.AgentConfig("one"))
	require.NoError(t, err)
	_, err = f.manager.AddAgent(testutil.AgentConfig("two"))
	require.NoError(t, err)

	results := f.manager.TestAllAgents(context.Background())

	// Master plus both specialists.
	require.Len(t, results, 3)
	for id, status := range results {
		assert.Equal(t, core.TestStatePassed, status.State, "agent %s", id)
	}
}

func TestSetDefaultAgent(t *testing.T) {
	f := newManagerFixture(t)
	_, err := f.manager.AddAgent(testutil.AgentConfig("research"))
	require.NoError(t, err)

	require.NoError(t, f.manager.SetDefaultAgent("research"))
	assert.Equal(t, "research", f.manager.DefaultAgentID())

	var nf *core.AgentNotFoundError
	assert.ErrorAs(t, f.manager.SetDefaultAgent("ghost"), &nf)

	// Deleting the default falls back to the master.
	require.NoError(t, f.manager.DeleteAgent("research"))
	assert.Equal(t, f.manager.MasterID(), f.manager.DefaultAgentID())
}
