package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/archon/core"
)

// Registry is the concrete tool collaborator: it holds the tool catalog and
// executes invocations under a permission context.
//
// Execute never panics and never returns an error; every outcome, including
// recovered panics, is captured in the returned core.ToolResult so the
// conversation loop can feed it back to the model.
//
// Concurrency: protected by RWMutex; registration and execution may happen
// concurrently (the manager re-wires delegation tools while runs are in
// flight).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Unregister removes a tool by name, reporting whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return false
	}
	delete(r.tools, name)
	return true
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns the full catalog sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.tools))
	for _, t := range r.tools {
		infos = append(infos, InfoOf(t))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Execute runs one invocation under the given permission context. The
// dangerous-operation gate is enforced here so no individual tool can
// forget it.
func (r *Registry) Execute(inv core.ToolInvocation, ec *ExecContext) (res core.ToolResult) {
	res = core.ToolResult{ToolName: inv.Name, CallID: inv.ID}

	defer func() {
		if rec := recover(); rec != nil {
			ec.Logger().Error("tool.execute.panic", "tool", inv.Name, "panic", fmt.Sprintf("%v", rec))
			res.Success = false
			res.Output = nil
			res.Error = NewToolError(inv.Name, fmt.Sprintf("tool panicked: %v", rec), CodePanic).Error()
		}
	}()

	t, ok := r.Get(inv.Name)
	if !ok {
		res.Error = NewToolError(inv.Name, "no such tool registered", CodeNotFound).Error()
		return res
	}

	if t.Dangerous() && ec.ReadOnly {
		res.Error = NewToolError(inv.Name, "dangerous operations are not allowed for this agent", CodeDangerousBlocked).Error()
		return res
	}

	out, err := t.Call(ec, inv.Arguments)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Success = true
	res.Output = out
	return res
}
