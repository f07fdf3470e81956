package model

import (
	"fmt"
	"sort"
	"sync"
)

// Binding pairs a configured model with a stable id agent configs can
// reference. Disabled bindings stay listed but cannot be resolved, so
// validation can distinguish "unknown" from "disabled".
type Binding struct {
	ID      string
	Name    string
	Model   Model
	Enabled bool
}

// Registry maps binding ids to configured models. It is the single lookup
// point for AgentConfig.ModelBindingID references.
//
// Concurrency: protected by RWMutex.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]Binding
	order    []string
}

// NewRegistry constructs an empty binding registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]Binding)}
}

// Add registers or replaces a binding.
func (r *Registry) Add(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bindings[b.ID]; !exists {
		r.order = append(r.order, b.ID)
	}
	r.bindings[b.ID] = b
}

// Remove deletes a binding by id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// SetEnabled toggles a binding, reporting whether it exists.
func (r *Registry) SetEnabled(id string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[id]
	if !ok {
		return false
	}
	b.Enabled = enabled
	r.bindings[id] = b
	return true
}

// Enabled reports whether id names an enabled binding.
func (r *Registry) Enabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[id]
	return ok && b.Enabled
}

// Resolve returns the model behind an enabled binding.
func (r *Registry) Resolve(id string) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[id]
	if !ok {
		return nil, fmt.Errorf("model binding '%s' not configured", id)
	}
	if !b.Enabled {
		return nil, fmt.Errorf("model binding '%s' is disabled", id)
	}
	return b.Model, nil
}

// FirstEnabled returns the first enabled binding in registration order. The
// manager binds an auto-created master agent to it.
func (r *Registry) FirstEnabled() (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if b := r.bindings[id]; b.Enabled {
			return b, true
		}
	}
	return Binding{}, false
}

// List returns all bindings sorted by id.
func (r *Registry) List() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
