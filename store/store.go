// Package store persists the agent roster: the full AgentConfig list plus
// the designated master and default agent ids. The manager is the only
// writer; it saves before reconciling its in-memory executor map so a crash
// never leaves memory ahead of disk.
package store

import "github.com/hupe1980/archon/core"

// Snapshot is the complete persisted roster state.
type Snapshot struct {
	Agents    []core.AgentConfig `yaml:"agents" json:"agents"`
	MasterID  string             `yaml:"master_id" json:"master_id"`
	DefaultID string             `yaml:"default_id,omitempty" json:"default_id,omitempty"`
}

// Clone returns a deep copy safe for independent mutation.
func (s Snapshot) Clone() Snapshot {
	clone := Snapshot{MasterID: s.MasterID, DefaultID: s.DefaultID}
	clone.Agents = make([]core.AgentConfig, len(s.Agents))
	for i, a := range s.Agents {
		clone.Agents[i] = a.Clone()
	}
	return clone
}

// Store is the config persistence collaborator.
type Store interface {
	// Load returns the persisted snapshot, or an empty snapshot when
	// nothing has been saved yet.
	Load() (Snapshot, error)

	// Save atomically replaces the persisted snapshot.
	Save(Snapshot) error
}
