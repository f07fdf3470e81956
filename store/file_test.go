package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/archon/core"
)

func sampleSnapshot() Snapshot {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return Snapshot{
		MasterID:  "master",
		DefaultID: "master",
		Agents: []core.AgentConfig{
			{
				ID:             "master",
				Name:           "Archon",
				SystemPrompt:   "Orchestrate.\n{context}",
				ModelBindingID: "binding-a",
				Retrieval:      core.RetrievalSettings{TopK: 5, ScoreThreshold: 0.3, Strategy: core.RetrievalSemantic},
				EnableTools:    true,
				Enabled:        true,
				Permanent:      true,
				Master:         true,
				CreatedAt:      created,
				UpdatedAt:      created,
			},
			{
				ID:             "research",
				Name:           "Researcher",
				SystemPrompt:   "Research.\n{context}",
				ModelBindingID: "binding-a",
				Retrieval:      core.RetrievalSettings{TopK: 10, ScoreThreshold: 0.5, Strategy: core.RetrievalKeyword},
				FolderScope:    []string{"research"},
				Enabled:        true,
				CreatedAt:      created,
				UpdatedAt:      created,
			},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agents", "roster.yaml")
	s := NewFileStore(path)

	want := sampleSnapshot()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want.MasterID, got.MasterID)
	assert.Equal(t, want.DefaultID, got.DefaultID)
	require.Len(t, got.Agents, 2)
	assert.Equal(t, want.Agents[0].ID, got.Agents[0].ID)
	assert.True(t, got.Agents[0].Master)
	assert.Equal(t, []string{"research"}, got.Agents[1].FolderScope)
	assert.Equal(t, core.RetrievalKeyword, got.Agents[1].Retrieval.Strategy)
	assert.True(t, got.Agents[1].CreatedAt.Equal(want.Agents[1].CreatedAt))
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope.yaml"))

	snap, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Agents)
	assert.Empty(t, snap.MasterID)
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agents: [not closed"), 0o644))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "roster.yaml"))
	require.NoError(t, s.Save(sampleSnapshot()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "roster.yaml", entries[0].Name())
}

func TestInMemoryStoreIsolation(t *testing.T) {
	s := NewInMemoryStore()
	snap := sampleSnapshot()
	require.NoError(t, s.Save(snap))

	// Mutating the saved value must not leak into the store.
	snap.Agents[0].Name = "mutated"

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "Archon", got.Agents[0].Name)

	// Mutating a loaded value must not leak either.
	got.Agents[0].Name = "mutated"
	again, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "Archon", again.Agents[0].Name)
}
