// Package testutil provides shared builders for package tests: pre-wired
// model binding registries, agent configs and retrieval chunks.
package testutil

import (
	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/model"
)

// BindingID is the id of the mock binding registered by Models.
const BindingID = "mock-binding"

// Models returns a binding registry holding a single enabled mock model.
func Models(mock *model.Mock) *model.Registry {
	reg := model.NewRegistry()
	reg.Add(model.Binding{
		ID:      BindingID,
		Name:    "Mock",
		Model:   mock,
		Enabled: true,
	})
	return reg
}

// AgentConfig returns a valid specialist config bound to BindingID.
// Override fields on the returned value as the test requires.
func AgentConfig(id string) core.AgentConfig {
	return core.AgentConfig{
		ID:             id,
		Name:           "Agent " + id,
		Description:    "Test specialist " + id,
		SystemPrompt:   "You are a helpful assistant.\n\nContext:\n{context}",
		ModelBindingID: BindingID,
		Retrieval: core.RetrievalSettings{
			TopK:           5,
			ScoreThreshold: 0.3,
			Strategy:       core.RetrievalSemantic,
		},
		Enabled: true,
	}
}

// Chunk returns a retrieved chunk with the given score.
func Chunk(title, content string, score float64) core.RetrievedChunk {
	return core.RetrievedChunk{
		Content: content,
		Score:   score,
		Metadata: core.ChunkMetadata{
			DocumentTitle: title,
		},
	}
}
