package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/internal/testutil"
	"github.com/hupe1980/archon/tool"
)

func TestRenderContextBlock(t *testing.T) {
	chunks := []core.RetrievedChunk{
		testutil.Chunk("Q3 Report", "Revenue grew twelve percent.", 0.92),
		testutil.Chunk("Planning Notes", "Budget targets for next year.", 0.41),
	}

	block := renderContextBlock(chunks)
	assert.Contains(t, block, "[1] (92% relevant) Q3 Report")
	assert.Contains(t, block, "Revenue grew twelve percent.")
	assert.Contains(t, block, "[2] (41% relevant) Planning Notes")

	assert.Equal(t, ContextUnavailable, renderContextBlock(nil))
}

func TestSourceLine(t *testing.T) {
	md := core.ChunkMetadata{
		DocumentTitle: "Q3 Report",
		SectionTitle:  "Europe",
		PageReference: "12",
	}
	assert.Equal(t, "Q3 Report - Europe (page 12)", sourceLine(md))

	md = core.ChunkMetadata{DocumentTitle: "Q3 Report", Section: "2.1"}
	assert.Equal(t, "Q3 Report - 2.1", sourceLine(md))
}

func TestSourceTitlesDeduplicates(t *testing.T) {
	chunks := []core.RetrievedChunk{
		testutil.Chunk("A", "x", 0.9),
		testutil.Chunk("B", "y", 0.8),
		testutil.Chunk("A", "z", 0.7),
		{Content: "untitled", Score: 0.6},
	}
	assert.Equal(t, []string{"A", "B"}, sourceTitles(chunks))
}

func TestRenderToolInstructions(t *testing.T) {
	infos := []tool.Info{
		{Name: "read_note", Description: "Read a note", Category: "vault", Parameters: []tool.Param{{Name: "path", Required: true}}},
		{Name: "web_search", Description: "Search the web", Category: "research"},
	}

	cfg := core.AgentConfig{FolderScope: []string{"research", "notes"}}
	out := renderToolInstructions(infos, cfg)

	assert.Contains(t, out, "## Available tools")
	assert.Contains(t, out, "### research")
	assert.Contains(t, out, "### vault")
	assert.Contains(t, out, "read_note: Read a note [parameters: path (required)]")
	assert.Contains(t, out, "restricted to these folders: research, notes")
	assert.Contains(t, out, "read-only access")

	cfg.AllowDangerousOperations = true
	assert.Contains(t, renderToolInstructions(infos, cfg), "read and write access")

	assert.Empty(t, renderToolInstructions(nil, cfg))
}

func TestTruncateNoteContext(t *testing.T) {
	short := "just a note"
	assert.Equal(t, short, truncateNoteContext(short))

	long := strings.Repeat("x", NoteContextLimit+100)
	got := truncateNoteContext(long)
	assert.Len(t, got, NoteContextLimit+len(truncationMarker))
	assert.True(t, strings.HasSuffix(got, truncationMarker))
}

func TestBuildMasterPrompt(t *testing.T) {
	callable := []core.AgentConfig{
		{
			ID:           "research",
			Name:         "Researcher",
			Description:  "Finds and summarizes sources",
			Category:     "research",
			Capabilities: []string{"summarize", "cite"},
		},
		{ID: "writer", Name: "Writer"},
	}

	prompt := BuildMasterPrompt(callable)

	// The master prompt is a valid template like any other agent's.
	_, err := core.NewPromptTemplate(prompt)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Researcher (id: research) [research]: Finds and summarizes sources")
	assert.Contains(t, prompt, "capabilities: summarize, cite")
	assert.Contains(t, prompt, "Delegate with the call_research tool.")
	assert.Contains(t, prompt, "Writer (id: writer)")
	assert.Contains(t, prompt, "Delegate with the call_writer tool.")
}

func TestBuildMasterPromptEmptyRoster(t *testing.T) {
	prompt := BuildMasterPrompt(nil)
	_, err := core.NewPromptTemplate(prompt)
	require.NoError(t, err)
	assert.Contains(t, prompt, "No specialists are currently available")
}

func TestDelegationToolName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"research", "call_research"},
		{"research-v2", "call_research-v2"},
		{"research agent", "call_research_agent"},
		{"über.agent", "call__ber_agent"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DelegationToolName(tt.id), "id %q", tt.id)
	}
}
