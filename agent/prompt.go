package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/tool"
)

// ContextUnavailable is substituted into the context slot whenever
// retrieval is not ready or fails. Retrieval is best-effort; the run
// proceeds on general knowledge instead of aborting.
const ContextUnavailable = "No relevant context is currently available. Answer from general knowledge and say so when it matters."

// NoteContextLimit caps the optional note-context message length.
const NoteContextLimit = 2000

// truncationMarker is appended when note context is cut at NoteContextLimit.
const truncationMarker = "\n[... truncated]"

// renderContextBlock formats retrieved chunks into the context block
// substituted into the system prompt: one numbered paragraph per chunk,
// highest score first, carrying relevance percentage and source metadata.
func renderContextBlock(chunks []core.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ContextUnavailable
	}
	var b strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(fmt.Sprintf("[%d] (%.0f%% relevant) %s", i+1, chunk.Score*100, sourceLine(chunk.Metadata)))
		b.WriteString("\n")
		b.WriteString(chunk.Content)
	}
	return b.String()
}

func sourceLine(md core.ChunkMetadata) string {
	parts := []string{md.DocumentTitle}
	if md.SectionTitle != "" {
		parts = append(parts, md.SectionTitle)
	} else if md.Section != "" {
		parts = append(parts, md.Section)
	}
	line := strings.Join(parts, " - ")
	if md.PageReference != "" {
		line += fmt.Sprintf(" (page %s)", md.PageReference)
	}
	return line
}

// sourceTitles returns the deduplicated document titles of chunks, in
// ranking order, for AgentResponse.Sources.
func sourceTitles(chunks []core.RetrievedChunk) []string {
	seen := make(map[string]bool, len(chunks))
	var titles []string
	for _, c := range chunks {
		title := c.Metadata.DocumentTitle
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles
}

// renderToolInstructions appends tool-usage guidance to the system prompt:
// the catalog (already filtered by the dangerous-operations allowance)
// grouped by category, plus the folder scope and read/write permission the
// agent operates under.
func renderToolInstructions(infos []tool.Info, cfg core.AgentConfig) string {
	if len(infos) == 0 {
		return ""
	}

	byCategory := make(map[string][]tool.Info)
	for _, info := range infos {
		byCategory[info.Category] = append(byCategory[info.Category], info)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString("\n\n## Available tools\n")
	b.WriteString("You may call the tools below when they help answer the request.\n")
	for _, category := range categories {
		b.WriteString(fmt.Sprintf("\n### %s\n", category))
		for _, info := range byCategory[category] {
			b.WriteString(fmt.Sprintf("- %s: %s", info.Name, info.Description))
			if len(info.Parameters) > 0 {
				names := make([]string, len(info.Parameters))
				for i, p := range info.Parameters {
					names[i] = p.Name
					if p.Required {
						names[i] += " (required)"
					}
				}
				b.WriteString(fmt.Sprintf(" [parameters: %s]", strings.Join(names, ", ")))
			}
			b.WriteString("\n")
			for _, example := range info.Examples {
				b.WriteString(fmt.Sprintf("  example: %s\n", example))
			}
		}
	}

	if len(cfg.FolderScope) > 0 {
		b.WriteString(fmt.Sprintf("\nTool calls are restricted to these folders: %s.\n", strings.Join(cfg.FolderScope, ", ")))
	}
	if cfg.AllowDangerousOperations {
		b.WriteString("\nYou have read and write access.\n")
	} else {
		b.WriteString("\nYou have read-only access; tools that modify content are unavailable.\n")
	}
	return b.String()
}

// truncateNoteContext enforces NoteContextLimit with a visible marker.
func truncateNoteContext(text string) string {
	if len(text) <= NoteContextLimit {
		return text
	}
	return text[:NoteContextLimit] + truncationMarker
}

// masterPromptHeader opens the synthesized master system prompt. It keeps
// the context slot so the master benefits from retrieval like any other
// agent.
const masterPromptHeader = `You are the orchestrator of a team of specialized agents. ` +
	`Analyze each request, decide which specialist is best suited, and delegate ` +
	`by calling that specialist's tool. Combine specialist answers into a single ` +
	`coherent response. Handle requests yourself only when no specialist fits.

Relevant context:
{context}

## Available specialists
`

// BuildMasterPrompt synthesizes the master agent's system prompt from the
// live list of callable agents (enabled, non-master). The manager calls
// this on every roster change so the catalog never goes stale.
func BuildMasterPrompt(callable []core.AgentConfig) string {
	var b strings.Builder
	b.WriteString(masterPromptHeader)
	if len(callable) == 0 {
		b.WriteString("\nNo specialists are currently available. Answer every request yourself.\n")
		return b.String()
	}
	for _, cfg := range callable {
		b.WriteString(fmt.Sprintf("\n- %s (id: %s)", cfg.Name, cfg.ID))
		if cfg.Category != "" {
			b.WriteString(fmt.Sprintf(" [%s]", cfg.Category))
		}
		if cfg.Description != "" {
			b.WriteString(": " + cfg.Description)
		}
		if len(cfg.Capabilities) > 0 {
			b.WriteString(fmt.Sprintf(" (capabilities: %s)", strings.Join(cfg.Capabilities, ", ")))
		}
		b.WriteString(fmt.Sprintf("\n  Delegate with the %s tool.\n", DelegationToolName(cfg.ID)))
	}
	return b.String()
}
