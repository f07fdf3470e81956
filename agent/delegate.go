package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/archon/tool"
)

const delegationToolPrefix = "call_"

// DelegationToolName returns the tool name under which an agent is callable
// by other agents. Characters outside the function-name alphabet of the
// model vendors are replaced.
func DelegationToolName(agentID string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, agentID)
	return delegationToolPrefix + sanitized
}

// delegateTool routes a tool call back into Manager.ExecuteAgent, which is
// the whole of the master delegation protocol: the master is just an agent
// whose catalog consists of these tools. Each hop increments the call depth
// carried by the ExecContext; past tool.MaxCallDepth the invocation is
// rejected, which breaks delegation cycles.
type delegateTool struct {
	manager     *Manager
	agentID     string
	agentName   string
	description string
}

func (t *delegateTool) Name() string { return DelegationToolName(t.agentID) }

func (t *delegateTool) Description() string {
	desc := fmt.Sprintf("Delegate the request to the %s agent and return its answer.", t.agentName)
	if t.description != "" {
		desc += " " + t.description
	}
	return desc
}

func (t *delegateTool) Category() string { return "agents" }

// Dangerous is false: delegation itself mutates nothing; the target agent's
// own permission envelope governs what its tools may do.
func (t *delegateTool) Dangerous() bool { return false }

func (t *delegateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The question or task to hand to the agent",
			},
			"context": map[string]any{
				"type":        "string",
				"description": "Optional background the agent should know",
			},
		},
		"required": []string{"query"},
	}
}

func (t *delegateTool) Examples() []string {
	return []string{fmt.Sprintf(`%s({"query": "Summarize the meeting notes from last week"})`, t.Name())}
}

func (t *delegateTool) Call(ec *tool.ExecContext, args map[string]any) (any, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, tool.NewToolError(t.Name(), "missing required field 'query'", tool.CodeValidation)
	}

	if ec.Depth+1 > tool.MaxCallDepth {
		return nil, tool.NewToolError(t.Name(),
			fmt.Sprintf("delegation depth limit (%d) exceeded", tool.MaxCallDepth), tool.CodeDepthExceeded)
	}

	req := Request{Query: query, Depth: ec.Depth + 1}
	if extra, ok := args["context"].(string); ok && extra != "" {
		req.NoteContext = extra
	}

	ec.Logger().Info("delegation.call", "from", ec.AgentID, "to", t.agentID, "depth", req.Depth)

	resp, err := t.manager.execute(ec.Context(), t.agentID, req)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"agent":   t.agentID,
		"answer":  resp.Answer,
		"sources": resp.Sources,
	}, nil
}
