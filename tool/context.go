package tool

import (
	"context"
	"path"
	"strings"

	"github.com/hupe1980/archon/logging"
)

// MaxCallDepth caps cross-agent delegation nesting. A delegation tool call
// at depth >= MaxCallDepth is rejected, which breaks any cycle of the form
// master -> specialist -> master regardless of per-run iteration limits.
const MaxCallDepth = 3

// ExecContext is the permission and identity envelope a tool call runs
// under. The executor derives it from the agent config: folder scope,
// dangerous-operation allowance (inverted into ReadOnly) and the agent's
// identity, plus the delegation depth of the current run.
type ExecContext struct {
	ctx    context.Context
	logger logging.Logger

	// AgentID and AgentName identify the invoking agent.
	AgentID   string
	AgentName string
	// VaultRoot is the root of the data namespace tool calls may touch.
	VaultRoot string
	// RestrictToFolders limits file-touching tools to these folders
	// (relative to VaultRoot). Empty means unrestricted.
	RestrictToFolders []string
	// ReadOnly forbids state-mutating tools. It is the inverse of the
	// agent's dangerous-operations allowance.
	ReadOnly bool
	// Depth counts delegation hops for the current run. The top-level call
	// runs at depth 0; each agent-to-agent delegation increments it.
	Depth int
}

// NewExecContext builds an ExecContext. A nil logger is substituted with a
// NoOpLogger so tools can always log.
func NewExecContext(ctx context.Context, logger logging.Logger) *ExecContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ExecContext{ctx: ctx, logger: logger}
}

// Context returns the cancellation context of the run.
func (ec *ExecContext) Context() context.Context { return ec.ctx }

// Logger returns the logger for the current run.
func (ec *ExecContext) Logger() logging.Logger { return ec.logger }

// PathAllowed reports whether p falls within the folder scope. Paths are
// interpreted relative to VaultRoot; with an empty scope every path is
// allowed.
func (ec *ExecContext) PathAllowed(p string) bool {
	if len(ec.RestrictToFolders) == 0 {
		return true
	}
	clean := path.Clean(strings.TrimPrefix(p, "/"))
	for _, folder := range ec.RestrictToFolders {
		folder = path.Clean(strings.TrimPrefix(folder, "/"))
		if clean == folder || strings.HasPrefix(clean, folder+"/") {
			return true
		}
	}
	return false
}
