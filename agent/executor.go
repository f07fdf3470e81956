package agent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/logging"
	"github.com/hupe1980/archon/model"
	"github.com/hupe1980/archon/retrieval"
	"github.com/hupe1980/archon/tool"
)

// historyTurnsForSearch is how many trailing user turns widen the retrieval
// query alongside the current one.
const historyTurnsForSearch = 3

// Request carries one execution request through an Executor.
type Request struct {
	// Query is the user's question. Empty or whitespace-only queries are
	// rejected before any side effect.
	Query string
	// History is prior conversation, inserted verbatim between the system
	// message and the query.
	History []core.Message
	// NoteContext is optional editor context, capped at NoteContextLimit.
	NoteContext string
	// Extra is optional structured context, rendered as JSON.
	Extra map[string]any
	// Depth counts delegation hops; the top-level call runs at 0.
	Depth int
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	Retriever         retrieval.Retriever
	Tools             *tool.Registry
	VaultRoot         string
	Logger            logging.Logger
	MaxToolIterations int
	ModelOptions      model.Options
}

// Executor runs one agent end-to-end. It owns an immutable AgentConfig
// snapshot plus references to the retrieval, model and tool collaborators;
// the manager destroys and recreates it whenever the config changes.
type Executor struct {
	cfg           core.AgentConfig
	tmpl          core.PromptTemplate
	llm           model.Model
	retriever     retrieval.Retriever
	tools         *tool.Registry
	vaultRoot     string
	logger        logging.Logger
	maxIterations int
	modelOpts     model.Options
}

// NewExecutor constructs an Executor for the given config snapshot. The
// system prompt template is parsed here, so a config whose template lacks
// the context slot can never reach Execute.
func NewExecutor(cfg core.AgentConfig, llm model.Model, optFns ...func(o *ExecutorOptions)) (*Executor, error) {
	opts := ExecutorOptions{
		Logger:            logging.NoOpLogger{},
		MaxToolIterations: MaxToolIterations,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	tmpl, err := core.NewPromptTemplate(cfg.SystemPrompt)
	if err != nil {
		return nil, err
	}

	return &Executor{
		cfg:           cfg.Clone(),
		tmpl:          tmpl,
		llm:           llm,
		retriever:     opts.Retriever,
		tools:         opts.Tools,
		vaultRoot:     opts.VaultRoot,
		logger:        opts.Logger,
		maxIterations: opts.MaxToolIterations,
		modelOpts:     opts.ModelOptions,
	}, nil
}

// Config returns a copy of the executor's config snapshot.
func (e *Executor) Config() core.AgentConfig { return e.cfg.Clone() }

// Execute turns one request into one AgentResponse.
//
// Pipeline: validate -> best-effort retrieval -> prompt assembly -> tool
// loop (when tools are enabled and the model supports function calling) or
// a single model call -> response packaging. Retrieval failures degrade to
// a sentinel context; tool failures are fed back to the model as data; only
// model-call failures propagate to the caller.
func (e *Executor) Execute(ctx context.Context, req Request) (*core.AgentResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, core.NewValidationError("query", "query must not be empty")
	}

	start := time.Now()
	logger := e.logger

	chunks := e.retrieve(ctx, req)
	messages := e.assembleMessages(req, chunks)

	info := e.llm.Info()
	resp := &core.AgentResponse{
		AgentUsed:       e.cfg.ID,
		ModelProvider:   info.Provider,
		Model:           info.Name,
		RetrievedChunks: chunks,
		Sources:         sourceTitles(chunks),
	}

	if e.cfg.EnableTools && e.tools != nil && model.SupportsFunctionCalling(e.llm) {
		outcome, err := e.runToolLoop(ctx, messages, req.Depth)
		if err != nil {
			return nil, err
		}
		resp.Answer = outcome.answer
		resp.Usage = outcome.usage
		resp.ToolResults = outcome.results
	} else {
		result, err := e.llm.Chat(ctx, messages, e.modelOpts)
		if err != nil {
			return nil, e.wrapModelErr(err)
		}
		resp.Answer = result.Content
		resp.Usage = result.Usage
		if resp.Usage == nil {
			resp.Usage = model.EstimateUsage(messages, result.Content)
		}
	}

	resp.ExecutionTime = time.Since(start)
	logger.Info("executor.run.complete",
		"agent", e.cfg.ID,
		"duration_ms", resp.ExecutionTime.Milliseconds(),
		"chunks", len(chunks),
		"tool_calls", len(resp.ToolResults),
	)
	return resp, nil
}

// retrieve performs the best-effort retrieval step. Any failure, including
// a retriever that is not ready, yields no chunks; the caller substitutes
// the sentinel context.
func (e *Executor) retrieve(ctx context.Context, req Request) []core.RetrievedChunk {
	if e.retriever == nil || !e.retriever.Ready() {
		return nil
	}

	searchQuery := strings.Join(append(core.LastUserTurns(req.History, historyTurnsForSearch), req.Query), "\n")

	q := retrieval.Query{
		TopK:           e.cfg.Retrieval.TopK,
		ScoreThreshold: e.cfg.Retrieval.ScoreThreshold,
		Strategy:       e.cfg.Retrieval.Strategy,
	}
	if len(e.cfg.FolderScope) > 0 {
		q.Filters = map[string][]string{"folder": e.cfg.FolderScope}
	}

	start := time.Now()
	chunks, err := e.retriever.Retrieve(ctx, searchQuery, q)
	if err != nil {
		e.logger.Warn("executor.retrieval.degraded", "agent", e.cfg.ID, "error", err.Error())
		return nil
	}
	e.logger.Debug("executor.retrieval.complete",
		"agent", e.cfg.ID,
		"chunks", len(chunks),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return chunks
}

// assembleMessages builds the full message sequence for the model: system
// prompt (context substituted, tool instructions appended when enabled),
// history verbatim, optional note and extra context, then the query.
func (e *Executor) assembleMessages(req Request, chunks []core.RetrievedChunk) []core.Message {
	system := e.tmpl.Render(renderContextBlock(chunks))
	if e.cfg.EnableTools && e.tools != nil {
		system += renderToolInstructions(e.catalog(), e.cfg)
	}

	messages := make([]core.Message, 0, len(req.History)+4)
	messages = append(messages, core.SystemMessage(system))
	messages = append(messages, req.History...)

	if req.NoteContext != "" {
		messages = append(messages, core.SystemMessage(
			"Current note context:\n"+truncateNoteContext(req.NoteContext)))
	}
	if len(req.Extra) > 0 {
		if b, err := json.Marshal(req.Extra); err == nil {
			messages = append(messages, core.SystemMessage("Additional context: "+string(b)))
		}
	}

	messages = append(messages, core.UserMessage(req.Query))
	return messages
}

// catalog returns the tool infos visible to this agent: dangerous tools are
// omitted entirely unless the agent allows dangerous operations.
func (e *Executor) catalog() []tool.Info {
	all := e.tools.List()
	infos := make([]tool.Info, 0, len(all))
	for _, info := range all {
		if info.Dangerous && !e.cfg.AllowDangerousOperations {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// definitions maps the visible catalog to model tool schemas.
func (e *Executor) definitions() []model.ToolDefinition {
	visible := e.catalog()
	defs := make([]model.ToolDefinition, 0, len(visible))
	for _, info := range visible {
		t, ok := e.tools.Get(info.Name)
		if !ok {
			continue
		}
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// execContext derives the tool permission context from the config snapshot.
func (e *Executor) execContext(ctx context.Context, depth int) *tool.ExecContext {
	ec := tool.NewExecContext(ctx, e.logger)
	ec.AgentID = e.cfg.ID
	ec.AgentName = e.cfg.Name
	ec.VaultRoot = e.vaultRoot
	ec.RestrictToFolders = append([]string(nil), e.cfg.FolderScope...)
	ec.ReadOnly = !e.cfg.AllowDangerousOperations
	ec.Depth = depth
	return ec
}

func (e *Executor) wrapModelErr(err error) error {
	if _, ok := err.(*core.ModelCallError); ok {
		return err
	}
	info := e.llm.Info()
	return &core.ModelCallError{Provider: info.Provider, Model: info.Name, Err: err}
}
