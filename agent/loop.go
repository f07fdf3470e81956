package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hupe1980/archon/core"
	"github.com/hupe1980/archon/model"
	"github.com/hupe1980/archon/tool"
)

// MaxToolIterations bounds the tool-calling loop: at most this many model
// round-trips per run, so the loop always terminates even against a model
// that requests a tool on every turn.
const MaxToolIterations = 5

// IterationLimitMessage is returned as the answer when the loop hits
// MaxToolIterations without the model producing a final response.
const IterationLimitMessage = "I'm sorry, I could not complete the request within the allowed number of tool steps. The partial results gathered so far are included below."

// loopState tracks the tool-calling state machine:
//
//	awaitingModel -> {toolRequested -> toolExecuted -> awaitingModel}* -> done
//	                                                                  -> iterationLimit
type loopState int

const (
	stateAwaitingModel loopState = iota
	stateToolRequested
	stateToolExecuted
	stateDone
	stateIterationLimit
)

// loopOutcome is the aggregated result of one tool loop run.
type loopOutcome struct {
	answer  string
	usage   *core.TokenUsage
	results []core.ToolResult
}

// runToolLoop drives the bounded tool-calling conversation. Exactly one
// model call and, when requested, exactly one tool call are outstanding at
// any time. Tool failures never abort the loop; they are appended as
// function messages so the model can adapt. Model failures are fatal.
func (e *Executor) runToolLoop(ctx context.Context, messages []core.Message, depth int) (*loopOutcome, error) {
	fc := e.llm.(model.FunctionCaller)
	defs := e.definitions()
	ec := e.execContext(ctx, depth)

	outcome := &loopOutcome{}
	var usage core.TokenUsage
	sawUsage := false

	state := stateAwaitingModel
	for iteration := 0; iteration < e.maxIterations; iteration++ {
		state = stateAwaitingModel

		result, err := fc.ChatWithTools(ctx, messages, defs, e.modelOpts)
		if err != nil {
			return nil, e.wrapModelErr(err)
		}
		if result.Usage != nil {
			usage.Add(*result.Usage)
			sawUsage = true
		}

		if result.ToolCall == nil {
			state = stateDone
			outcome.answer = result.Content
			break
		}

		state = stateToolRequested
		call := result.ToolCall
		messages = append(messages, core.Message{
			Role:     core.RoleAssistant,
			Content:  result.Content,
			ToolCall: call,
		})

		toolResult := e.invokeTool(ec, call)
		outcome.results = append(outcome.results, toolResult)
		messages = append(messages, core.FunctionMessage(call.ID, call.Name, toolResult.Render()))

		state = stateToolExecuted
	}

	if state != stateDone {
		state = stateIterationLimit
		e.logger.Warn("executor.loop.iteration_limit", "agent", e.cfg.ID, "iterations", e.maxIterations)
		outcome.answer = IterationLimitMessage
	}

	if sawUsage {
		outcome.usage = &usage
	} else {
		outcome.usage = model.EstimateUsage(messages, outcome.answer)
	}
	return outcome, nil
}

// invokeTool parses the model's arguments and executes the call through the
// tool registry. Nothing raised here reaches the loop: malformed arguments
// and execution failures alike become failed ToolResults.
func (e *Executor) invokeTool(ec *tool.ExecContext, call *core.ToolCall) core.ToolResult {
	args := make(map[string]any)
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return core.ToolResult{
				ToolName: call.Name,
				CallID:   call.ID,
				Success:  false,
				Error:    "invalid tool arguments: " + err.Error(),
			}
		}
	}

	start := time.Now()
	result := e.tools.Execute(core.ToolInvocation{Name: call.Name, Arguments: args, ID: call.ID}, ec)
	e.logger.Info("executor.tool.executed",
		"agent", e.cfg.ID,
		"tool", call.Name,
		"success", result.Success,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}
