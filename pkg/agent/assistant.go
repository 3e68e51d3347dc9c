package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
	"github.com/entrhq/tabpilot/pkg/agent/prompts"
	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/types"
)

// turnState is the in-memory bookkeeping of one turn. History grows with the
// synthetic thought/action and result entries; the session never sees them.
type turnState struct {
	turn        Turn
	adapter     llm.Adapter
	history     []llm.HistoryEntry
	lastThought string
	outcome     string

	// page is the snapshot taken for the first provider call.
	page *types.TurnContext
}

// Run drives turn to a single assistant message. Blank input is a no-op and
// returns nil. Provider failures end the turn with one error message;
// actions already performed are not undone.
func (a *Agent) Run(ctx context.Context, turn Turn) *types.Message {
	msg, _ := a.runTurn(ctx, turn)
	return msg
}

// runTurn is Run that also returns the page the turn started on.
func (a *Agent) runTurn(ctx context.Context, turn Turn) (*types.Message, *types.TurnContext) {
	if strings.TrimSpace(turn.Text) == "" {
		return nil, nil
	}

	provider := string(turn.Selection.Provider)
	ctx, span := a.tracer.Start(ctx, "agent.turn")
	span.SetAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", turn.Selection.ModelID()),
		attribute.Int("agent.attachments", len(turn.Attachments)),
	)
	defer span.End()

	start := time.Now()
	a.emitEvent(types.NewUpdateBusyEvent(true))
	defer a.emitEvent(types.NewTurnEndEvent())
	defer a.emitEvent(types.NewUpdateBusyEvent(false))

	state := &turnState{turn: turn}
	msg := a.runAgentLoop(ctx, state)

	if state.outcome == "error" {
		span.SetStatus(codes.Error, msg.Content)
	}
	span.SetAttributes(attribute.String("agent.outcome", state.outcome))

	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", state.outcome),
	)
	a.instruments.Turns.Add(ctx, 1, attrs)
	a.instruments.TurnDuration.Record(ctx, time.Since(start).Seconds(), attrs)

	a.emitEvent(types.NewFinalAnswerEvent(msg))
	return msg, state.page
}

// runAgentLoop executes up to maxLoops iterations. Each iteration either
// finishes the turn or performs one action and continues.
func (a *Agent) runAgentLoop(ctx context.Context, state *turnState) *types.Message {
	adapter, err := a.adapters.Build(state.turn.Selection)
	if err != nil {
		return a.fail(state, err)
	}
	state.adapter = adapter
	state.history = append([]llm.HistoryEntry(nil), state.turn.History...)

	for iteration := 0; iteration < a.maxLoops; iteration++ {
		if err := ctx.Err(); err != nil {
			return a.fail(state, err)
		}

		msg, done, err := a.executeIteration(ctx, state, iteration)
		if err != nil {
			return a.fail(state, err)
		}
		if done {
			return msg
		}
	}

	agentDebugLog.Infof("step budget of %d exhausted", a.maxLoops)
	state.outcome = "step_limit"
	return types.NewAssistantMessage(prompts.StepLimitAnswer, state.lastThought)
}

// fail turns err into the single error message that ends a turn.
func (a *Agent) fail(state *turnState, err error) *types.Message {
	state.outcome = "error"

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		agentDebugLog.Errorf("turn failed (%s, %s): %v", llmErr.Provider, llmErr.Kind, err)
	} else {
		agentDebugLog.Errorf("turn failed: %v", err)
	}
	a.emitEvent(types.NewErrorEvent(err))
	return types.NewErrorMessage(err)
}

// finish ends the turn with the decision's text.
func (a *Agent) finish(state *turnState, d decision.Decision, outcome string) *types.Message {
	state.outcome = outcome
	return types.NewAssistantMessage(d.Response, state.lastThought)
}
