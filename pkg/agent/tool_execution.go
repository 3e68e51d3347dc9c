package agent

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/types"
)

// processAction executes the decision's action and appends the synthetic
// thought/action and result entries to the turn history.
// Returns (message, done, err) following the same pattern as executeIteration.
func (a *Agent) processAction(ctx context.Context, state *turnState, d decision.Decision, iteration int) (*types.Message, bool, error) {
	name := decision.Name(d.Action)
	a.emitEvent(types.NewActionStartEvent(iteration, name, d.Action.Descriptor()))

	result := a.actions.Execute(ctx, d.Action)

	a.instruments.Actions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(d.Action.Kind()))))
	a.emitEvent(types.NewActionResultEvent(iteration, name, result))
	agentDebugLog.Infof("iteration %d: %s -> %s", iteration, name, result)

	state.history = append(state.history,
		llm.HistoryEntry{
			Role:    types.RoleAssistant,
			Content: fmt.Sprintf("Thought: %s\nAction: %s", d.Thought, decision.JSON(d.Action)),
		},
		llm.HistoryEntry{
			Role:    types.RoleUser,
			Content: "Action Result: " + result,
		},
	)

	// A question with choices hands the turn back to the user.
	if ask, ok := d.Action.(decision.AskSelection); ok && len(ask.Options) > 0 {
		msg := types.NewAssistantMessage(result, state.lastThought)
		msg.Options = ask.Options
		state.outcome = "ask_selection"
		return msg, true, nil
	}

	// An explicit explanation alongside the action ends the turn after the
	// action has run.
	if d.ExplainsAction() {
		return a.finish(state, d, "explained_action"), true, nil
	}
	return nil, false, nil
}
