package agent

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
	"github.com/entrhq/tabpilot/pkg/agent/prompts"
	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/types"
)

// executeIteration performs a single iteration of the agent loop.
// It returns the final message and done=true when the turn is over.
func (a *Agent) executeIteration(ctx context.Context, state *turnState, iteration int) (*types.Message, bool, error) {
	ctx, span := a.tracer.Start(ctx, "agent.iteration")
	span.SetAttributes(attribute.Int("agent.iteration", iteration))
	defer span.End()

	a.instruments.Iterations.Add(ctx, 1)

	// Step 1: Build the request around a fresh page snapshot
	req := a.prepareRequest(ctx, state, iteration)

	// Step 2: Call the provider, retrying rate limits
	raw, err := a.callLLM(ctx, state, req, iteration)
	if err != nil {
		span.RecordError(err)
		return nil, true, err
	}

	// Step 3: Parse the decision
	d := decision.Parse(raw)
	if d.Thought != "" {
		state.lastThought = d.Thought
		a.emitEvent(types.NewThoughtEvent(iteration, d.Thought))
	}

	if !d.HasAction() {
		span.SetAttributes(attribute.String("agent.step", "answer"))
		return a.finish(state, d, "answer"), true, nil
	}

	// Step 4: Act and record what happened
	span.SetAttributes(attribute.String("agent.action", decision.Name(d.Action)))
	return a.processAction(ctx, state, d, iteration)
}

// prepareRequest captures the page and builds the provider request.
// Attachments describe the original request and go out on iteration 0 only.
func (a *Agent) prepareRequest(ctx context.Context, state *turnState, iteration int) *llm.Request {
	var page *types.TurnContext
	if a.capture != nil {
		page = a.capture.Capture(ctx)
	}
	if iteration == 0 {
		state.page = page
	}

	req := &llm.Request{
		Context: page,
		System:  a.systemPrompt,
		Message: prompts.ContinuationPrompt,
		Model:   state.turn.Selection.ModelID(),
		History: append([]llm.HistoryEntry(nil), state.history...),
		Memory:  state.turn.Memory,
	}
	if iteration == 0 {
		req.Message = state.turn.Text
		req.Attachments = state.turn.Attachments
	}
	return req
}

// callLLM sends req through the retry policy and reports progress.
func (a *Agent) callLLM(ctx context.Context, state *turnState, req *llm.Request, iteration int) (string, error) {
	provider := string(state.adapter.Provider())
	providerAttr := metric.WithAttributes(attribute.String("provider", provider))

	promptTokens := a.tokenizer.CountRequestTokens(req, llm.ContextLimit(state.adapter.Provider()))
	agentDebugLog.Debugf("iteration %d: ~%d prompt tokens to %s", iteration, promptTokens, provider)
	a.instruments.PromptTokens.Record(ctx, int64(promptTokens), providerAttr)
	a.emitEvent(types.NewAPICallStartEvent(iteration, provider, req.Model))

	policy := a.retry
	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, err error) {
		agentDebugLog.Warnf("retrying %s call (attempt %d): %v", provider, attempt, err)
		a.instruments.Retries.Add(ctx, 1, providerAttr)
		a.emitEvent(types.NewRetryEvent(iteration, attempt, err))
		if onRetry != nil {
			onRetry(attempt, err)
		}
	}

	raw, err := policy.Do(ctx, func(ctx context.Context) (string, error) {
		a.instruments.ProviderCalls.Add(ctx, 1, providerAttr)
		return state.adapter.Send(ctx, req)
	})
	a.emitEvent(types.NewAPICallEndEvent(iteration, provider))
	if err != nil {
		return "", err
	}

	completionTokens := a.tokenizer.CountTokens(raw)
	a.emitEvent(types.NewTokenUsageEvent(promptTokens, completionTokens))
	agentDebugLog.Debugf("iteration %d raw reply: %s", iteration, raw)
	return raw, nil
}

// emitEvent sends an event on the event channel, if one is configured.
// This is a blocking send to ensure critical events like TurnEnd are not dropped.
// It safely handles the case where the event channel may be closed during shutdown.
func (a *Agent) emitEvent(event *types.AgentEvent) {
	if a.events == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			// Event channel was closed during shutdown - this is expected
			agentDebugLog.Debugf("dropped %s event: channel closed", event.Type)
		}
	}()
	a.events <- event
}
