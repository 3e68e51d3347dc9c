// Package agent runs the browser agent loop: capture the page, ask the model
// for the next step, perform the requested action and feed the result back
// until the model answers or the step budget runs out.
//
// Agent runs one turn at a time and holds no conversation state of its own;
// Conversation binds it to the session store and settings:
//
//	conv := agent.NewConversation(ag, sessions, cfg)
//	msg, err := conv.Send(ctx, "search for weather today", nil)
package agent

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
	"github.com/entrhq/tabpilot/pkg/agent/prompts"
	"github.com/entrhq/tabpilot/pkg/llm"
	"github.com/entrhq/tabpilot/pkg/llm/tokenizer"
	"github.com/entrhq/tabpilot/pkg/logging"
	"github.com/entrhq/tabpilot/pkg/telemetry"
	"github.com/entrhq/tabpilot/pkg/types"
)

// DefaultMaxLoops bounds the number of provider calls in one turn.
const DefaultMaxLoops = 10

var agentDebugLog *logging.Logger

func init() {
	var err error
	agentDebugLog, err = logging.NewLogger("agent")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		agentDebugLog.Warnf("Failed to initialize agent logger, using stderr fallback: %v", err)
	}
}

// AdapterBuilder resolves a provider selection to an adapter. *llm.Registry
// implements it.
type AdapterBuilder interface {
	Build(sel llm.Selection) (llm.Adapter, error)
}

// ContextSource snapshots the active tab. It returns nil when there is no tab.
type ContextSource interface {
	Capture(ctx context.Context) *types.TurnContext
}

// ActionRunner performs one action and describes the outcome. It must not
// panic or fail; failures are part of the returned text.
type ActionRunner interface {
	Execute(ctx context.Context, action decision.Action) string
}

// Turn is one user request.
type Turn struct {
	Text        string
	Attachments []types.Attachment

	// History is the bounded tail of the conversation, oldest first.
	History []llm.HistoryEntry

	Selection llm.Selection
	Memory    []types.MemoryItem
}

// Agent drives turns through the decide/act loop.
type Agent struct {
	adapters     AdapterBuilder
	capture      ContextSource
	actions      ActionRunner
	systemPrompt string
	maxLoops     int
	retry        llm.RetryPolicy
	events       chan<- *types.AgentEvent

	// Token usage tracking
	tokenizer    *tokenizer.Tokenizer
	tokenizerSet bool

	tracer      trace.Tracer
	instruments *telemetry.Instruments
}

// AgentOption is a function that configures an agent
type AgentOption func(*Agent)

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) AgentOption {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithMaxLoops sets the step budget per turn.
func WithMaxLoops(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxLoops = n
		}
	}
}

// WithRetryPolicy sets how rate-limited provider calls are retried.
func WithRetryPolicy(p llm.RetryPolicy) AgentOption {
	return func(a *Agent) {
		a.retry = p
	}
}

// WithEvents sets the channel progress events are sent on. Sends block, so
// the channel must be drained while a turn runs.
func WithEvents(ch chan<- *types.AgentEvent) AgentOption {
	return func(a *Agent) {
		a.events = ch
	}
}

// WithTokenizer sets the tokenizer used for prompt size estimates. A nil
// tokenizer falls back to character-based estimates.
func WithTokenizer(t *tokenizer.Tokenizer) AgentOption {
	return func(a *Agent) {
		a.tokenizer = t
		a.tokenizerSet = true
	}
}

// New creates an agent. capture may be nil for runs without a browser, in
// which case no page context is sent.
func New(adapters AdapterBuilder, capture ContextSource, actions ActionRunner, opts ...AgentOption) *Agent {
	a := &Agent{
		adapters:     adapters,
		capture:      capture,
		actions:      actions,
		systemPrompt: prompts.Default(),
		maxLoops:     DefaultMaxLoops,
		retry:        llm.DefaultRetryPolicy(),
		tracer:       telemetry.Tracer(),
		instruments:  telemetry.NewInstruments(),
	}

	for _, opt := range opts {
		opt(a)
	}

	// Create tokenizer for client-side token counting
	if !a.tokenizerSet {
		tok, err := tokenizer.New()
		if err != nil {
			agentDebugLog.Warnf("tokenizer unavailable, using character estimates: %v", err)
		}
		a.tokenizer = tok
	}
	return a
}

// MaxLoops returns the step budget per turn.
func (a *Agent) MaxLoops() int {
	return a.maxLoops
}
