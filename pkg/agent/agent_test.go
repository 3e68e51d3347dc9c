package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/tabpilot/pkg/agent/decision"
	"github.com/entrhq/tabpilot/pkg/agent/prompts"
	"github.com/entrhq/tabpilot/pkg/browser/browsertest"
	"github.com/entrhq/tabpilot/pkg/llm"
	toolsbrowser "github.com/entrhq/tabpilot/pkg/tools/browser"
	"github.com/entrhq/tabpilot/pkg/types"
)

// scriptedAdapter replays canned replies and records every request.
type scriptedAdapter struct {
	mu       sync.Mutex
	replies  []func(req *llm.Request) (string, error)
	requests []*llm.Request
}

func (s *scriptedAdapter) Provider() llm.ProviderID { return llm.ProviderGemini }

func (s *scriptedAdapter) Send(ctx context.Context, req *llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return `{"thought":"again","action":{"action":"scroll","direction":"down"}}`, nil
	}
	next := s.replies[0]
	s.replies = s.replies[1:]
	return next(req)
}

func (s *scriptedAdapter) calls() []*llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*llm.Request(nil), s.requests...)
}

func reply(raw string) func(*llm.Request) (string, error) {
	return func(*llm.Request) (string, error) { return raw, nil }
}

func failWith(err error) func(*llm.Request) (string, error) {
	return func(*llm.Request) (string, error) { return "", err }
}

func registryFor(adapter llm.Adapter) *llm.Registry {
	r := llm.NewRegistry()
	r.Register(llm.ProviderGemini, func(sel llm.Selection) (llm.Adapter, error) {
		return adapter, nil
	})
	return r
}

type recordingRunner struct {
	mu      sync.Mutex
	actions []decision.Action
	result  func(decision.Action) string
}

func (r *recordingRunner) Execute(ctx context.Context, a decision.Action) string {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
	if r.result != nil {
		return r.result(a)
	}
	return toolsbrowser.SuccessMarker + "done"
}

type staticCapture struct{ page *types.TurnContext }

func (s staticCapture) Capture(ctx context.Context) *types.TurnContext { return s.page }

var testSelection = llm.Selection{Provider: llm.ProviderGemini, APIKey: "test-key"}

func noSleepRetry() llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxRetries: 3,
		Delay:      2 * time.Second,
		Sleep:      func(ctx context.Context, d time.Duration) error { return ctx.Err() },
	}
}

func newTestAgent(adapter llm.Adapter, runner ActionRunner, opts ...AgentOption) *Agent {
	opts = append([]AgentOption{WithTokenizer(nil), WithRetryPolicy(noSleepRetry())}, opts...)
	return New(registryFor(adapter), staticCapture{page: &types.TurnContext{Title: "Example", URL: "https://example.com"}}, runner, opts...)
}

func TestRunEmptyTextIsNoop(t *testing.T) {
	adapter := &scriptedAdapter{}
	a := newTestAgent(adapter, &recordingRunner{})

	assert.Nil(t, a.Run(context.Background(), Turn{Text: "   ", Selection: testSelection}))
	assert.Empty(t, adapter.calls())
}

func TestRunPlainAnswer(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"thought":"easy","response":"Paris"}`),
	}}
	runner := &recordingRunner{}
	a := newTestAgent(adapter, runner)

	msg := a.Run(context.Background(), Turn{Text: "capital of France?", Selection: testSelection})

	require.NotNil(t, msg)
	assert.Equal(t, types.RoleAssistant, msg.Role)
	assert.Equal(t, "Paris", msg.Content)
	assert.Equal(t, "easy", msg.Thought)
	assert.Empty(t, runner.actions)

	calls := adapter.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "capital of France?", calls[0].Message)
	assert.Equal(t, "https://example.com", calls[0].Context.URL)
}

func TestRunStopsAtStepLimit(t *testing.T) {
	adapter := &scriptedAdapter{}
	runner := &recordingRunner{}
	a := newTestAgent(adapter, runner)

	msg := a.Run(context.Background(), Turn{Text: "keep scrolling", Selection: testSelection})

	require.NotNil(t, msg)
	assert.Equal(t, prompts.StepLimitAnswer, msg.Content)
	assert.Equal(t, "again", msg.Thought)
	assert.Len(t, adapter.calls(), DefaultMaxLoops)
	assert.Len(t, runner.actions, DefaultMaxLoops)
}

func TestRunHonoursMaxLoopsOption(t *testing.T) {
	adapter := &scriptedAdapter{}
	a := newTestAgent(adapter, &recordingRunner{}, WithMaxLoops(3))

	a.Run(context.Background(), Turn{Text: "go", Selection: testSelection})
	assert.Len(t, adapter.calls(), 3)
	assert.Equal(t, 3, a.MaxLoops())
}

func TestRunContinuationAndAttachments(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"thought":"look","action":{"action":"scroll","direction":"down"}}`),
		reply(`{"response":"found it"}`),
	}}
	a := newTestAgent(adapter, &recordingRunner{})
	atts := []types.Attachment{{Name: "notes.txt", Type: types.AttachmentText, Content: "hello"}}

	msg := a.Run(context.Background(), Turn{Text: "read this", Attachments: atts, Selection: testSelection})
	assert.Equal(t, "found it", msg.Content)

	calls := adapter.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "read this", calls[0].Message)
	assert.Equal(t, atts, calls[0].Attachments)
	assert.Equal(t, prompts.ContinuationPrompt, calls[1].Message)
	assert.Empty(t, calls[1].Attachments)

	require.Len(t, calls[1].History, 2)
	assert.Equal(t, types.RoleAssistant, calls[1].History[0].Role)
	assert.Equal(t, "Thought: look\nAction: {\"action\":\"scroll\",\"direction\":\"down\"}", calls[1].History[0].Content)
	assert.Equal(t, types.RoleUser, calls[1].History[1].Role)
	assert.Equal(t, "Action Result: "+toolsbrowser.SuccessMarker+"done", calls[1].History[1].Content)
}

func TestRunDoesNotMutateCallerHistory(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"action":{"action":"scroll","direction":"down"}}`),
		reply(`{"response":"ok"}`),
	}}
	a := newTestAgent(adapter, &recordingRunner{})
	history := make([]llm.HistoryEntry, 1, 8)
	history[0] = llm.HistoryEntry{Role: types.RoleUser, Content: "earlier"}

	a.Run(context.Background(), Turn{Text: "go", History: history, Selection: testSelection})

	calls := adapter.calls()
	assert.Len(t, calls[0].History, 1)
	assert.Len(t, calls[1].History, 3)
	assert.Equal(t, llm.HistoryEntry{}, history[:2][1])
}

func TestRunFeedsFailedActionBack(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"thought":"click it","action":{"action":"click","selector":"#hidden"}}`),
		reply(`{"thought":"it was hidden","response":"The button is not visible."}`),
	}}
	runner := &recordingRunner{result: func(decision.Action) string {
		return toolsbrowser.FailureMarker + "Element #hidden is not visible."
	}}
	a := newTestAgent(adapter, runner)

	msg := a.Run(context.Background(), Turn{Text: "click the hidden button", Selection: testSelection})

	assert.Equal(t, "The button is not visible.", msg.Content)
	calls := adapter.calls()
	require.Len(t, calls, 2)
	last := calls[1].History[len(calls[1].History)-1]
	assert.Equal(t, "Action Result: "+toolsbrowser.FailureMarker+"Element #hidden is not visible.", last.Content)
}

func TestRunExplainedActionEndsTurn(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"thought":"scroll","action":{"action":"scroll","direction":"down"},"response":"Scrolled down for you."}`),
	}}
	runner := &recordingRunner{}
	a := newTestAgent(adapter, runner)

	msg := a.Run(context.Background(), Turn{Text: "scroll down", Selection: testSelection})

	assert.Equal(t, "Scrolled down for you.", msg.Content)
	assert.Len(t, runner.actions, 1)
	assert.Len(t, adapter.calls(), 1)
}

func TestRunAskSelectionReturnsOptions(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"thought":"ambiguous","action":{"action":"ask_selection","question":"Which one?","options":["A","B"]}}`),
	}}
	runner := &recordingRunner{result: func(a decision.Action) string {
		return a.(decision.AskSelection).Question
	}}
	a := newTestAgent(adapter, runner)

	msg := a.Run(context.Background(), Turn{Text: "open the result", Selection: testSelection})

	assert.Equal(t, "Which one?", msg.Content)
	assert.Equal(t, []types.Option{{Label: "A", Value: "A"}, {Label: "B", Value: "B"}}, msg.Options)
	assert.Len(t, adapter.calls(), 1)
}

func TestRunRetriesRateLimit(t *testing.T) {
	rateLimited := llm.ClassifyStatus(llm.ProviderGemini, 429, "slow down")
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		failWith(rateLimited),
		failWith(rateLimited),
		reply(`{"response":"finally"}`),
	}}
	events := make(chan *types.AgentEvent, 64)
	a := newTestAgent(adapter, &recordingRunner{}, WithEvents(events))

	msg := a.Run(context.Background(), Turn{Text: "hi", Selection: testSelection})
	close(events)

	assert.Equal(t, "finally", msg.Content)
	assert.Len(t, adapter.calls(), 3)

	var retries []int
	for ev := range events {
		if ev.Type == types.EventTypeRetry {
			retries = append(retries, ev.Iteration)
		}
	}
	assert.Equal(t, []int{0, 0}, retries)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name      string
		selection llm.Selection
		replies   []func(*llm.Request) (string, error)
		want      string
		wantCalls int
	}{
		{
			name:      "missing key",
			selection: llm.Selection{Provider: llm.ProviderGemini},
			want:      "Error: API key is missing, please set it in settings",
			wantCalls: 0,
		},
		{
			name:      "protocol error",
			selection: testSelection,
			replies:   []func(*llm.Request) (string, error){failWith(llm.NewProtocolError(llm.ProviderGemini, "empty reply"))},
			want:      "Error: AI returned invalid response: empty reply",
			wantCalls: 1,
		},
		{
			name:      "rate limit exhausted",
			selection: testSelection,
			replies: []func(*llm.Request) (string, error){
				failWith(llm.ClassifyStatus(llm.ProviderGemini, 429, "quota")),
				failWith(llm.ClassifyStatus(llm.ProviderGemini, 429, "quota")),
				failWith(llm.ClassifyStatus(llm.ProviderGemini, 429, "quota")),
				failWith(llm.ClassifyStatus(llm.ProviderGemini, 429, "quota")),
			},
			want:      "Error: gemini rate limit exceeded: quota",
			wantCalls: 4,
		},
		{
			name:      "transport",
			selection: testSelection,
			replies:   []func(*llm.Request) (string, error){failWith(llm.NewTransportError(llm.ProviderGemini, errors.New("connection refused")))},
			want:      "Error: connection refused",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &scriptedAdapter{replies: tt.replies}
			a := newTestAgent(adapter, &recordingRunner{})

			msg := a.Run(context.Background(), Turn{Text: "hi", Selection: tt.selection})

			require.NotNil(t, msg)
			assert.Equal(t, tt.want, msg.Content)
			assert.Len(t, adapter.calls(), tt.wantCalls)
		})
	}
}

func TestRunCancelledContext(t *testing.T) {
	adapter := &scriptedAdapter{}
	a := newTestAgent(adapter, &recordingRunner{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := a.Run(ctx, Turn{Text: "hi", Selection: testSelection})

	assert.Equal(t, fmt.Sprintf("Error: %v", context.Canceled), msg.Content)
	assert.Empty(t, adapter.calls())
}

func TestRunEmitsEvents(t *testing.T) {
	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"thought":"step","action":{"action":"scroll","direction":"down"}}`),
		reply(`{"thought":"done","response":"ok"}`),
	}}
	events := make(chan *types.AgentEvent, 64)
	a := newTestAgent(adapter, &recordingRunner{}, WithEvents(events))

	a.Run(context.Background(), Turn{Text: "hi", Selection: testSelection})
	close(events)

	var kinds []types.AgentEventType
	var final *types.Message
	for ev := range events {
		kinds = append(kinds, ev.Type)
		if ev.Type == types.EventTypeFinalAnswer {
			final = ev.Message
		}
	}

	assert.Equal(t, types.EventTypeUpdateBusy, kinds[0])
	assert.Equal(t, types.EventTypeTurnEnd, kinds[len(kinds)-1])
	assert.Contains(t, kinds, types.EventTypeThought)
	assert.Contains(t, kinds, types.EventTypeActionStart)
	assert.Contains(t, kinds, types.EventTypeActionResult)
	assert.Contains(t, kinds, types.EventTypeAPICallStart)
	assert.Contains(t, kinds, types.EventTypeTokenUsage)
	require.NotNil(t, final)
	assert.Equal(t, "ok", final.Content)
}

func TestRunSearchWithBrowserExecutor(t *testing.T) {
	host := browsertest.New("https://example.com", "Example")
	exec := toolsbrowser.NewExecutor(host, nil, toolsbrowser.Options{PollInterval: time.Millisecond})

	adapter := &scriptedAdapter{replies: []func(*llm.Request) (string, error){
		reply(`{"thought":"I should search","action":{"action":"search","query":"weather today"}}`),
		reply(`{"thought":"results are up","response":"Here is the weather."}`),
	}}
	a := New(registryFor(adapter), nil, exec, WithTokenizer(nil))

	msg := a.Run(context.Background(), Turn{Text: "search for weather today", Selection: testSelection})

	assert.Equal(t, "Here is the weather.", msg.Content)
	require.Len(t, host.Navigations, 1)
	assert.Contains(t, host.Navigations[0], "weather%20today")

	calls := adapter.calls()
	require.Len(t, calls, 2)
	result := calls[1].History[len(calls[1].History)-1].Content
	assert.True(t, strings.HasPrefix(result, "Action Result: "+toolsbrowser.SuccessMarker), result)
}
