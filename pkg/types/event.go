package types

// AgentEventType defines the type of event emitted by the agent.
type AgentEventType string

const (
	EventTypeThought      AgentEventType = "thought"        // EventTypeThought carries the model's reasoning for the current step.
	EventTypeActionStart  AgentEventType = "action_start"   // EventTypeActionStart indicates a browser action is about to run.
	EventTypeActionResult AgentEventType = "action_result"  // EventTypeActionResult carries the result string of a browser action.
	EventTypeAPICallStart AgentEventType = "api_call_start" // EventTypeAPICallStart indicates the agent is calling the model provider.
	EventTypeAPICallEnd   AgentEventType = "api_call_end"   // EventTypeAPICallEnd indicates a provider call has completed.
	EventTypeRetry        AgentEventType = "retry"          // EventTypeRetry indicates a rate-limited provider call is being retried.
	EventTypeTokenUsage   AgentEventType = "token_usage"    // EventTypeTokenUsage carries prompt token estimates.
	EventTypeUpdateBusy   AgentEventType = "update_busy"    // EventTypeUpdateBusy indicates a change in the agent's busy status.
	EventTypeFinalAnswer  AgentEventType = "final_answer"   // EventTypeFinalAnswer carries the message that ends the turn.
	EventTypeTurnEnd      AgentEventType = "turn_end"       // EventTypeTurnEnd indicates the agent has finished processing the current turn.
	EventTypeError        AgentEventType = "error"          // EventTypeError indicates an error occurred during agent processing.
)

// AgentEvent represents an event emitted by the agent during a turn.
type AgentEvent struct {
	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}

	// Error contains error information for error events.
	Error error

	// Message is the final assistant message (for final answer events).
	Message *Message

	// TokenUsage contains prompt token estimates (for token usage events).
	TokenUsage *TokenUsage

	// Content holds text content (thought, action result).
	Content string

	// ActionName is the kind of browser action (for action events).
	ActionName string

	// Type indicates the kind of event.
	Type AgentEventType

	// Iteration is the zero-based loop iteration that produced the event.
	Iteration int

	// IsBusy indicates if the agent is busy (for busy status events).
	IsBusy bool
}

// TokenUsage contains token estimates for a provider call.
type TokenUsage struct {
	// PromptTokens is the estimated number of tokens in the prompt.
	PromptTokens int

	// CompletionTokens is the estimated number of tokens in the reply.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// NewThoughtEvent creates a thought event.
func NewThoughtEvent(iteration int, thought string) *AgentEvent {
	return &AgentEvent{
		Type:      EventTypeThought,
		Iteration: iteration,
		Content:   thought,
		Metadata:  make(map[string]interface{}),
	}
}

// NewActionStartEvent creates an action start event.
func NewActionStartEvent(iteration int, actionName string, descriptor map[string]interface{}) *AgentEvent {
	return &AgentEvent{
		Type:       EventTypeActionStart,
		Iteration:  iteration,
		ActionName: actionName,
		Metadata:   map[string]interface{}{"descriptor": descriptor},
	}
}

// NewActionResultEvent creates an action result event.
func NewActionResultEvent(iteration int, actionName, result string) *AgentEvent {
	return &AgentEvent{
		Type:       EventTypeActionResult,
		Iteration:  iteration,
		ActionName: actionName,
		Content:    result,
		Metadata:   make(map[string]interface{}),
	}
}

// NewAPICallStartEvent creates an API call start event.
func NewAPICallStartEvent(iteration int, provider, model string) *AgentEvent {
	return &AgentEvent{
		Type:      EventTypeAPICallStart,
		Iteration: iteration,
		Metadata:  map[string]interface{}{"provider": provider, "model": model},
	}
}

// NewAPICallEndEvent creates an API call end event.
func NewAPICallEndEvent(iteration int, provider string) *AgentEvent {
	return &AgentEvent{
		Type:      EventTypeAPICallEnd,
		Iteration: iteration,
		Metadata:  map[string]interface{}{"provider": provider},
	}
}

// NewRetryEvent creates a retry event for the given attempt number.
func NewRetryEvent(iteration, attempt int, err error) *AgentEvent {
	return &AgentEvent{
		Type:      EventTypeRetry,
		Iteration: iteration,
		Error:     err,
		Metadata:  map[string]interface{}{"attempt": attempt},
	}
}

// NewTokenUsageEvent creates a token usage event.
func NewTokenUsageEvent(promptTokens, completionTokens int) *AgentEvent {
	return &AgentEvent{
		Type: EventTypeTokenUsage,
		TokenUsage: &TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		Metadata: make(map[string]interface{}),
	}
}

// NewUpdateBusyEvent creates a busy status update event.
func NewUpdateBusyEvent(isBusy bool) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeUpdateBusy,
		IsBusy:   isBusy,
		Metadata: make(map[string]interface{}),
	}
}

// NewFinalAnswerEvent creates a final answer event.
func NewFinalAnswerEvent(msg *Message) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeFinalAnswer,
		Message:  msg,
		Content:  msg.Content,
		Metadata: make(map[string]interface{}),
	}
}

// NewTurnEndEvent creates a turn end event.
func NewTurnEndEvent() *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeTurnEnd,
		Metadata: make(map[string]interface{}),
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(err error) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeError,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// IsError reports whether the event carries an error.
func (e *AgentEvent) IsError() bool {
	return e.Type == EventTypeError
}
