package types

import (
	"errors"
	"testing"
)

func TestAgentEventType(t *testing.T) {
	tests := []struct {
		eventType AgentEventType
		expected  string
	}{
		{EventTypeThought, "thought"},
		{EventTypeActionStart, "action_start"},
		{EventTypeActionResult, "action_result"},
		{EventTypeAPICallStart, "api_call_start"},
		{EventTypeAPICallEnd, "api_call_end"},
		{EventTypeRetry, "retry"},
		{EventTypeTokenUsage, "token_usage"},
		{EventTypeUpdateBusy, "update_busy"},
		{EventTypeFinalAnswer, "final_answer"},
		{EventTypeTurnEnd, "turn_end"},
		{EventTypeError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.eventType) != tt.expected {
				t.Errorf("EventType = %v, want %v", tt.eventType, tt.expected)
			}
		})
	}
}

func TestNewActionEvents(t *testing.T) {
	start := NewActionStartEvent(2, "navigate", map[string]interface{}{"url": "https://example.com"})
	if start.Type != EventTypeActionStart {
		t.Errorf("ActionStart type = %v, want %v", start.Type, EventTypeActionStart)
	}
	if start.Iteration != 2 || start.ActionName != "navigate" {
		t.Errorf("ActionStart = %+v, want iteration 2 and action navigate", start)
	}
	if _, ok := start.Metadata["descriptor"]; !ok {
		t.Error("ActionStart descriptor metadata not set")
	}

	result := NewActionResultEvent(2, "navigate", "✅ Navigated")
	if result.Type != EventTypeActionResult {
		t.Errorf("ActionResult type = %v, want %v", result.Type, EventTypeActionResult)
	}
	if result.Content != "✅ Navigated" {
		t.Errorf("ActionResult content = %q", result.Content)
	}
}

func TestNewAPIEvents(t *testing.T) {
	start := NewAPICallStartEvent(0, "gemini", "gemini-2.0-flash")
	if start.Type != EventTypeAPICallStart {
		t.Errorf("APICallStart type = %v, want %v", start.Type, EventTypeAPICallStart)
	}
	if start.Metadata["provider"] != "gemini" || start.Metadata["model"] != "gemini-2.0-flash" {
		t.Errorf("APICallStart metadata = %v", start.Metadata)
	}

	end := NewAPICallEndEvent(0, "gemini")
	if end.Type != EventTypeAPICallEnd {
		t.Errorf("APICallEnd type = %v, want %v", end.Type, EventTypeAPICallEnd)
	}

	err := errors.New("429")
	retry := NewRetryEvent(1, 2, err)
	if retry.Type != EventTypeRetry || retry.Error != err {
		t.Errorf("Retry event = %+v", retry)
	}
	if retry.Metadata["attempt"] != 2 {
		t.Errorf("Retry attempt = %v, want 2", retry.Metadata["attempt"])
	}
}

func TestNewTokenUsageEvent(t *testing.T) {
	ev := NewTokenUsageEvent(120, 30)
	if ev.TokenUsage == nil {
		t.Fatal("TokenUsage not set")
	}
	if ev.TokenUsage.TotalTokens != 150 {
		t.Errorf("TotalTokens = %d, want 150", ev.TokenUsage.TotalTokens)
	}
}

func TestTurnEvents(t *testing.T) {
	busy := NewUpdateBusyEvent(true)
	if busy.Type != EventTypeUpdateBusy || !busy.IsBusy {
		t.Errorf("UpdateBusy = %+v", busy)
	}

	msg := NewAssistantMessage("done", "looked at the page")
	final := NewFinalAnswerEvent(msg)
	if final.Type != EventTypeFinalAnswer || final.Message != msg || final.Content != "done" {
		t.Errorf("FinalAnswer = %+v", final)
	}

	if NewTurnEndEvent().Type != EventTypeTurnEnd {
		t.Error("TurnEnd type mismatch")
	}

	thought := NewThoughtEvent(3, "thinking")
	if thought.Content != "thinking" || thought.Iteration != 3 {
		t.Errorf("Thought = %+v", thought)
	}
}

func TestIsError(t *testing.T) {
	if !NewErrorEvent(errors.New("boom")).IsError() {
		t.Error("Error event should report IsError")
	}
	if NewTurnEndEvent().IsError() {
		t.Error("TurnEnd should not report IsError")
	}
}
