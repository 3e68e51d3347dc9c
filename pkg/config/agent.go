package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/tabpilot/pkg/llm"
)

const (
	// SectionIDAgent is the identifier for the agent loop section
	SectionIDAgent = "agent"

	DefaultMaxLoops      = 10
	DefaultHistoryWindow = 10
)

// AgentSection bounds the agent loop and its retries.
type AgentSection struct {
	MaxLoops           int
	HistoryWindow      int
	MaxRetries         int
	RetryDelay         time.Duration
	CustomInstructions string
	mu                 sync.RWMutex
}

// NewAgentSection creates a new agent section with default settings.
func NewAgentSection() *AgentSection {
	s := &AgentSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *AgentSection) ID() string {
	return SectionIDAgent
}

// Title returns the section title.
func (s *AgentSection) Title() string {
	return "Agent Settings"
}

// Description returns the section description.
func (s *AgentSection) Description() string {
	return "Limit how many steps one request may take, how much chat history is sent, and how rate-limited calls are retried."
}

// Data returns the current configuration data.
func (s *AgentSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"max_loops":           s.MaxLoops,
		"history_window":      s.HistoryWindow,
		"max_retries":         s.MaxRetries,
		"retry_delay":         s.RetryDelay.String(),
		"custom_instructions": s.CustomInstructions,
	}
}

// SetData updates the configuration from the provided data.
func (s *AgentSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "max_loops":
			s.MaxLoops, err = intValue(key, value)
		case "history_window":
			s.HistoryWindow, err = intValue(key, value)
		case "max_retries":
			s.MaxRetries, err = intValue(key, value)
		case "retry_delay":
			s.RetryDelay, err = durationValue(key, value)
		case "custom_instructions":
			s.CustomInstructions, err = stringValue(key, value)
		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *AgentSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.MaxLoops < 1 {
		return fmt.Errorf("max_loops must be at least 1, got %d", s.MaxLoops)
	}
	if s.HistoryWindow < 0 {
		return fmt.Errorf("history_window must not be negative, got %d", s.HistoryWindow)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", s.MaxRetries)
	}
	if s.RetryDelay < 0 || s.RetryDelay > time.Minute {
		return fmt.Errorf("retry_delay must be between 0 and 1m, got %v", s.RetryDelay)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *AgentSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.MaxLoops = DefaultMaxLoops
	s.HistoryWindow = DefaultHistoryWindow
	s.MaxRetries = llm.DefaultMaxRetries
	s.RetryDelay = llm.DefaultRetryDelay
	s.CustomInstructions = ""
}

// Limits returns the loop bound and history window.
func (s *AgentSection) Limits() (maxLoops, historyWindow int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.MaxLoops, s.HistoryWindow
}

// RetryPolicy returns the provider retry policy.
func (s *AgentSection) RetryPolicy() llm.RetryPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return llm.RetryPolicy{MaxRetries: s.MaxRetries, Delay: s.RetryDelay}
}

// GetCustomInstructions returns the user's extra system prompt text.
func (s *AgentSection) GetCustomInstructions() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.TrimSpace(s.CustomInstructions)
}

// SetCustomInstructions sets the user's extra system prompt text.
func (s *AgentSection) SetCustomInstructions(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CustomInstructions = text
}
