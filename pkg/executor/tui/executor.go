// Package tui provides the interactive terminal front end: a chat view over
// the current session, a command palette of slash commands and live progress
// from the agent loop.
//
// The TUI codebase is split into multiple files for better organization:
// - executor.go: Main executor implementation and program lifecycle
// - model.go: Core model structure and state
// - init.go: Initialization logic
// - update.go: Bubble Tea Update function and message handling
// - view.go: Bubble Tea View function and rendering
// - events.go: Agent event processing
// - slash_commands.go: Slash command registry and handlers
// - helpers.go: Utility functions
// - styles.go: Color schemes and styling
package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/tabpilot/pkg/agent"
	"github.com/entrhq/tabpilot/pkg/config"
	"github.com/entrhq/tabpilot/pkg/logging"
	"github.com/entrhq/tabpilot/pkg/reminder"
	"github.com/entrhq/tabpilot/pkg/session"
	"github.com/entrhq/tabpilot/pkg/types"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("tui")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		debugLog.Warnf("Failed to initialize tui logger, using stderr fallback: %v", err)
	}
}

// Executor runs the chat UI until the user exits.
type Executor struct {
	conv      *agent.Conversation
	sessions  *session.Manager
	cfg       *config.Config
	reminders *reminder.Scheduler
	events    <-chan *types.AgentEvent

	mu      sync.Mutex
	program *tea.Program
}

// NewExecutor creates a TUI executor. events is the channel the agent emits
// on; it is drained for the lifetime of Run. reminders may be nil.
func NewExecutor(conv *agent.Conversation, sessions *session.Manager, cfg *config.Config, reminders *reminder.Scheduler, events <-chan *types.AgentEvent) *Executor {
	return &Executor{
		conv:      conv,
		sessions:  sessions,
		cfg:       cfg,
		reminders: reminders,
		events:    events,
	}
}

// Run starts the TUI and blocks until the user exits.
func (e *Executor) Run(ctx context.Context) error {
	debugLog.Infof("TUI executor starting")

	m := initialModel(ctx, e.conv, e.sessions, e.cfg, e.reminders)

	program := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	e.mu.Lock()
	e.program = program
	e.mu.Unlock()

	go func() {
		// Listen for agent events and forward them to the TUI
		for event := range e.events {
			program.Send(event)
		}
	}()

	_, err := program.Run()

	e.mu.Lock()
	e.program = nil
	e.mu.Unlock()

	// A running turn has nowhere to report to any more.
	e.conv.Cancel()

	if err != nil {
		return fmt.Errorf("failed to run TUI program: %w", err)
	}
	return nil
}

// ReminderFired shows a fired reminder in the chat. It is safe to call from
// any goroutine and does nothing when the UI is not running.
func (e *Executor) ReminderFired(r types.Reminder) {
	e.mu.Lock()
	program := e.program
	e.mu.Unlock()
	if program != nil {
		program.Send(reminderFiredMsg{reminder: r})
	}
}
