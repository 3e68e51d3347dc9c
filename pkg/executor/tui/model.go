package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"github.com/entrhq/tabpilot/pkg/agent"
	"github.com/entrhq/tabpilot/pkg/config"
	"github.com/entrhq/tabpilot/pkg/executor/tui/overlay"
	"github.com/entrhq/tabpilot/pkg/reminder"
	"github.com/entrhq/tabpilot/pkg/session"
	"github.com/entrhq/tabpilot/pkg/types"
)

// model represents the state of the TUI application.
// It contains all components needed for the interactive terminal interface.
type model struct {
	// Bubble Tea components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Agent integration
	ctx       context.Context
	conv      *agent.Conversation
	sessions  *session.Manager
	cfg       *config.Config
	reminders *reminder.Scheduler

	// Markdown rendering for replies
	renderer      *glamour.TermRenderer
	rendererWidth int

	// Content buffers
	content *strings.Builder

	// UI state
	overlay        *overlayState
	commandPalette *overlay.CommandPalette
	toast          *toastNotification

	// Agent state
	agentBusy             bool
	currentLoadingMessage string
	needsConsent          bool

	// pendingAttachments go out with the next message only
	pendingAttachments []types.Attachment

	// options of the last ask_selection reply; empty when none is pending
	options     []types.Option
	optionIndex int

	lastReply string

	// Window dimensions
	width  int
	height int
	ready  bool

	// Token usage tracking
	totalPromptTokens     int // Cumulative estimated input tokens
	totalCompletionTokens int // Cumulative estimated output tokens
	currentContextTokens  int // Prompt size of the latest call

	// Application state
	shouldQuit bool // Flag to trigger application exit
}

// turnCompleteMsg carries the reply of a finished turn.
type turnCompleteMsg struct {
	reply *types.Message
	err   error
}

// reminderFiredMsg is sent when a reminder goes off.
type reminderFiredMsg struct {
	reminder types.Reminder
}

// toastNotification represents a temporary notification message
type toastNotification struct {
	active    bool
	message   string
	details   string
	icon      string
	isError   bool
	showUntil time.Time
}
