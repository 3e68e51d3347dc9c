package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/tabpilot/pkg/agent"
	"github.com/entrhq/tabpilot/pkg/config"
	"github.com/entrhq/tabpilot/pkg/executor/tui/overlay"
	"github.com/entrhq/tabpilot/pkg/reminder"
	"github.com/entrhq/tabpilot/pkg/session"
)

// initialModel builds the model and renders the current session.
func initialModel(ctx context.Context, conv *agent.Conversation, sessions *session.Manager, cfg *config.Config, reminders *reminder.Scheduler) *model {
	ta := textarea.New()
	ta.Placeholder = "Ask me to browse, search or read a page..."
	ta.Focus()
	ta.Prompt = "> "
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.MaxHeight = 8
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline.SetEnabled(false)

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(salmonPink)

	m := &model{
		ctx:            ctx,
		conv:           conv,
		sessions:       sessions,
		cfg:            cfg,
		reminders:      reminders,
		textarea:       ta,
		viewport:       vp,
		spinner:        sp,
		content:        &strings.Builder{},
		overlay:        newOverlayState(),
		commandPalette: overlay.NewCommandPalette(paletteItems()),
		toast:          &toastNotification{},
		needsConsent:   sessions != nil && !sessions.Consented(),
	}

	m.renderSession()
	return m
}

// Init starts the spinner and the cursor blink.
func (m *model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}
