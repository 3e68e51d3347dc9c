package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/tabpilot/pkg/agent"
	tuitypes "github.com/entrhq/tabpilot/pkg/executor/tui/types"
	"github.com/entrhq/tabpilot/pkg/types"
)

// Update handles all state updates for the TUI model.
// This is the main event loop handler for Bubble Tea.
//
// Uses pointer receiver to ensure overlay mutations via ActionHandler persist.
//
//nolint:gocyclo
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Check if quit was requested by an overlay or component
	if m.shouldQuit {
		return m, tea.Quit
	}

	if size, ok := msg.(tea.WindowSizeMsg); ok {
		return m.handleWindowResize(size)
	}

	if m.needsConsent {
		return m.handleConsent(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	// Handle spinner tick messages
	var spinnerCmd tea.Cmd
	m.spinner, spinnerCmd = m.spinner.Update(msg)

	// Handle command palette keyboard input BEFORE updating textarea
	// This prevents Enter from being processed by textarea when palette is active
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.commandPalette.IsActive() {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.commandPalette.Deactivate()
			m.textarea.Reset()
			return m, spinnerCmd
		case tea.KeyUp:
			m.commandPalette.SelectPrev()
			return m, spinnerCmd
		case tea.KeyDown:
			m.commandPalette.SelectNext()
			return m, spinnerCmd
		case tea.KeyTab, tea.KeyEnter:
			// Autocomplete with the selected command and close the palette
			selected := m.commandPalette.GetSelected()
			if selected != nil {
				m.textarea.SetValue("/" + selected.Name + " ")
				m.textarea.CursorEnd()
			}
			m.commandPalette.Deactivate()
			return m, spinnerCmd
		}
		// For other keys, continue to textarea update below
	}

	// Arrow keys pick among pending options instead of moving the cursor.
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.choosingOption() {
		switch keyMsg.Type {
		case tea.KeyUp:
			m.optionIndex = (m.optionIndex - 1 + len(m.options)) % len(m.options)
			return m, spinnerCmd
		case tea.KeyDown:
			m.optionIndex = (m.optionIndex + 1) % len(m.options)
			return m, spinnerCmd
		}
	}

	// Only update textarea if no overlay is active
	if !m.overlay.isActive() {
		if keyMsg, ok := msg.(tea.KeyMsg); !ok || keyMsg.Type != tea.KeyEnter {
			oldHeight := m.textarea.Height()
			m.textarea, tiCmd = m.textarea.Update(msg)
			if oldHeight != m.textarea.Height() && m.ready {
				m.recalculateLayout()
			}
		}

		// Handle command palette activation/deactivation based on input
		value := m.textarea.Value()
		switch {
		case value == "/" && !m.commandPalette.IsActive():
			m.commandPalette.Activate()
			m.commandPalette.UpdateFilter("")
		case strings.HasPrefix(value, "/") && m.commandPalette.IsActive():
			filter := strings.TrimPrefix(value, "/")
			m.commandPalette.UpdateFilter(filter)
		case !strings.HasPrefix(value, "/") && m.commandPalette.IsActive():
			m.commandPalette.Deactivate()
		}

		m.updateTextAreaHeight()
	}

	switch msg := msg.(type) {
	case turnCompleteMsg:
		return m.handleTurnComplete(msg)

	case reminderFiredMsg:
		return m.handleReminderFired(msg)

	case tuitypes.ToastMsg:
		m.ShowToast(msg.Message, msg.Details, msg.Icon, msg.IsError)
		return m, nil

	case tuitypes.OperationStartMsg:
		m.currentLoadingMessage = msg.Message
		return m, nil

	case *types.AgentEvent:
		m.handleAgentEvent(msg)
		return m, tea.Batch(tiCmd, spinnerCmd)

	case tea.MouseMsg:
		// Handle mouse events (especially scroll wheel) for viewport
		if m.overlay.isActive() {
			updated, overlayCmd := m.overlay.overlay.Update(msg, m, m)
			if updated == nil {
				m.ClearOverlay()
				return m, overlayCmd
			}
			m.overlay.overlay = updated
			return m, overlayCmd
		}
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, spinnerCmd)

	case tea.KeyMsg:
		return m.handleKeyPress(msg, tiCmd, spinnerCmd)
	}

	return m, tea.Batch(tiCmd, spinnerCmd)
}

// calculateViewportHeight computes the appropriate viewport height based on current model state
func (m *model) calculateViewportHeight() int {
	headerHeight := 10                     // ASCII art (7) + tips (1) + status bar (1) + blank line (1)
	inputHeight := m.textarea.Height() + 2 // textarea height + border
	statusBarHeight := 1
	extra := 0
	if m.agentBusy {
		extra = 1 // Loading indicator is a separate line when visible
	} else if len(m.options) > 0 {
		extra = len(m.options)
	}

	viewportHeight := m.height - headerHeight - inputHeight - statusBarHeight - extra
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	return viewportHeight
}

func (m *model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	if m.overlay.isActive() {
		m.overlay.overlay.SetDimensions(msg.Width, msg.Height)
	}

	m.viewport.Width = m.width - 4
	m.viewport.Height = m.calculateViewportHeight()
	m.textarea.SetWidth(m.width - 8)

	resized := m.ready
	m.ready = true
	if resized && !m.agentBusy {
		// Wrapping depends on the width, so redraw the chat.
		m.renderSession()
	}
	m.recalculateLayout()
	return m, nil
}

// handleConsent gates the UI until the terms are accepted.
func (m *model) handleConsent(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch strings.ToLower(key.String()) {
	case "y", "enter":
		if err := m.sessions.AcceptTerms(); err != nil {
			m.ShowToast("Could not save consent", err.Error(), "❌", true)
			return m, nil
		}
		m.needsConsent = false
		return m, nil
	case "n", "ctrl+c", "q":
		return m, tea.Quit
	}
	return m, nil
}

// handleTurnComplete shows the reply of a finished turn.
func (m *model) handleTurnComplete(msg turnCompleteMsg) (tea.Model, tea.Cmd) {
	m.agentBusy = false

	switch {
	case errors.Is(msg.err, agent.ErrBusy):
		m.ShowToast("Busy", "Wait for the current request to finish.", "⏳", true)
	case msg.err != nil:
		m.content.WriteString(errorStyle.Render(fmt.Sprintf("  ❌ Error: %v", msg.err)))
		m.content.WriteString("\n\n")
	}

	if msg.reply != nil {
		m.appendMessage(*msg.reply)
		m.lastReply = msg.reply.Content
		m.options = msg.reply.Options
		m.optionIndex = 0
	}

	m.recalculateLayout()
	return m, nil
}

// handleReminderFired announces a reminder in the chat.
func (m *model) handleReminderFired(msg reminderFiredMsg) (tea.Model, tea.Cmd) {
	m.content.WriteString(formatEntry("⏰ Reminder: ", msg.reminder.Message, headerStyle, m.width, true))
	m.content.WriteString("\n\n")
	m.refreshViewport()
	m.ShowToast("Reminder", msg.reminder.Message, "⏰", false)
	return m, nil
}

// handleKeyPress processes keyboard input
func (m *model) handleKeyPress(msg tea.KeyMsg, tiCmd, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	// If an overlay is active, pass keys to the overlay
	if m.overlay.isActive() {
		updated, cmd := m.overlay.overlay.Update(msg, m, m)
		if updated == nil {
			m.ClearOverlay()
		} else {
			m.overlay.overlay = updated
		}
		return m, tea.Batch(cmd, spinnerCmd)
	}

	switch msg.Type {
	case tea.KeyEsc:
		if m.agentBusy {
			m.conv.Cancel()
			m.ShowToast("Stopping", "Cancelling the current request", "⏹️", false)
		}
		return m, nil

	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyCtrlK, tea.KeyCtrlP:
		if m.commandPalette.IsActive() {
			m.commandPalette.Deactivate()
		} else {
			m.commandPalette.Activate()
		}
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var vpCmd tea.Cmd
		m.viewport, vpCmd = m.viewport.Update(msg)
		return m, vpCmd

	case tea.KeyEnter:
		if msg.Alt {
			m.textarea.InsertString("\n")
			m.updateTextAreaHeight()
			return m, nil
		}
		return m.handleEnter(tiCmd, spinnerCmd)
	}

	return m, tea.Batch(tiCmd, spinnerCmd)
}

// choosingOption reports whether arrow keys and Enter act on pending options.
func (m *model) choosingOption() bool {
	return len(m.options) > 0 && !m.agentBusy && strings.TrimSpace(m.textarea.Value()) == ""
}

// handleEnter handles Enter key press (send message, pick option or run command)
func (m *model) handleEnter(tiCmd, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())

	if input == "" {
		if m.choosingOption() {
			return m.handleOptionSelected(m.options[m.optionIndex])
		}
		return m, tea.Batch(tiCmd, spinnerCmd)
	}

	if strings.HasPrefix(input, "/") {
		return m.handleSlashCommand(input, tiCmd, spinnerCmd)
	}

	if m.agentBusy {
		m.ShowToast("Busy", "Wait for the current request to finish, or press Esc to stop it.", "⏳", true)
		return m, nil
	}

	// A bare number picks the matching option.
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(m.options) {
		m.textarea.Reset()
		return m.handleOptionSelected(m.options[n-1])
	}

	return m.handleAgentMessage(input, tiCmd, spinnerCmd)
}

// handleSlashCommand processes slash commands
func (m *model) handleSlashCommand(input string, tiCmd, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	// Slash commands are not part of the chat history
	m.textarea.Reset()

	commandName, args, ok := parseSlashCommand(input)
	if !ok {
		m.ShowToast("Invalid command", "Could not parse slash command", "❌", true)
		return m, tea.Batch(tiCmd, spinnerCmd)
	}

	updatedModel, cmd := executeSlashCommand(m, commandName, args)
	return updatedModel, tea.Batch(tiCmd, spinnerCmd, cmd)
}

// handleAgentMessage sends a chat message with any pending attachments
func (m *model) handleAgentMessage(input string, tiCmd, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	attachments := m.pendingAttachments
	m.pendingAttachments = nil

	m.appendMessage(types.Message{Role: types.RoleUser, Content: input, Attachments: attachments})
	m.textarea.Reset()
	m.startTurn()

	conv, ctx := m.conv, m.ctx
	send := func() tea.Msg {
		reply, err := conv.Send(ctx, input, attachments)
		return turnCompleteMsg{reply: reply, err: err}
	}
	return m, tea.Batch(tiCmd, spinnerCmd, send)
}

// handleOptionSelected answers a pending ask_selection question
func (m *model) handleOptionSelected(opt types.Option) (tea.Model, tea.Cmd) {
	m.appendMessage(types.Message{Role: types.RoleUser, Content: types.OptionSelectionText(opt)})
	m.startTurn()

	conv, ctx := m.conv, m.ctx
	return m, func() tea.Msg {
		reply, err := conv.SelectOption(ctx, opt)
		return turnCompleteMsg{reply: reply, err: err}
	}
}

// startTurn flips the UI into its busy state
func (m *model) startTurn() {
	m.options = nil
	m.optionIndex = 0
	m.agentBusy = true
	m.currentLoadingMessage = getRandomLoadingMessage()
	m.recalculateLayout()
}

// recalculateLayout updates viewport content and scrolls to bottom
func (m *model) recalculateLayout() {
	m.viewport.Height = m.calculateViewportHeight()
	m.refreshViewport()
}
