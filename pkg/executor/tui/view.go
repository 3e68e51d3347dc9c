package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const headerArt = `
	████████╗ █████╗ ██████╗ ██████╗ ██╗██╗      ██████╗ ████████╗
	╚══██╔══╝██╔══██╗██╔══██╗██╔══██╗██║██║     ██╔═══██╗╚══██╔══╝
	   ██║   ███████║██████╔╝██████╔╝██║██║     ██║   ██║   ██║
	   ██║   ██╔══██║██╔══██╗██╔═══╝ ██║██║     ██║   ██║   ██║
	   ██║   ██║  ██║██████╔╝██║     ██║███████╗╚██████╔╝   ██║
	   ╚═╝   ╚═╝  ╚═╝╚═════╝ ╚═╝     ╚═╝╚══════╝ ╚═════╝    ╚═╝`

// consentText is shown until the user accepts the terms on first run.
const consentText = `Welcome to TabPilot.

TabPilot drives a real browser on your behalf. To answer you it reads the
active page (title, address, visible text and a screenshot) and sends it,
together with your messages and saved memory, to the AI provider you
configure. Chats, memory and reminders are stored only on this machine.

Actions run with your browser session, including any sites you are signed
in to. Review what the agent is about to do when it matters.

Press y to accept and continue, or n to quit.`

// View renders the entire TUI interface.
// This is called by Bubble Tea whenever the UI needs to be redrawn.
func (m *model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.needsConsent {
		return m.buildConsent()
	}

	// Build header and status sections
	header := m.buildHeader()
	tips := m.buildTips()
	topStatus := m.buildTopStatus()
	loadingIndicator := m.buildLoadingIndicator()
	optionsSection := m.buildOptions()
	inputBox := m.buildInputBox()
	bottomBar := m.buildBottomBar()

	// Build viewport section
	viewportSection := m.viewport.View()

	// Assemble the base UI
	baseView := m.assembleBaseView(header, tips, topStatus, viewportSection, loadingIndicator, optionsSection, inputBox, bottomBar)

	// Layer overlays
	return m.applyOverlays(baseView)
}

// buildConsent renders the first-run consent screen
func (m *model) buildConsent() string {
	box := consentBoxStyle.Width(min(m.width-4, 80)).Render(consentText)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, headerStyle.Render(headerArt), "", box))
}

// buildHeader renders the ASCII art header
func (m *model) buildHeader() string {
	return headerStyle.Render(headerArt)
}

// buildTips renders context-sensitive usage tips
func (m *model) buildTips() string {
	if len(m.options) > 0 {
		return tipsStyle.Render(`  Pick an option: ↑/↓ and Enter, or type its number • Or type a new message`)
	}
	return tipsStyle.Render(`  Tips: Ask about the page • Alt+Enter for new line • / for commands • Esc to stop • Ctrl+C to exit`)
}

// buildTopStatus renders the session and provider status bar
func (m *model) buildTopStatus() string {
	title := "New Chat"
	if m.sessions != nil {
		if current := m.sessions.Current(); current != nil {
			title = current.Title
		}
	}

	provider := "no provider"
	if m.conv != nil {
		if sel, err := m.conv.Selection(); err == nil {
			provider = fmt.Sprintf("%s · %s", sel.Provider, sel.ModelID())
		}
	}

	status := fmt.Sprintf(" Chat: %s | %s", title, provider)
	if n := len(m.pendingAttachments); n > 0 {
		status += fmt.Sprintf(" | 📎 %d attached", n)
	}
	return statusBarStyle.Render(status)
}

// buildLoadingIndicator renders the loading spinner when agent is busy
func (m *model) buildLoadingIndicator() string {
	if !m.agentBusy {
		return ""
	}
	loadingMsg := fmt.Sprintf("%s %s", m.spinner.View(), m.currentLoadingMessage)
	loadingStyle := lipgloss.NewStyle().
		Foreground(salmonPink).
		Width(m.width-4).
		Padding(0, 2)
	return loadingStyle.Render(loadingMsg)
}

// buildOptions renders the pending ask_selection choices
func (m *model) buildOptions() string {
	if len(m.options) == 0 || m.agentBusy {
		return ""
	}
	lines := make([]string, 0, len(m.options))
	for i, opt := range m.options {
		if i == m.optionIndex {
			lines = append(lines, selectedOptionStyle.Render("> "+formatOption(i, opt)))
		} else {
			lines = append(lines, optionStyle.Render(formatOption(i, opt)))
		}
	}
	return strings.Join(lines, "\n")
}

// buildInputBox renders the text input area
func (m *model) buildInputBox() string {
	return inputBoxStyle.Width(m.width - 4).Render(m.textarea.View())
}

// buildBottomBar renders the bottom status bar with token usage
func (m *model) buildBottomBar() string {
	bottomLeft := "~/tabpilot"
	bottomCenter := "Enter to send • Alt+Enter for new line"
	if m.agentBusy {
		bottomCenter = "Esc to stop"
	}
	bottomRight := m.buildTokenDisplay()

	totalUsed := len(bottomLeft) + len(bottomCenter) + len(bottomRight)
	leftPadding := (m.width - totalUsed) / 3
	rightPadding := m.width - totalUsed - leftPadding*2
	if leftPadding < 2 {
		leftPadding = 2
	}
	if rightPadding < 2 {
		rightPadding = 2
	}

	return statusBarStyle.Width(m.width).Render(
		bottomLeft +
			strings.Repeat(" ", leftPadding) +
			bottomCenter +
			strings.Repeat(" ", rightPadding) +
			bottomRight,
	)
}

// buildTokenDisplay renders the token usage statistics
func (m *model) buildTokenDisplay() string {
	total := m.totalPromptTokens + m.totalCompletionTokens
	if total == 0 {
		return "TabPilot"
	}

	return fmt.Sprintf("◆ Last prompt: %s | Input: %s | Output: %s",
		formatTokenCount(m.currentContextTokens),
		formatTokenCount(m.totalPromptTokens),
		formatTokenCount(m.totalCompletionTokens))
}

// assembleBaseView combines all UI components into the base view
func (m *model) assembleBaseView(header, tips, topStatus, viewportSection, loadingIndicator, optionsSection, inputBox, bottomBar string) string {
	parts := []string{header, tips, topStatus, "", viewportSection}
	if loadingIndicator != "" {
		parts = append(parts, loadingIndicator)
	}
	if optionsSection != "" {
		parts = append(parts, optionsSection)
	}
	parts = append(parts, inputBox, bottomBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// applyOverlays layers all active overlays on top of the base view
func (m *model) applyOverlays(baseView string) string {
	if m.overlay.isActive() {
		baseView = renderOverlay(m.overlay.overlay, m.width, m.height)
	}

	if m.commandPalette.IsActive() {
		baseView = overlayBottom(baseView, m.commandPalette.Render(m.width))
	}

	// Add toast notification as overlay if active and not expired
	if m.toast.active && time.Now().Before(m.toast.showUntil) {
		baseView = overlayBottom(baseView, m.renderToast())
	}

	return baseView
}

// renderToast renders a toast notification
func (m *model) renderToast() string {
	if !m.toast.active || time.Now().After(m.toast.showUntil) {
		return ""
	}

	// Create box with border
	boxWidth := m.width - 4
	if boxWidth < 40 {
		boxWidth = 40
	}

	var content strings.Builder

	// Icon and message
	header := fmt.Sprintf("%s %s", m.toast.icon, m.toast.message)
	content.WriteString(header)
	content.WriteString("\n")

	// Details
	if m.toast.details != "" {
		content.WriteString(m.toast.details)
	}

	// Create styled box
	borderColor := salmonPink
	if m.toast.isError {
		borderColor = lipgloss.Color("203") // Red color for errors
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(boxWidth)

	return "\n" + boxStyle.Render(content.String()) + "\n"
}
