package tui

import (
	"time"

	"github.com/entrhq/tabpilot/pkg/executor/tui/types"
)

// SetOverlay activates an overlay
func (m *model) SetOverlay(mode types.OverlayMode, overlay types.Overlay) {
	m.overlay.activate(mode, overlay)
}

// ClearOverlay closes the overlay and gives focus back to the input.
func (m *model) ClearOverlay() {
	m.overlay.deactivate()
	m.textarea.Focus()
}

// ShowToast displays a toast notification
func (m *model) ShowToast(message, details, icon string, isError bool) {
	m.toast = &toastNotification{
		active:    true,
		message:   message,
		details:   details,
		icon:      icon,
		isError:   isError,
		showUntil: time.Now().Add(4 * time.Second),
	}
}

// SetInput sets the textarea content
func (m *model) SetInput(value string) {
	m.textarea.SetValue(value)
	m.updateTextAreaHeight()
}

// SetCursorEnd moves the cursor to the end of input
func (m *model) SetCursorEnd() {
	m.textarea.CursorEnd()
}

// Quit triggers application exit by setting a flag that will be checked in the Update loop.
func (m *model) Quit() {
	m.shouldQuit = true
}

// IsBusy reports whether a turn is running.
func (m *model) IsBusy() bool {
	return m.agentBusy
}
