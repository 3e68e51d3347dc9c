package types

import tea "github.com/charmbracelet/bubbletea"

// Overlay is a modal view layered over the chat.
type Overlay interface {
	// Update handles a message. Returning a nil Overlay closes it.
	Update(msg tea.Msg, state StateProvider, actions ActionHandler) (Overlay, tea.Cmd)
	View() string
	Width() int
	Height() int
	SetDimensions(width, height int)
	Focused() bool
	SetFocused(focused bool)
}

// StateProvider exposes read-only model state to overlays.
type StateProvider interface {
	IsBusy() bool
}

// ActionHandler lets overlays act on the model.
type ActionHandler interface {
	SetOverlay(mode OverlayMode, overlay Overlay)
	ClearOverlay()
	ShowToast(message, details, icon string, isError bool)
	SetInput(value string)
	SetCursorEnd()
	Quit()
}
