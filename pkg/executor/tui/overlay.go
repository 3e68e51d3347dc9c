package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/tabpilot/pkg/executor/tui/types"
)

// overlayState tracks the modal overlay, if any. Only one is open at a time;
// opening another replaces it.
type overlayState struct {
	mode    types.OverlayMode
	overlay types.Overlay
}

func newOverlayState() *overlayState {
	return &overlayState{mode: types.OverlayModeNone}
}

func (o *overlayState) activate(mode types.OverlayMode, overlay types.Overlay) {
	o.mode = mode
	o.overlay = overlay
}

func (o *overlayState) deactivate() {
	o.mode = types.OverlayModeNone
	o.overlay = nil
}

// isActive reports whether an overlay is open. A mode without an overlay is
// reset so callers never dereference nil.
func (o *overlayState) isActive() bool {
	if o.mode == types.OverlayModeNone {
		return false
	}
	if o.overlay == nil {
		o.mode = types.OverlayModeNone
		return false
	}
	return true
}

// renderOverlay centers the overlay on a blank screen.
func renderOverlay(overlay types.Overlay, width, height int) string {
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay.View(),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("0")),
	)
}

// overlayBottom paints block over baseView so that it ends just above the
// input box, leaving the rest of the layout untouched.
func overlayBottom(baseView, block string) string {
	if block == "" {
		return baseView
	}

	lines := strings.Split(baseView, "\n")
	blockLines := strings.Split(strings.TrimRight(block, "\n"), "\n")

	start := len(lines) - inputAreaLines - len(blockLines)
	if start < 0 {
		start = 0
	}
	for i, bl := range blockLines {
		if start+i >= len(lines) {
			lines = append(lines, "")
		}
		lines[start+i] = "  " + bl
	}
	return strings.Join(lines, "\n")
}

// inputAreaLines is the height kept clear below bottom overlays: the input
// box border and one line, plus the status bar.
const inputAreaLines = 5
