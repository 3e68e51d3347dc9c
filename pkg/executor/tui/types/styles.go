package types

import "github.com/charmbracelet/lipgloss"

// Shared colors for overlays.
var (
	SalmonPink = lipgloss.Color("#FFB3BA")
	MintGreen  = lipgloss.Color("#A8E6CF")
	MutedGray  = lipgloss.Color("#6B7280")
	PaletteBg  = lipgloss.Color("#2A2F3A")
)

var (
	// OverlayTitleStyle is used for main overlay titles
	OverlayTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(SalmonPink)

	// OverlayHelpStyle is used for help text and hints
	OverlayHelpStyle = lipgloss.NewStyle().
				Foreground(MutedGray).
				Italic(true)
)

// CreateOverlayContainerStyle returns the bordered box every overlay is drawn in.
func CreateOverlayContainerStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(SalmonPink).
		Padding(1, 2).
		Width(width)
}
