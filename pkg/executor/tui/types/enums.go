package types

// OverlayMode represents the current overlay state
type OverlayMode int

const (
	// OverlayModeNone indicates no overlay is active
	OverlayModeNone OverlayMode = iota
	// OverlayModeHelp shows the help overlay
	OverlayModeHelp
	// OverlayModeSessions shows the saved chat sessions
	OverlayModeSessions
	// OverlayModeMemory shows the saved memory items
	OverlayModeMemory
	// OverlayModeReminders shows scheduled reminders
	OverlayModeReminders
	// OverlayModeHistory shows the recorded interaction history
	OverlayModeHistory
)
