package types

// ToastMsg is a message type for showing toast notifications
type ToastMsg struct {
	Message string
	Details string
	Icon    string
	IsError bool
}

// OperationStartMsg signals that a long-running operation has started
type OperationStartMsg struct {
	Message string // Loading message to display
}
