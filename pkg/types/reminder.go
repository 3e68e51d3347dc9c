package types

import "time"

// ReminderStatus is the lifecycle state of a reminder.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderCompleted ReminderStatus = "completed"
	ReminderDismissed ReminderStatus = "dismissed"
)

// Reminder is a timed notification created by the set_reminder action.
type Reminder struct {
	ID        string         `json:"id"`
	Message   string         `json:"message"`
	TriggerAt time.Time      `json:"triggerAt"`
	CreatedAt time.Time      `json:"createdAt"`
	Status    ReminderStatus `json:"status"`
}
