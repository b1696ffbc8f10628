package models

import "time"

// Activity event types.
const (
	EventRegister    = "REGISTER"
	EventLogin       = "LOGIN"
	EventTaskCreated = "TASK_CREATED"
	EventTaskUpdated = "TASK_UPDATED"
	EventTaskDeleted = "TASK_DELETED"
)

// ActivityEvent is a single entry of a user's activity log.
type ActivityEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	UserID      int       `json:"user_id"`
	Type        string    `json:"type"`        // REGISTER | LOGIN | TASK_CREATED | TASK_UPDATED | TASK_DELETED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
