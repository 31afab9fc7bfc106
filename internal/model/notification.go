package model

import "time"

// Notification kinds.
const (
	NotificationLead   = "lead"
	NotificationSystem = "system"
)

// Notification is an inbox entry surfaced to the user.
type Notification struct {
	// ID is a UUID assigned on creation.
	ID string `json:"id" db:"id"`

	// Kind groups notifications in the inbox (lead, system).
	Kind string `json:"kind" db:"kind"`

	// Subject is the short headline.
	Subject string `json:"subject" db:"subject"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
