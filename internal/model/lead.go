package model

import "time"

// Lead status constants.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusLost      = "lost"
)

// Lead sources.
const (
	LeadSourceWeb      = "web"
	LeadSourceEmail    = "email"
	LeadSourceReferral = "referral"
)

// Lead is a prospective client that has not converted yet.
type Lead struct {
	ID        *int64    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Company   string    `json:"company" db:"company"`
	Subject   string    `json:"subject" db:"subject"`
	Source    string    `json:"source" db:"source"`
	Status    string    `json:"status" db:"status"`
	MessageID string    `json:"message_id" db:"message_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
