package model

import "time"

// ActivityLog records one action performed by a user in the CRM.
type ActivityLog struct {
	ID          *int64    `json:"id" db:"id"`
	UserName    string    `json:"user_name" db:"user_name"`
	Action      string    `json:"action" db:"action"`
	SubjectType string    `json:"subject_type" db:"subject_type"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
