package model

import "time"

// Project status constants.
const (
	ProjectStatusPlanned   = "planned"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
)

// Project is a body of work delivered for a client.
type Project struct {
	ID          *int64     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	ClientID    *int64     `json:"client_id" db:"client_id"`
	ClientName  string     `json:"client_name" db:"client_name"`
	Status      string     `json:"status" db:"status"`
	Budget      float64    `json:"budget" db:"budget"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
