package model

import "time"

// Client status constants.
const (
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
	ClientStatusProspect = "prospect"
)

// Client is a customer organization of the tenant.
type Client struct {
	ID        *int64    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Company   string    `json:"company" db:"company"`
	Industry  string    `json:"industry" db:"industry"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
