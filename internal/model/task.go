package model

import "time"

// Task status constants.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusReview     = "review"
	TaskStatusDone       = "done"
)

// Task priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Task is a unit of work inside a project, optionally assigned to a user.
type Task struct {
	ID           *int64     `json:"id" db:"id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	ProjectID    *int64     `json:"project_id" db:"project_id"`
	ProjectName  string     `json:"project_name" db:"project_name"`
	AssigneeID   *int64     `json:"assignee_id" db:"assignee_id"`
	AssigneeName string     `json:"assignee_name" db:"assignee_name"`
	Status       string     `json:"status" db:"status"`
	Priority     string     `json:"priority" db:"priority"`
	DueDate      *time.Time `json:"due_date" db:"due_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// IsOverdue reports whether the task is past its due date and not done.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.Status != TaskStatusDone && t.DueDate.Before(now)
}
