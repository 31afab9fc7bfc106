package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/crm-console/internal/model"
)

// insert runs a named INSERT and stores the new row id in *id.
func (s *SQLiteStore) insert(ctx context.Context, query string, arg interface{}, id **int64) error {
	result, err := s.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return err
	}
	newID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading insert id: %w", err)
	}
	*id = &newID
	return nil
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now()
	}
	*t = t.UTC().Truncate(time.Second)
}

func stampOptional(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC().Truncate(time.Second)
	return &utc
}

// CreateClient inserts a client and sets its ID.
func (s *SQLiteStore) CreateClient(ctx context.Context, c *model.Client) error {
	stamp(&c.CreatedAt)
	if c.Status == "" {
		c.Status = model.ClientStatusActive
	}

	const query = `
		INSERT INTO clients (name, email, phone, company, industry, status, created_at)
		VALUES (:name, :email, :phone, :company, :industry, :status, :created_at)`

	if err := s.insert(ctx, query, c, &c.ID); err != nil {
		return fmt.Errorf("creating client %q: %w", c.Name, err)
	}
	return nil
}

// CreateUser inserts a user and sets its ID.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	stamp(&u.CreatedAt)
	u.LastLoginAt = stampOptional(u.LastLoginAt)
	if u.Role == "" {
		u.Role = model.RoleMember
	}

	const query = `
		INSERT INTO users (name, email, role, active, last_login_at, created_at)
		VALUES (:name, :email, :role, :active, :last_login_at, :created_at)`

	if err := s.insert(ctx, query, u, &u.ID); err != nil {
		return fmt.Errorf("creating user %q: %w", u.Email, err)
	}
	return nil
}

// CreateProject inserts a project and sets its ID.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *model.Project) error {
	stamp(&p.CreatedAt)
	p.DueDate = stampOptional(p.DueDate)
	if p.Status == "" {
		p.Status = model.ProjectStatusPlanned
	}

	const query = `
		INSERT INTO projects (name, description, client_id, status, budget, due_date, created_at)
		VALUES (:name, :description, :client_id, :status, :budget, :due_date, :created_at)`

	if err := s.insert(ctx, query, p, &p.ID); err != nil {
		return fmt.Errorf("creating project %q: %w", p.Name, err)
	}
	return nil
}

// CreateTask inserts a task and sets its ID.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *model.Task) error {
	stamp(&t.CreatedAt)
	t.DueDate = stampOptional(t.DueDate)
	if t.Status == "" {
		t.Status = model.TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}

	const query = `
		INSERT INTO tasks (title, description, project_id, assignee_id, status, priority, due_date, created_at)
		VALUES (:title, :description, :project_id, :assignee_id, :status, :priority, :due_date, :created_at)`

	if err := s.insert(ctx, query, t, &t.ID); err != nil {
		return fmt.Errorf("creating task %q: %w", t.Title, err)
	}
	return nil
}

// CreateActivity appends an activity log entry and sets its ID.
func (s *SQLiteStore) CreateActivity(ctx context.Context, a *model.ActivityLog) error {
	stamp(&a.CreatedAt)

	const query = `
		INSERT INTO activity_logs (user_name, action, subject_type, description, created_at)
		VALUES (:user_name, :action, :subject_type, :description, :created_at)`

	if err := s.insert(ctx, query, a, &a.ID); err != nil {
		return fmt.Errorf("creating activity log: %w", err)
	}
	return nil
}

// UpsertLead inserts a lead. Leads carrying a message id already on file
// are skipped and reported as not created.
func (s *SQLiteStore) UpsertLead(ctx context.Context, l *model.Lead) (bool, error) {
	stamp(&l.CreatedAt)
	if l.Status == "" {
		l.Status = model.LeadStatusNew
	}
	if l.Source == "" {
		l.Source = model.LeadSourceWeb
	}

	const query = `
		INSERT OR IGNORE INTO leads (name, email, company, subject, source, status, message_id, created_at)
		VALUES (:name, :email, :company, :subject, :source, :status, :message_id, :created_at)`

	result, err := s.db.NamedExecContext(ctx, query, l)
	if err != nil {
		return false, fmt.Errorf("upserting lead %q: %w", l.Email, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("reading insert id: %w", err)
	}
	l.ID = &id
	return true, nil
}
