package store

import (
	"context"

	"github.com/nhle/crm-console/internal/backend"
	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/internal/notice"
)

// Store is the local persistence layer. It serves list screens in local
// mode and always holds notifications, notice dismissals and intake leads.
type Store interface {
	backend.Backend
	notice.Dismissals

	// === Records ===

	CreateClient(ctx context.Context, c *model.Client) error
	CreateUser(ctx context.Context, u *model.User) error
	CreateProject(ctx context.Context, p *model.Project) error
	CreateTask(ctx context.Context, t *model.Task) error
	CreateActivity(ctx context.Context, a *model.ActivityLog) error

	// UpsertLead inserts a lead unless one with the same message id exists.
	// It reports whether a new row was created.
	UpsertLead(ctx context.Context, l *model.Lead) (bool, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	ListNotifications(ctx context.Context, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	UnreadCount(ctx context.Context) (int, error)

	Close() error
}
