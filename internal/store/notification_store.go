package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/crm-console/internal/model"
)

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	n model.Notification,
) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Kind == "" {
		n.Kind = model.NotificationSystem
	}
	stamp(&n.CreatedAt)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, kind, subject, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.Kind, n.Subject, n.Message,
		boolToInt(n.Read), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	return nil
}

// ListNotifications returns notifications newest first, optionally only
// the unread ones.
func (s *SQLiteStore) ListNotifications(
	ctx context.Context,
	unreadOnly bool,
) ([]model.Notification, error) {
	query := "SELECT id, kind, subject, message, read, created_at FROM notifications"
	if unreadOnly {
		query += " WHERE read = 0"
	}
	query += " ORDER BY created_at DESC, id"

	var notifications []model.Notification
	if err := s.db.SelectContext(ctx, &notifications, query); err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(
	ctx context.Context,
	id string,
) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification as read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE read = 0"); err != nil {
		return fmt.Errorf("marking notifications as read: %w", err)
	}
	return nil
}

// UnreadCount returns the number of unread notifications.
func (s *SQLiteStore) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM notifications WHERE read = 0"); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

// Dismissed reports whether the notice with the given key was dismissed.
func (s *SQLiteStore) Dismissed(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM dismissals WHERE key = ?", key); err != nil {
		return false, fmt.Errorf("reading dismissal %s: %w", key, err)
	}
	return n > 0, nil
}

// Dismiss records that the notice with the given key was dismissed.
// Dismissing twice is a no-op.
func (s *SQLiteStore) Dismiss(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO dismissals (key, dismissed_at) VALUES (?, ?)",
		key, time.Now().UTC().Truncate(time.Second),
	)
	if err != nil {
		return fmt.Errorf("recording dismissal %s: %w", key, err)
	}
	return nil
}
