// Package notice remembers one-time notices a user has dismissed, such as
// the daily welcome modal.
package notice

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Dismissals records which notices have been dismissed. Keys are opaque;
// use Key to build the per-user, per-day welcome key.
type Dismissals interface {
	Dismissed(ctx context.Context, key string) (bool, error)
	Dismiss(ctx context.Context, key string) error
}

// Key returns the dismissal key of the welcome notice for userID on the
// calendar day of day, in day's location.
func Key(userID string, day time.Time) string {
	return fmt.Sprintf("welcome:%s:%s", userID, day.Format("2006-01-02"))
}

// ShouldShow reports whether the welcome notice is due for userID today.
// An unknown user never sees it.
func ShouldShow(ctx context.Context, d Dismissals, userID string, now time.Time) (bool, error) {
	if userID == "" {
		return false, nil
	}
	dismissed, err := d.Dismissed(ctx, Key(userID, now))
	if err != nil {
		return false, fmt.Errorf("checking welcome notice: %w", err)
	}
	return !dismissed, nil
}

// Memory is an in-process Dismissals. It forgets everything on exit.
type Memory struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string]struct{})}
}

func (m *Memory) Dismissed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *Memory) Dismiss(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = struct{}{}
	return nil
}
