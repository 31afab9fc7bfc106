package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/crm-console/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewSeededStore is NewTestStore filled with the demo data set anchored
// at now.
func NewSeededStore(t *testing.T, now time.Time) *store.SQLiteStore {
	t.Helper()

	s := NewTestStore(t)
	if _, err := s.Seed(context.Background(), now); err != nil {
		t.Fatalf("seeding test store: %v", err)
	}
	return s
}
