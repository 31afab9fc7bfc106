// Package intake pulls new leads from external inboxes.
package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/crm-console/internal/model"
)

// AuthError indicates that an intake source rejected its credentials.
type AuthError struct {
	Source  string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Source, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Source yields candidate leads. Every lead carries a stable MessageID so
// repeated fetches can be deduplicated by the store.
type Source interface {
	// Name identifies the source in config, logs and statuses.
	Name() string

	// ValidateConnection verifies credentials and connectivity.
	ValidateConnection(ctx context.Context) (string, error)

	// FetchLeads returns the leads currently visible at the source.
	FetchLeads(ctx context.Context) ([]model.Lead, error)
}
