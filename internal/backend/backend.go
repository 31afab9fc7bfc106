// Package backend defines the data source behind every list screen: the
// remote CRM API or the local store, both speaking the same paginated
// listing contract.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/nhle/crm-console/internal/listing"
)

// Resource names, used as URL path segments by the remote API.
const (
	Clients      = "clients"
	Projects     = "projects"
	Tasks        = "tasks"
	Users        = "users"
	Leads        = "leads"
	ActivityLogs = "activity-logs"
)

// ErrNotFound is returned when a record addressed by id does not exist.
var ErrNotFound = errors.New("record not found")

// AuthError indicates that the backend rejected the credentials.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ListResult is one page of rows plus its pagination envelope, exactly as
// the server returns it: {"data": [...], "current_page": 1, ...}.
type ListResult struct {
	Data []json.RawMessage `json:"data"`
	listing.Envelope
}

// Backend lists and deletes records of a resource. The query string follows
// listing.Query; filtering, sorting and pagination happen behind it.
type Backend interface {
	List(ctx context.Context, resource string, q url.Values) (*ListResult, error)
	Delete(ctx context.Context, resource string, id int64) error
}

// Fetch lists a resource and decodes its rows into T.
func Fetch[T any](
	ctx context.Context,
	b Backend,
	resource string,
	q url.Values,
) ([]T, listing.Page, error) {
	res, err := b.List(ctx, resource, q)
	if err != nil {
		return nil, listing.Page{}, err
	}

	rows := make([]T, 0, len(res.Data))
	for i, raw := range res.Data {
		var row T
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, listing.Page{}, fmt.Errorf("decoding %s row %d: %w", resource, i, err)
		}
		rows = append(rows, row)
	}

	return rows, res.Envelope.Page(), nil
}

// Total returns the unfiltered row count of a resource.
func Total(ctx context.Context, b Backend, resource string) (int, error) {
	res, err := b.List(ctx, resource, url.Values{listing.ParamPerPage: {"1"}})
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", resource, err)
	}
	return res.Total, nil
}
