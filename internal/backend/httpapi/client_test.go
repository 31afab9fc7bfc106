package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-console/internal/backend"
	"github.com/nhle/crm-console/internal/model"
)

const clientsPage = `{
	"data": [
		{"id": 1, "name": "Acme", "email": "a@acme.example", "status": "active", "created_at": "2024-01-02T03:04:05Z"},
		{"id": 2, "name": "Globex", "email": "g@globex.example", "status": "prospect", "created_at": "2024-01-03T03:04:05Z"}
	],
	"current_page": 2, "last_page": 3, "per_page": 2, "total": 6, "from": 3, "to": 4,
	"links": [{"url": null, "label": "&laquo; Previous", "active": false}]
}`

func TestListSendsQueryAndDecodes(t *testing.T) {
	var gotPath, gotAuth, gotRequestID string
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(clientsPage))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret")
	q := url.Values{"search": {"ac"}, "page": {"2"}}

	clients, page, err := backend.Fetch[model.Client](context.Background(), c, backend.Clients, q)
	require.NoError(t, err)

	assert.Equal(t, "/api/clients", gotPath)
	assert.Equal(t, q, gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Len(t, gotRequestID, 36)

	require.Len(t, clients, 2)
	assert.Equal(t, "Globex", clients[1].Name)
	assert.Equal(t, int64(2), *clients[1].ID)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, 3, page.From)
	assert.True(t, page.HasNext())
}

func TestUnauthorizedIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "expired").List(context.Background(), backend.Clients, nil)
	require.Error(t, err)
	assert.True(t, backend.IsAuthError(err))
}

func TestRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(clientsPage))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, "t").List(context.Background(), backend.Clients, nil)
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "t", WithMaxRetries(1)).List(context.Background(), backend.Clients, nil)
	assert.ErrorContains(t, err, "max retries (1) exceeded")
}

func TestDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		if r.URL.Path == "/api/tasks/404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	require.NoError(t, c.Delete(context.Background(), backend.Tasks, 7))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/tasks/7", gotPath)

	err := c.Delete(context.Background(), backend.Tasks, 404)
	assert.True(t, errors.Is(err, backend.ErrNotFound))
}

func TestAPIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message": "The given data was invalid."}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "t").List(context.Background(), backend.Users, nil)
	assert.ErrorContains(t, err, "The given data was invalid.")
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, "1s", retryAfterDuration(resp, 0).String())
	assert.Equal(t, "4s", retryAfterDuration(resp, 2).String())
	assert.Equal(t, "30s", retryAfterDuration(resp, 10).String())

	resp.Header.Set("Retry-After", "7")
	assert.Equal(t, "7s", retryAfterDuration(resp, 3).String())
}
