package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-console/internal/listing"
)

type fakeBackend struct {
	rows  []string
	total int
	err   error
	last  url.Values
}

func (f *fakeBackend) List(_ context.Context, _ string, q url.Values) (*ListResult, error) {
	f.last = q
	if f.err != nil {
		return nil, f.err
	}
	res := &ListResult{Envelope: listing.Envelope{CurrentPage: 1, LastPage: 1, PerPage: 15, Total: f.total}}
	for _, r := range f.rows {
		res.Data = append(res.Data, json.RawMessage(r))
	}
	return res, nil
}

func (f *fakeBackend) Delete(context.Context, string, int64) error { return nil }

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestFetchDecodesRows(t *testing.T) {
	b := &fakeBackend{rows: []string{`{"id":1,"name":"a"}`, `{"id":2,"name":"b"}`}, total: 2}

	items, page, err := Fetch[item](context.Background(), b, Clients, nil)
	require.NoError(t, err)
	assert.Equal(t, []item{{1, "a"}, {2, "b"}}, items)
	assert.Equal(t, 2, page.Total)
}

func TestFetchReportsBadRow(t *testing.T) {
	b := &fakeBackend{rows: []string{`{"id":1}`, `{"id":"two"}`}}

	_, _, err := Fetch[item](context.Background(), b, Clients, nil)
	assert.ErrorContains(t, err, "decoding clients row 1")
}

func TestTotalAsksForOneRow(t *testing.T) {
	b := &fakeBackend{total: 42}

	n, err := Total(context.Background(), b, Leads)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, "1", b.last.Get(listing.ParamPerPage))
}

func TestIsAuthErrorWrapped(t *testing.T) {
	err := fmt.Errorf("listing: %w", &AuthError{Message: "expired"})
	assert.True(t, IsAuthError(err))
	assert.False(t, IsAuthError(errors.New("boom")))
	assert.EqualError(t, err, "listing: auth error: expired")
}
