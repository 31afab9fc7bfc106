package listscreen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-console/internal/backend"
	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/listing"
	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/internal/ui/searchfilter"
	"github.com/nhle/crm-console/internal/ui/setup"
	"github.com/nhle/crm-console/tests/testutil"
)

var seedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clientConfig() Config[model.Client] {
	return Config[model.Client]{
		Resource: backend.Clients,
		Title:    "Clients",
		FilterOptions: []listing.FilterOption{
			{Label: "Status", Key: "status", Kind: listing.KindSelect, Options: []listing.SelectOption{
				{Label: "Active", Value: "active"},
				{Label: "Prospect", Value: "prospect"},
				{Label: "Inactive", Value: "inactive"},
			}},
			{Label: "Industry", Key: "industry", Kind: listing.KindText},
		},
		SortOptions: []listing.SortOption{{Label: "Name", Key: "name"}},
		Columns: []listing.Column[model.Client]{
			{Label: "Name", Render: func(c model.Client) string { return c.Name }},
			{Label: "Status", Render: func(c model.Client) string { return c.Status }},
		},
		Key: func(c model.Client) *int64 { return c.ID },
		Setup: setup.Config{
			CreateLabel: "New client",
			CreateRoute: "clients/new",
			EmptyTitle:  "No clients yet",
		},
		EditRoute: func(id int64) string { return fmt.Sprintf("clients/%d/edit", id) },
		PerPage:   5,
	}
}

// drain runs cmd and feeds the screen's own replies back into it until
// nothing is left. Other messages are dropped.
func drain(t *testing.T, m Model[model.Client], cmd tea.Cmd) Model[model.Client] {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case pageLoadedMsg[model.Client], totalLoadedMsg, searchfilter.QueryChangedMsg, deletedMsg:
			var next tea.Cmd
			m, next = m.Update(msg)
			queue = append(queue, next)
		}
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model[model.Client], msg tea.KeyMsg) Model[model.Client] {
	t.Helper()
	m, cmd := m.Update(msg)
	return drain(t, m, cmd)
}

func started(t *testing.T, cfg Config[model.Client], b backend.Backend) Model[model.Client] {
	t.Helper()
	m := New(cfg, b, keys.DefaultKeyMap(), nil)
	m.SetSize(100, 30)
	return drain(t, m, m.Init())
}

func names(rows []model.Client) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestInitLoadsFirstPage(t *testing.T) {
	s := testutil.NewSeededStore(t, seedTime)
	m := started(t, clientConfig(), s)

	require.NoError(t, m.Err())
	assert.Equal(t, listing.HasData, m.Presentation())
	assert.Len(t, m.Rows(), 5)
	assert.Equal(t, "Vandelay Contact", m.Rows()[0].Name, "newest first by default")

	page := m.Page()
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 12, page.Total)
	assert.Contains(t, m.View(), "1-5 of 12")
}

func TestPaging(t *testing.T) {
	s := testutil.NewSeededStore(t, seedTime)
	m := started(t, clientConfig(), s)
	first := names(m.Rows())

	m = press(t, m, runes("["))
	assert.Equal(t, 1, m.Page().Number, "no page before the first")

	m = press(t, m, runes("]"))
	assert.Equal(t, 2, m.Page().Number)
	assert.NotEqual(t, first, names(m.Rows()))

	m = press(t, m, runes("]"))
	assert.Equal(t, 3, m.Page().Number)
	assert.Len(t, m.Rows(), 2)

	m = press(t, m, runes("]"))
	assert.Equal(t, 3, m.Page().Number, "no page after the last")

	m = press(t, m, runes("["))
	assert.Equal(t, 2, m.Page().Number)
}

func TestQueryChangeRestartsAtFirstPage(t *testing.T) {
	s := testutil.NewSeededStore(t, seedTime)
	m := started(t, clientConfig(), s)
	m = press(t, m, runes("]"))
	require.Equal(t, 2, m.Page().Number)

	m = press(t, m, runes("s"))
	assert.Equal(t, 1, m.Page().Number)
	assert.Equal(t, "Acme Contact", m.Rows()[0].Name)
	assert.True(t, m.State().HasActiveFilters())
}

func TestQueryChangeForOtherScreenIgnored(t *testing.T) {
	s := testutil.NewSeededStore(t, seedTime)
	m := started(t, clientConfig(), s)

	_, cmd := m.Update(searchfilter.QueryChangedMsg{ID: backend.Projects})
	assert.Nil(t, cmd)
}

func TestEmptyFilteredThenChipRemoval(t *testing.T) {
	s := testutil.NewSeededStore(t, seedTime)
	cfg := clientConfig()
	cfg.Initial = listing.Snapshot{Filters: listing.FilterValues{"industry": listing.Text("aerospace")}}
	m := started(t, cfg, s)

	assert.Empty(t, m.Rows())
	assert.Equal(t, listing.EmptyFiltered, m.Presentation())
	assert.Contains(t, m.View(), "No results found")

	m = press(t, m, runes("x"))
	assert.Equal(t, listing.HasData, m.Presentation())
	assert.Len(t, m.Rows(), 5)
}

func TestEmptyAbsolute(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := started(t, clientConfig(), s)

	assert.Equal(t, listing.EmptyAbsolute, m.Presentation())
	assert.Contains(t, m.View(), "No clients yet")

	_, cmd := m.Update(runes("n"))
	require.NotNil(t, cmd)
	assert.Equal(t, setup.NavigateMsg{Route: "clients/new"}, cmd())
}

func TestEditNavigatesWithRowID(t *testing.T) {
	s := testutil.NewSeededStore(t, seedTime)
	m := started(t, clientConfig(), s)
	id := *m.Rows()[0].ID

	_, cmd := m.Update(runes("e"))
	require.NotNil(t, cmd)
	assert.Equal(t, setup.NavigateMsg{Route: fmt.Sprintf("clients/%d/edit", id)}, cmd())
}

func TestDeleteAfterConfirmation(t *testing.T) {
	s := testutil.NewSeededStore(t, seedTime)
	m := started(t, clientConfig(), s)
	victim := *m.Rows()[0].ID

	m, cmd := m.Update(runes("d"))
	require.NotNil(t, cmd)
	msg := cmd()
	require.Equal(t, confirmDeleteMsg{resource: backend.Clients, id: victim}, msg)

	m, _ = m.Update(msg)
	require.True(t, m.Capturing(), "confirmation owns the keyboard")

	m.cb.yes = true
	m = drain(t, m, m.resolveConfirm())

	assert.False(t, m.Capturing())
	assert.Equal(t, 11, m.Page().Total)
	assert.Equal(t, 11, m.original)
	assert.NotEqual(t, victim, *m.Rows()[0].ID)
	assert.Contains(t, m.View(), fmt.Sprintf("Deleted #%d", victim))
}

func TestDeleteCancelled(t *testing.T) {
	s := testutil.NewSeededStore(t, seedTime)
	m := started(t, clientConfig(), s)

	m, cmd := m.Update(runes("d"))
	m, _ = m.Update(cmd())
	require.True(t, m.Capturing())

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.False(t, m.Capturing())

	m.cb.yes = false
	assert.Nil(t, m.resolveConfirm(), "declining deletes nothing")

	total, err := backend.Total(context.Background(), s, backend.Clients)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
}

// unclampedBackend pages a fixed slice the way a remote API does: a page
// past the end comes back empty with current_page echoing the request.
type unclampedBackend struct {
	clients []model.Client
}

func (b *unclampedBackend) List(_ context.Context, _ string, q url.Values) (*backend.ListResult, error) {
	page := listing.ParsePage(q)
	perPage := listing.ParsePerPage(q, 15, 100)
	total := len(b.clients)

	res := &backend.ListResult{Envelope: listing.Envelope{
		CurrentPage: page,
		LastPage:    max((total+perPage-1)/perPage, 1),
		PerPage:     perPage,
		Total:       total,
	}}
	for i := (page - 1) * perPage; i < min(page*perPage, total); i++ {
		raw, err := json.Marshal(b.clients[i])
		if err != nil {
			return nil, err
		}
		res.Data = append(res.Data, raw)
	}
	return res, nil
}

func (b *unclampedBackend) Delete(_ context.Context, _ string, id int64) error {
	for i, c := range b.clients {
		if *c.ID == id {
			b.clients = append(b.clients[:i], b.clients[i+1:]...)
			return nil
		}
	}
	return backend.ErrNotFound
}

func TestDeletingLastRowOfTrailingPageStepsBack(t *testing.T) {
	b := &unclampedBackend{}
	for i := int64(1); i <= 6; i++ {
		id := i
		b.clients = append(b.clients, model.Client{ID: &id, Name: fmt.Sprintf("Client %d", i)})
	}
	m := started(t, clientConfig(), b)

	m = press(t, m, runes("]"))
	require.Equal(t, 2, m.Page().Number)
	require.Len(t, m.Rows(), 1)

	require.NoError(t, b.Delete(context.Background(), backend.Clients, 6))
	m = drain(t, m, func() tea.Msg { return deletedMsg{resource: backend.Clients, id: 6} })

	assert.Equal(t, listing.HasData, m.Presentation())
	assert.Equal(t, 1, m.Page().Number)
	assert.Equal(t, 5, m.Page().Total)
	assert.Len(t, m.Rows(), 5)
	assert.NotContains(t, m.View(), "No clients yet")
}

func TestStaleReplyDropped(t *testing.T) {
	s := testutil.NewSeededStore(t, seedTime)
	m := started(t, clientConfig(), s)
	before := names(m.Rows())

	m, _ = m.Update(pageLoadedMsg[model.Client]{
		resource: backend.Clients,
		seq:      m.seq - 1,
		rows:     []model.Client{{Name: "stale"}},
	})
	assert.Equal(t, before, names(m.Rows()))
}

type failingBackend struct {
	err error
}

func (f failingBackend) List(context.Context, string, url.Values) (*backend.ListResult, error) {
	return nil, f.err
}

func (f failingBackend) Delete(context.Context, string, int64) error {
	return f.err
}

func TestBackendErrorsAreShown(t *testing.T) {
	m := started(t, clientConfig(), failingBackend{err: errors.New("connection refused")})
	assert.ErrorContains(t, m.Err(), "connection refused")
	assert.Contains(t, m.View(), "error: connection refused")

	m = started(t, clientConfig(), failingBackend{err: &backend.AuthError{Message: "token expired"}})
	assert.Contains(t, m.View(), "crm login")
}

func TestHelpHints(t *testing.T) {
	s := testutil.NewSeededStore(t, seedTime)
	m := started(t, clientConfig(), s)
	k := keys.DefaultKeyMap()

	var got []string
	for _, b := range m.HelpHints() {
		got = append(got, b.Help().Key)
	}
	assert.Contains(t, got, k.NextPage.Help().Key)
	assert.Contains(t, got, k.New.Help().Key)
	assert.Contains(t, got, k.Delete.Help().Key)
	assert.Contains(t, got, k.Edit.Help().Key)
}
