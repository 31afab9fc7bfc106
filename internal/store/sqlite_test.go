package store_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-console/internal/backend"
	"github.com/nhle/crm-console/internal/listing"
	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/tests/testutil"
)

var seedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestListDefaults(t *testing.T) {
	s := testutil.NewSeededStore(t, seedNow)

	clients, page, err := backend.Fetch[model.Client](context.Background(), s, backend.Clients, url.Values{})
	require.NoError(t, err)

	assert.Len(t, clients, 12)
	assert.Equal(t, listing.Page{Number: 1, TotalPages: 1, PerPage: 15, Total: 12, From: 1, To: 12}, page)
	require.NotNil(t, clients[0].ID)
	assert.False(t, clients[0].CreatedAt.IsZero())
}

func TestListPagination(t *testing.T) {
	s := testutil.NewSeededStore(t, seedNow)
	ctx := context.Background()

	q := url.Values{listing.ParamPerPage: {"5"}, listing.ParamPage: {"3"}}
	clients, page, err := backend.Fetch[model.Client](ctx, s, backend.Clients, q)
	require.NoError(t, err)
	assert.Len(t, clients, 2)
	assert.Equal(t, 11, page.From)
	assert.Equal(t, 12, page.To)
	assert.False(t, page.HasNext())

	q.Set(listing.ParamPage, "99")
	_, page, err = backend.Fetch[model.Client](ctx, s, backend.Clients, q)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Number, "out of range pages clamp to the last one")
}

func TestListSearchFilterSort(t *testing.T) {
	s := testutil.NewSeededStore(t, seedNow)
	ctx := context.Background()

	t.Run("search is case insensitive", func(t *testing.T) {
		clients, _, err := backend.Fetch[model.Client](ctx, s, backend.Clients, url.Values{listing.ParamSearch: {"acme"}})
		require.NoError(t, err)
		require.Len(t, clients, 1)
		assert.Equal(t, "Acme", clients[0].Company)
	})

	t.Run("select filter", func(t *testing.T) {
		clients, _, err := backend.Fetch[model.Client](ctx, s, backend.Clients, url.Values{"status": {"prospect"}})
		require.NoError(t, err)
		assert.Len(t, clients, 3)
		for _, c := range clients {
			assert.Equal(t, model.ClientStatusProspect, c.Status)
		}
	})

	t.Run("empty filter value is ignored", func(t *testing.T) {
		_, page, err := backend.Fetch[model.Client](ctx, s, backend.Clients, url.Values{"status": {""}})
		require.NoError(t, err)
		assert.Equal(t, 12, page.Total)
	})

	t.Run("sort direction", func(t *testing.T) {
		asc, _, err := backend.Fetch[model.Client](ctx, s, backend.Clients, listing.Query(listing.Snapshot{Sort: "name", Direction: listing.Asc}, 1))
		require.NoError(t, err)
		desc, _, err := backend.Fetch[model.Client](ctx, s, backend.Clients, listing.Query(listing.Snapshot{Sort: "name", Direction: listing.Desc}, 1))
		require.NoError(t, err)

		assert.Equal(t, "Acme Contact", asc[0].Name)
		assert.Equal(t, "Wonka Contact", desc[0].Name)
	})

	t.Run("unknown sort key falls back to default order", func(t *testing.T) {
		_, page, err := backend.Fetch[model.Client](ctx, s, backend.Clients, url.Values{listing.ParamSort: {"name; DROP TABLE clients"}})
		require.NoError(t, err)
		assert.Equal(t, 12, page.Total)
	})

	t.Run("date range", func(t *testing.T) {
		snap := listing.Snapshot{Filters: listing.FilterValues{
			"due_from": listing.Date(seedNow),
			"due_to":   listing.Date(seedNow.AddDate(0, 0, 2)),
		}}
		tasks, _, err := backend.Fetch[model.Task](ctx, s, backend.Tasks, listing.Query(snap, 1))
		require.NoError(t, err)
		assert.Len(t, tasks, 3)
	})

	t.Run("priority sorts by rank", func(t *testing.T) {
		tasks, _, err := backend.Fetch[model.Task](ctx, s, backend.Tasks, url.Values{
			listing.ParamSort:      {"priority"},
			listing.ParamDirection: {"desc"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, tasks)
		assert.Equal(t, model.PriorityUrgent, tasks[0].Priority)
		assert.NotEmpty(t, tasks[0].ProjectName)
		assert.NotEmpty(t, tasks[0].AssigneeName)
	})

	t.Run("boolean filter", func(t *testing.T) {
		users, _, err := backend.Fetch[model.User](ctx, s, backend.Users, url.Values{"active": {"false"}})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.False(t, users[0].Active)
	})
}

func TestListJoinsClientName(t *testing.T) {
	s := testutil.NewSeededStore(t, seedNow)

	projects, _, err := backend.Fetch[model.Project](context.Background(), s, backend.Projects, url.Values{listing.ParamSort: {"client_name"}})
	require.NoError(t, err)
	require.Len(t, projects, 8)
	assert.Equal(t, "Acme Contact", projects[0].ClientName)
	assert.NotNil(t, projects[0].DueDate)
}

func TestListUnknownResource(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.List(context.Background(), "invoices", url.Values{})
	assert.ErrorContains(t, err, "unknown resource")
}

func TestDelete(t *testing.T) {
	s := testutil.NewSeededStore(t, seedNow)
	ctx := context.Background()

	tasksBefore, err := backend.Total(ctx, s, backend.Tasks)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, backend.Clients, 1))

	clients, err := backend.Total(ctx, s, backend.Clients)
	require.NoError(t, err)
	assert.Equal(t, 11, clients)

	tasksAfter, err := backend.Total(ctx, s, backend.Tasks)
	require.NoError(t, err)
	assert.Equal(t, tasksBefore-3, tasksAfter, "tasks of the client's project cascade")

	err = s.Delete(ctx, backend.Clients, 1)
	assert.True(t, errors.Is(err, backend.ErrNotFound))
}

func TestUpsertLeadDeduplicatesByMessageID(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	lead := model.Lead{Name: "Jo", Email: "jo@example.com", Source: model.LeadSourceEmail, MessageID: "<abc@mail>"}
	created, err := s.UpsertLead(ctx, &lead)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, lead.ID)

	dup := lead
	dup.ID = nil
	created, err = s.UpsertLead(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, created)

	for i := 0; i < 2; i++ {
		created, err = s.UpsertLead(ctx, &model.Lead{Name: "Walk-in"})
		require.NoError(t, err)
		assert.True(t, created, "leads without a message id are never deduplicated")
	}

	total, err := backend.Total(ctx, s, backend.Leads)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNotification(ctx, model.Notification{Kind: model.NotificationLead, Subject: "New lead", Message: "Jo wrote in"}))
	require.NoError(t, s.CreateNotification(ctx, model.Notification{Message: "Sync finished"}))

	n, err := s.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := s.ListNotifications(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.NotEmpty(t, all[0].ID)

	require.NoError(t, s.MarkNotificationRead(ctx, all[0].ID))
	unread, err := s.ListNotifications(ctx, true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	require.NoError(t, s.MarkAllNotificationsRead(ctx))
	n, err = s.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	everything, err := s.ListNotifications(ctx, false)
	require.NoError(t, err)
	assert.Len(t, everything, 2)
}

func TestDismissals(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	dismissed, err := s.Dismissed(ctx, "welcome:1:2024-06-15")
	require.NoError(t, err)
	assert.False(t, dismissed)

	require.NoError(t, s.Dismiss(ctx, "welcome:1:2024-06-15"))
	require.NoError(t, s.Dismiss(ctx, "welcome:1:2024-06-15"))

	dismissed, err = s.Dismissed(ctx, "welcome:1:2024-06-15")
	require.NoError(t, err)
	assert.True(t, dismissed)
}
