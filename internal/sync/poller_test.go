package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nhle/crm-console/internal/intake"
	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/tests/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	name  string
	mu    gosync.Mutex
	leads []model.Lead
	err   error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) ValidateConnection(context.Context) (string, error) { return f.name, f.err }

func (f *fakeSource) FetchLeads(context.Context) ([]model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Lead, len(f.leads))
	copy(out, f.leads)
	return out, nil
}

func (f *fakeSource) add(l model.Lead) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, l)
}

func nextResult(t *testing.T, p *Poller) SyncResultMsg {
	t.Helper()

	done := make(chan SyncResultMsg, 1)
	go func() {
		msg, _ := p.WaitForNextResult()().(SyncResultMsg)
		done <- msg
	}()

	select {
	case msg := <-done:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for sync result")
		return SyncResultMsg{}
	}
}

func TestPollerRecordsNewLeadsOnce(t *testing.T) {
	s := testutil.NewTestStore(t)
	src := &fakeSource{name: "sales", leads: []model.Lead{
		{Name: "Jo", Email: "jo@initech.example", Subject: "Quote", MessageID: "<1>"},
	}}

	p := New(s, nil)
	p.RegisterSource(src, time.Hour)
	require.NotNil(t, p.Start())
	defer p.Stop()

	first := nextResult(t, p)
	require.NoError(t, first.Error)
	assert.Equal(t, "sales", first.Source)
	assert.Equal(t, 1, first.NewLeadCount)

	src.add(model.Lead{Name: "Ann", Email: "ann@globex.example", MessageID: "<2>"})
	p.RefreshAll()

	second := nextResult(t, p)
	require.NoError(t, second.Error)
	assert.Equal(t, 2, second.Fetched)
	assert.Equal(t, 1, second.NewLeadCount)

	unread, err := s.ListNotifications(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	for _, n := range unread {
		assert.Equal(t, model.NotificationLead, n.Kind)
	}

	statuses := p.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, SyncIdle, statuses[0].State)
	assert.False(t, statuses[0].LastSync.IsZero())
}

func TestPollerReportsAuthError(t *testing.T) {
	src := &fakeSource{name: "support", err: &intake.AuthError{Source: "support", Message: "denied"}}

	p := New(testutil.NewTestStore(t), nil)
	p.RegisterSource(src, time.Hour)
	require.NotNil(t, p.Start())
	defer p.Stop()

	res := nextResult(t, p)
	require.NotNil(t, res.AuthError)
	assert.Contains(t, res.AuthError.Message, "crm login --intake support")
	assert.Equal(t, SyncError, p.Statuses()[0].State)
}

func TestPollerReportsFetchError(t *testing.T) {
	src := &fakeSource{name: "sales", err: errors.New("connection reset")}

	p := New(testutil.NewTestStore(t), nil)
	p.RegisterSource(src, time.Hour)
	require.NotNil(t, p.Start())
	defer p.Stop()

	res := nextResult(t, p)
	assert.EqualError(t, res.Error, "connection reset")
	assert.Nil(t, res.AuthError)
}

func TestPollerWithoutSources(t *testing.T) {
	p := New(testutil.NewTestStore(t), nil)
	assert.Nil(t, p.Start())
	p.Stop()
}

func TestStopUnblocksWaiter(t *testing.T) {
	p := New(testutil.NewTestStore(t), nil)
	p.RegisterSource(&fakeSource{name: "idle"}, time.Hour)
	cmd := p.Start()
	require.NotNil(t, cmd)

	// Drain the initial result so the next wait blocks.
	_ = cmd()
	wait := p.WaitForNextResult()
	p.Stop()
	assert.Nil(t, wait())
}
