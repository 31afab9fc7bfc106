package welcome

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/notice"
)

var today = time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC)

func clock() time.Time { return today }

func TestWelcomeShownOncePerDay(t *testing.T) {
	d := notice.NewMemory()
	m := New(d, keys.DefaultKeyMap(), "u-1", "Dana", clock)

	m, _ = m.Update(m.Init()())
	require.True(t, m.Visible())
	assert.Contains(t, m.View(), "Welcome back, Dana!")
	assert.Contains(t, m.View(), "Monday, June 2")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
	require.NotNil(t, cmd)
	assert.Equal(t, DismissedMsg{}, cmd())

	again := New(d, keys.DefaultKeyMap(), "u-1", "Dana", clock)
	again, _ = again.Update(again.Init()())
	assert.False(t, again.Visible(), "dismissed for today")

	tomorrow := New(d, keys.DefaultKeyMap(), "u-1", "Dana", func() time.Time { return today.AddDate(0, 0, 1) })
	tomorrow, _ = tomorrow.Update(tomorrow.Init()())
	assert.True(t, tomorrow.Visible())
}

func TestWelcomeSkippedWithoutUser(t *testing.T) {
	m := New(notice.NewMemory(), keys.DefaultKeyMap(), "", "", clock)
	m, _ = m.Update(m.Init()())
	assert.False(t, m.Visible())
}

type brokenDismissals struct{}

func (brokenDismissals) Dismissed(context.Context, string) (bool, error) {
	return false, errors.New("disk on fire")
}

func (brokenDismissals) Dismiss(context.Context, string) error { return nil }

func TestWelcomeHiddenOnLookupError(t *testing.T) {
	m := New(brokenDismissals{}, keys.DefaultKeyMap(), "u-1", "", clock)
	msg := m.Init()()
	require.Error(t, msg.(CheckedMsg).Err)

	m, _ = m.Update(msg)
	assert.False(t, m.Visible())
}

func TestWelcomeIgnoresKeysWhenHidden(t *testing.T) {
	m := New(notice.NewMemory(), keys.DefaultKeyMap(), "u-1", "", clock)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
}
