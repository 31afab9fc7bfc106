// Package inbox lists notifications and lets the user mark them read.
package inbox

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/internal/theme"
)

// Store is the notification storage the inbox reads and updates.
type Store interface {
	ListNotifications(ctx context.Context, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// LoadedMsg carries the unread notifications. It is also sent after
// marking notifications read, so unread counters can follow it.
type LoadedMsg struct {
	Notifications []model.Notification
	Err           error
}

// Model is the notification inbox view.
type Model struct {
	list   list.Model
	store  Store
	keys   *keys.KeyMap
	err    error
	width  int
	height int
}

// New creates an inbox over s.
func New(s Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{now: time.Now}, width, height)
	l.Title = "Inbox"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)

	return Model{
		list:   l,
		store:  s,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init loads the unread notifications.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages for the inbox.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.err = msg.Err
		items := make([]list.Item, len(msg.Notifications))
		for i, n := range msg.Notifications {
			items[i] = NotificationItem{Notification: n}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(NotificationItem)
		if !ok {
			return m, nil
		}
		return m, m.markRead(item.Notification.ID)

	case key.Matches(msg, m.keys.MarkAllRead):
		if len(m.list.Items()) == 0 {
			return m, nil
		}
		return m, m.markAllRead()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()
	}

	// Navigation keys (up/down/pgup/pgdn) go to the list.
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Load returns a tea.Cmd that reads the unread notifications.
func (m Model) Load() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return load(context.Background(), s)
	}
}

func load(ctx context.Context, s Store) LoadedMsg {
	notifications, err := s.ListNotifications(ctx, true)
	return LoadedMsg{Notifications: notifications, Err: err}
}

func (m Model) markRead(id string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		if err := s.MarkNotificationRead(ctx, id); err != nil {
			return LoadedMsg{Err: err}
		}
		return load(ctx, s)
	}
}

func (m Model) markAllRead() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		if err := s.MarkAllNotificationsRead(ctx); err != nil {
			return LoadedMsg{Err: err}
		}
		return load(ctx, s)
	}
}

// Len returns the number of unread notifications shown.
func (m Model) Len() int {
	return len(m.list.Items())
}

// View renders the inbox.
func (m Model) View() string {
	if m.err != nil {
		return theme.ErrorStyle.Render("error: " + m.err.Error())
	}
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("You're all caught up.\n\nNew leads from your mailboxes show up here.")
	}
	return m.list.View()
}

// HelpHints returns the key hints of the inbox.
func (m Model) HelpHints() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Select, m.keys.MarkAllRead, m.keys.Refresh, m.keys.Back}
}

// SetSize updates the inbox dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
