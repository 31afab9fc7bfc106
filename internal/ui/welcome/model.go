// Package welcome shows the once-a-day greeting modal.
package welcome

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/notice"
	"github.com/nhle/crm-console/internal/theme"
)

// CheckedMsg reports whether the welcome notice is due today.
type CheckedMsg struct {
	Show bool
	Err  error
}

// DismissedMsg is sent once the dismissal has been stored.
type DismissedMsg struct {
	Err error
}

// Model is the welcome modal.
type Model struct {
	dismissals notice.Dismissals
	keys       *keys.KeyMap
	userID     string
	userName   string
	now        func() time.Time
	visible    bool
	width      int
}

// New creates a welcome modal for the given user. A nil now uses
// time.Now.
func New(d notice.Dismissals, k *keys.KeyMap, userID, userName string, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{
		dismissals: d,
		keys:       k,
		userID:     userID,
		userName:   userName,
		now:        now,
	}
}

// Init checks whether the notice should be shown.
func (m Model) Init() tea.Cmd {
	d, id, now := m.dismissals, m.userID, m.now()
	return func() tea.Msg {
		show, err := notice.ShouldShow(context.Background(), d, id, now)
		return CheckedMsg{Show: show, Err: err}
	}
}

// Visible reports whether the modal is on screen.
func (m Model) Visible() bool {
	return m.visible
}

// Update handles messages for the modal. Keys are only consumed while it
// is visible.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case CheckedMsg:
		m.visible = msg.Show && msg.Err == nil
		return m, nil

	case tea.KeyMsg:
		if !m.visible {
			return m, nil
		}
		if key.Matches(msg, m.keys.Select) || key.Matches(msg, m.keys.Back) {
			m.visible = false
			cmd := m.dismiss()
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) dismiss() tea.Cmd {
	d, k := m.dismissals, notice.Key(m.userID, m.now())
	return func() tea.Msg {
		return DismissedMsg{Err: d.Dismiss(context.Background(), k)}
	}
}

// View renders the modal, or nothing when hidden.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	name := m.userName
	if name == "" {
		name = "there"
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render(fmt.Sprintf("Welcome back, %s!", name))
	body := fmt.Sprintf("Today is %s.\nUse tab to move between screens and / to search.", m.now().Format("Monday, January 2"))
	hint := theme.HelpStyle.Render("enter or esc to continue")

	width := 48
	if m.width > 0 {
		width = min(width, m.width-4)
	}
	return theme.ModalStyle.
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint))
}

// SetWidth bounds the modal to the terminal width.
func (m *Model) SetWidth(width int) {
	m.width = width
}
