package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/internal/theme"
)

// NotificationItem wraps a model.Notification so it can be used in a
// bubbles/list.
type NotificationItem struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i NotificationItem) FilterValue() string { return i.Notification.Subject }

// Title returns the notification headline.
func (i NotificationItem) Title() string { return i.Notification.Subject }

// Description returns the notification text.
func (i NotificationItem) Description() string { return i.Notification.Message }

// ItemDelegate renders one notification per two lines.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(NotificationItem)
	if !ok {
		return
	}
	n := ni.Notification

	marker := "●"
	if n.Read {
		marker = " "
	}

	kind := kindStyle(n.Kind).Render(n.Kind)
	when := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(humanize.RelTime(n.CreatedAt, d.now(), "ago", "from now"))

	headline := fmt.Sprintf("%s %s %s  %s", marker, kind, n.Subject, when)
	body := theme.HelpStyle.Render("  " + n.Message)
	if n.Read {
		headline = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(headline)
	}

	line := lipgloss.JoinVertical(lipgloss.Left, headline, body)
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func kindStyle(kind string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if kind == model.NotificationLead {
		return base.Foreground(theme.ColorGreen)
	}
	return base.Foreground(theme.ColorBlue)
}
