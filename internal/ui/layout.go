package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-console/internal/theme"
)

// Layout manages the terminal frame: header, tab bar, content and
// status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	TabsHeight      int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// The header, tab bar and status bar take one line each.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		TabsHeight:      1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.TabsHeight-l.StatusBarHeight, 1)
}

// RenderHeader renders the top header bar with a title on the left and
// a status on the right.
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	gap := max(l.Width-lipgloss.Width(titleRendered)-lipgloss.Width(statusRendered), 0)

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderTabs renders the screen tab bar. active is the index of the
// highlighted tab; a negative value highlights none.
func (l Layout) RenderTabs(titles []string, active int) string {
	tabs := make([]string, len(titles))
	for i, t := range titles {
		if i == active {
			tabs[i] = theme.ActiveTabStyle.Render(t)
		} else {
			tabs[i] = theme.TabStyle.Render(t)
		}
	}
	return lipgloss.NewStyle().
		MaxWidth(l.Width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

// InboxLabel returns the header title including the unread count.
func InboxLabel(title string, unread int) string {
	if unread <= 0 {
		return title
	}
	return fmt.Sprintf("%s [%d new]", title, unread)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints ...string) string {
	rendered := theme.StatusBarStyle.Render(strings.Join(hints, " | "))

	gap := max(l.Width-lipgloss.Width(rendered), 0)

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.StatusBarStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes the full terminal view.
func (l Layout) RenderWithFrame(header, tabs, content, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		tabs,
		content,
		statusBar,
	)
}
