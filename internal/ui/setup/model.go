// Package setup chooses between a list, a "no results" notice and an
// empty-state placeholder, and owns the create action of a screen.
package setup

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/listing"
	"github.com/nhle/crm-console/internal/theme"
)

// NavigateMsg asks the application to open Route.
type NavigateMsg struct {
	Route string
}

// Config holds the copy and create route of one entity screen.
type Config struct {
	// Description is shown above the list.
	Description string

	// CreateLabel names the create action ("New client").
	CreateLabel string

	// CreateRoute is where the create action navigates. Empty disables it.
	CreateRoute string

	EmptyIcon        string
	EmptyTitle       string
	EmptyDescription string
}

// Model renders one of the three presentations of a list screen.
type Model struct {
	cfg          Config
	keys         *keys.KeyMap
	presentation listing.Presentation
	width        int
	height       int
}

// New creates the orchestrator. It starts out in the empty state until
// Decide is called with real data.
func New(cfg Config, k *keys.KeyMap, width, height int) Model {
	return Model{
		cfg:          cfg,
		keys:         k,
		presentation: listing.EmptyAbsolute,
		width:        width,
		height:       height,
	}
}

// Decide recomputes the presentation from the current page.
func (m *Model) Decide(dataLen int, hasActiveFilters bool, originalLen int) {
	m.presentation = listing.Decide(dataLen, hasActiveFilters, originalLen)
}

// Presentation returns the current presentation.
func (m Model) Presentation() listing.Presentation {
	return m.presentation
}

// CanCreate reports whether the create action is offered right now. The
// filtered-empty state offers a reset instead.
func (m Model) CanCreate() bool {
	return m.cfg.CreateRoute != "" && m.presentation != listing.EmptyFiltered
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles the create key.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !key.Matches(keyMsg, m.keys.New) || !m.CanCreate() {
		return m, nil
	}
	route := m.cfg.CreateRoute
	return m, func() tea.Msg {
		return NavigateMsg{Route: route}
	}
}

// View renders the presentation. list is the rendered table, used only
// when there is data to show.
func (m Model) View(list string) string {
	switch m.presentation {
	case listing.HasData:
		return m.renderHasData(list)
	case listing.EmptyFiltered:
		return m.renderEmptyFiltered()
	default:
		return m.renderEmptyAbsolute()
	}
}

func (m Model) renderHasData(list string) string {
	var top string
	if m.cfg.Description != "" {
		top = theme.HelpStyle.Render(m.cfg.Description)
	}
	if m.CanCreate() {
		cta := theme.BadgeStyle.Render(m.keys.New.Help().Key + " " + m.createLabel())
		if top != "" {
			top += "   "
		}
		top += cta
	}
	if top == "" {
		return list
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, "", list)
}

func (m Model) renderEmptyFiltered() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("No results found")
	body := "Try adjusting your search or filters."
	reset := theme.BadgeStyle.Render(m.keys.ResetAll.Help().Key + " reset all filters")

	return m.center(lipgloss.JoinVertical(lipgloss.Center, title, "", body, "", reset))
}

func (m Model) renderEmptyAbsolute() string {
	var parts []string
	if m.cfg.EmptyIcon != "" {
		parts = append(parts, m.cfg.EmptyIcon, "")
	}
	title := m.cfg.EmptyTitle
	if title == "" {
		title = "Nothing here yet"
	}
	parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(title))
	if m.cfg.EmptyDescription != "" {
		parts = append(parts, "", m.cfg.EmptyDescription)
	}
	if m.CanCreate() {
		parts = append(parts, "", theme.BadgeStyle.Render(m.keys.New.Help().Key+" "+m.createLabel()))
	}

	return m.center(lipgloss.JoinVertical(lipgloss.Center, parts...))
}

func (m Model) center(content string) string {
	return theme.EmptyStateStyle.
		Width(m.width).
		Height(m.height).
		AlignVertical(lipgloss.Center).
		Render(content)
}

func (m Model) createLabel() string {
	if m.cfg.CreateLabel == "" {
		return "new"
	}
	return m.cfg.CreateLabel
}

// SetSize updates the placeholder dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
