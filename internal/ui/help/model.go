// Package help renders the keyboard shortcut overlay.
package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/theme"
)

// CloseMsg asks the parent to hide the overlay.
type CloseMsg struct{}

// Model is the help overlay view.
type Model struct {
	keys    *keys.KeyMap
	help    help.Model
	context string
	hints   []key.Binding
	width   int
	height  int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetContext sets the name and key hints of the view the overlay was
// opened from. They are listed above the full key map.
func (m *Model) SetContext(name string, hints []key.Binding) {
	m.context = name
	m.hints = hints
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update closes the overlay on esc or ?.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Help) {
			return m, func() tea.Msg { return CloseMsg{} }
		}
	}
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sections := []string{titleStyle.Render("Keyboard Shortcuts")}

	if len(m.hints) > 0 {
		m.help.ShowAll = false
		sections = append(sections,
			theme.HelpStyle.Render(m.context),
			m.help.ShortHelpView(m.hints),
			"",
		)
	}

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	sections = append(sections, m.help.View(m.keys))

	return theme.ModalStyle.
		Width(max(m.width-4, 20)).
		Height(max(m.height-4, 5)).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
