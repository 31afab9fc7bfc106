// Package datalist renders rows of any type as a table with a pinned
// header and a scrolling body.
package datalist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/listing"
	"github.com/nhle/crm-console/internal/theme"
)

// RowAction is called with the id of the row under the cursor.
type RowAction func(id int64) tea.Cmd

// Config wires a table to its row type.
type Config[T any] struct {
	Columns  []listing.Column[T]
	Key      listing.KeyFunc[T]
	OnEdit   RowAction
	OnDelete RowAction
}

// Model is a table of T rows. The header stays in place while the body
// scrolls inside a viewport.
type Model[T any] struct {
	cfg      Config[T]
	keys     *keys.KeyMap
	rows     []T
	cells    [][]string
	cursor   int
	viewport viewport.Model
	width    int
	height   int
}

// New creates a table sized to width x height, header included.
func New[T any](cfg Config[T], k *keys.KeyMap, width, height int) Model[T] {
	m := Model[T]{
		cfg:      cfg,
		keys:     k,
		viewport: viewport.New(width, bodyHeight(height)),
		width:    width,
		height:   height,
	}
	m.refresh()
	return m
}

// bodyHeight leaves room for the header and its underline.
func bodyHeight(height int) int {
	return max(height-2, 1)
}

// SetRows replaces the data. The cursor is clamped into range.
func (m *Model[T]) SetRows(rows []T) {
	m.rows = rows
	m.cells = listing.Rows(m.cfg.Columns, rows)
	if m.cursor >= len(rows) {
		m.cursor = max(len(rows)-1, 0)
	}
	m.refresh()
}

// Rows returns the current data.
func (m Model[T]) Rows() []T {
	return m.rows
}

// Cursor returns the index of the highlighted row.
func (m Model[T]) Cursor() int {
	return m.cursor
}

// Selected returns the highlighted row, if any.
func (m Model[T]) Selected() (T, bool) {
	var zero T
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return zero, false
	}
	return m.rows[m.cursor], true
}

// SelectedID returns the id of the highlighted row. Rows without an id
// (or no rows at all) report false.
func (m Model[T]) SelectedID() (int64, bool) {
	row, ok := m.Selected()
	if !ok || m.cfg.Key == nil {
		return 0, false
	}
	id := m.cfg.Key(row)
	if id == nil {
		return 0, false
	}
	return *id, true
}

// Init returns the initial command.
func (m Model[T]) Init() tea.Cmd {
	return nil
}

// Update handles cursor movement and row actions.
func (m Model[T]) Update(msg tea.Msg) (Model[T], tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.refresh()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.refresh()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Edit):
		return m, m.act(m.cfg.OnEdit)

	case key.Matches(keyMsg, m.keys.Delete):
		return m, m.act(m.cfg.OnDelete)
	}

	return m, nil
}

func (m Model[T]) act(action RowAction) tea.Cmd {
	if action == nil {
		return nil
	}
	id, ok := m.SelectedID()
	if !ok {
		return nil
	}
	return action(id)
}

// View renders the header followed by the visible body rows.
func (m Model[T]) View() string {
	header := theme.TableHeaderStyle.Render(
		"  " + m.renderCells(listing.Header(m.cfg.Columns), true),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View())
}

// SetSize updates the table dimensions.
func (m *Model[T]) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = bodyHeight(height)
	m.refresh()
}

// refresh re-renders the body and scrolls the cursor into view.
func (m *Model[T]) refresh() {
	lines := make([]string, len(m.cells))
	for j, row := range m.cells {
		line := m.renderCells(row, false)
		if j == m.cursor {
			lines[j] = theme.SelectedItemStyle.Render(line)
		} else {
			lines[j] = theme.ListItemStyle.Render(line)
		}
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))

	switch {
	case m.cursor < m.viewport.YOffset:
		m.viewport.SetYOffset(m.cursor)
	case m.cursor >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

func (m Model[T]) renderCells(cells []string, header bool) string {
	widths := columnWidths(m.cfg.Columns, m.width-2)
	parts := make([]string, len(cells))
	for i, cell := range cells {
		style := lipgloss.NewStyle().Width(widths[i]).MaxWidth(widths[i]).MaxHeight(1).PaddingRight(1)
		if !header {
			style = style.Inherit(cellStyle(m.cfg.Columns[i].Class))
		}
		text := firstLine(cell)
		if !header && m.cfg.Columns[i].Class == "truncate" {
			text = ansi.Truncate(text, max(widths[i]-1, 1), "…")
		}
		parts[i] = style.Render(text)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// columnWidths gives fixed columns their width and splits what is left
// evenly between the flexible ones.
func columnWidths[T any](columns []listing.Column[T], total int) []int {
	widths := make([]int, len(columns))
	flexible := 0
	remaining := total
	for i, c := range columns {
		if c.Width > 0 {
			widths[i] = c.Width
			remaining -= c.Width
			continue
		}
		flexible++
	}
	if flexible == 0 {
		return widths
	}
	share := max(remaining/flexible, 6)
	for i, c := range columns {
		if c.Width == 0 {
			widths[i] = share
		}
	}
	return widths
}

func cellStyle(class string) lipgloss.Style {
	switch class {
	case "muted":
		return lipgloss.NewStyle().Foreground(theme.ColorGray)
	case "badge":
		return lipgloss.NewStyle().Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
