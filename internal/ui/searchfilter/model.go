// Package searchfilter is the search box, sort selector, filter popover and
// filter chips shown above every list.
package searchfilter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/listing"
	"github.com/nhle/crm-console/internal/theme"
)

// QueryChangedMsg is emitted whenever committed search, sort or filters
// change. ID names the list the change belongs to.
type QueryChangedMsg struct {
	ID       string
	Snapshot listing.Snapshot
}

// debounceMsg fires once the search box has been idle for the debounce
// window. Stale ticks carry an outdated seq and are ignored.
type debounceMsg struct {
	id  string
	seq int
}

// Config describes what a list can be searched, sorted and filtered by.
type Config struct {
	ID            string
	FilterOptions []listing.FilterOption
	SortOptions   []listing.SortOption
	Debounce      time.Duration
	Placeholder   string
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	values map[string]*string
}

// Model is the search/sort/filter bar.
type Model struct {
	cfg       Config
	keys      *keys.KeyMap
	state     listing.State
	editor    listing.Editor
	search    textinput.Model
	searching bool
	seq       int
	form      *huh.Form
	fb        *formBindings
	width     int
}

// New creates the bar with the given initial (default) snapshot.
func New(cfg Config, k *keys.KeyMap, initial listing.Snapshot) Model {
	si := textinput.New()
	si.Placeholder = cfg.Placeholder
	if si.Placeholder == "" {
		si.Placeholder = "search..."
	}
	si.Prompt = "/ "
	si.SetValue(initial.Search)

	return Model{
		cfg:    cfg,
		keys:   k,
		state:  listing.NewState(initial),
		search: si,
		fb:     &formBindings{values: make(map[string]*string)},
		width:  80,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// State returns the committed list state.
func (m Model) State() listing.State {
	return m.state
}

// Snapshot returns the committed search, sort and filters.
func (m Model) Snapshot() listing.Snapshot {
	return m.state.Snapshot()
}

// Capturing reports whether the bar currently owns the keyboard (search
// box or filter popover), so the parent must not interpret keys itself.
func (m Model) Capturing() bool {
	return m.searching || m.editor.IsOpen()
}

// FiltersOpen reports whether the filter popover is shown.
func (m Model) FiltersOpen() bool {
	return m.editor.IsOpen()
}

// Update handles messages for the bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if d, ok := msg.(debounceMsg); ok {
		if d.id != m.cfg.ID || d.seq != m.seq || !m.searching {
			return m, nil
		}
		cmd := m.commitSearch(m.search.Value())
		return m, cmd
	}

	if m.editor.IsOpen() {
		return m.updateForm(msg)
	}

	keyMsg, isKey := msg.(tea.KeyMsg)
	if m.searching {
		if isKey {
			return m.handleSearchKeys(keyMsg)
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	if !isKey {
		return m, nil
	}
	return m.handleNormalKeys(keyMsg)
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		m.seq++
		cmd := m.commitSearch(m.search.Value())
		return m, cmd

	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.Reset()
		m.seq++
		cmd := m.commitSearch("")
		return m, cmd
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	m.seq++
	if m.cfg.Debounce <= 0 {
		commit := m.commitSearch(m.search.Value())
		return m, tea.Batch(cmd, commit)
	}
	id, seq := m.cfg.ID, m.seq
	tick := tea.Tick(m.cfg.Debounce, func(time.Time) tea.Msg {
		return debounceMsg{id: id, seq: seq}
	})
	return m, tea.Batch(cmd, tick)
}

// handleNormalKeys processes bar keys while no input is focused. Keys the
// bar does not own are ignored.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.state.Search())
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.CycleSort):
		if len(m.cfg.SortOptions) == 0 {
			return m, nil
		}
		next, dir := m.nextSort()
		m.state.SetSort(next, dir)
		return m, m.changed()

	case key.Matches(msg, m.keys.ToggleDir):
		m.state.ToggleDirection()
		return m, m.changed()

	case key.Matches(msg, m.keys.Filters):
		if len(m.cfg.FilterOptions) == 0 {
			return m, nil
		}
		cmd := m.openFilters()
		return m, cmd

	case key.Matches(msg, m.keys.RemoveChip):
		chips := m.Chips()
		if len(chips) == 0 {
			return m, nil
		}
		m.state.RemoveFilter(chips[len(chips)-1].Key)
		return m, m.changed()

	case key.Matches(msg, m.keys.RemoveChipNth):
		chips := m.Chips()
		n := int(msg.String()[0] - '0')
		if n < 1 || n > len(chips) {
			return m, nil
		}
		m.state.RemoveFilter(chips[n-1].Key)
		return m, m.changed()

	case key.Matches(msg, m.keys.ResetAll):
		if !m.state.HasActiveFilters() {
			return m, nil
		}
		cmd := m.ResetAll()
		return m, cmd
	}

	return m, nil
}

// ResetAll restores the initial search, sort and filters.
func (m *Model) ResetAll() tea.Cmd {
	m.state.Reset()
	m.search.SetValue(m.state.Search())
	m.searching = false
	m.search.Blur()
	m.seq++
	return m.changed()
}

// nextSort advances through the sort options and back to the default
// (no sort key). The direction is kept, defaulting to ascending.
func (m Model) nextSort() (string, listing.Direction) {
	dir := m.state.Direction()
	opts := m.cfg.SortOptions

	current := m.state.Sort()
	for i, opt := range opts {
		if opt.Key != current {
			continue
		}
		if i+1 < len(opts) {
			return opts[i+1].Key, dir
		}
		// The initial order joins the cycle only when it is not an option.
		initial := m.state.Initial().Sort
		if slices.ContainsFunc(opts, func(o listing.SortOption) bool { return o.Key == initial }) {
			return opts[0].Key, dir
		}
		return initial, dir
	}
	return opts[0].Key, dir
}

// commitSearch commits the search value and reports a change only when it
// differs from the committed one.
func (m *Model) commitSearch(value string) tea.Cmd {
	if value == m.state.Search() {
		return nil
	}
	m.state.SetSearch(value)
	return m.changed()
}

func (m Model) changed() tea.Cmd {
	msg := QueryChangedMsg{ID: m.cfg.ID, Snapshot: m.state.Snapshot()}
	return func() tea.Msg { return msg }
}

// === Filter popover ===

// openFilters starts an edit session seeded with the committed filters.
func (m *Model) openFilters() tea.Cmd {
	m.editor.Open(m.state.Filters())
	m.loadBindings()
	m.form = m.buildForm()
	return m.form.Init()
}

// loadBindings copies the temporary buffer into the form bindings.
func (m *Model) loadBindings() {
	for _, opt := range m.cfg.FilterOptions {
		v := m.editor.Value(opt.Key)
		s := ""
		if !v.IsEmpty() {
			s = v.String()
		}
		m.fb.values[opt.Key] = &s
	}
}

// syncEditor copies the form bindings into the temporary buffer. Values
// that do not parse (half-typed dates) are left out.
func (m *Model) syncEditor() {
	for _, opt := range m.cfg.FilterOptions {
		ptr := m.fb.values[opt.Key]
		if ptr == nil {
			continue
		}
		raw := strings.TrimSpace(*ptr)
		switch {
		case raw == "":
			m.editor.Set(opt.Key, listing.Null)
		case opt.Kind == listing.KindDate:
			t, err := time.Parse(listing.DateLayout, raw)
			if err != nil {
				m.editor.Set(opt.Key, listing.Null)
				continue
			}
			m.editor.Set(opt.Key, listing.Date(t))
		default:
			m.editor.Set(opt.Key, listing.Text(raw))
		}
	}
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case keyMsg.String() == "esc":
			m.editor.Cancel()
			m.form = nil
			return m, nil

		case key.Matches(keyMsg, m.keys.ResetFilters):
			cmd := m.resetFilters()
			return m, cmd
		}
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	m.syncEditor()

	switch m.form.State {
	case huh.StateCompleted:
		apply := m.applyFilters()
		return m, apply
	case huh.StateAborted:
		m.editor.Cancel()
		m.form = nil
		return m, nil
	}

	return m, cmd
}

// applyFilters commits the temporary buffer and closes the popover.
func (m *Model) applyFilters() tea.Cmd {
	filters := m.editor.Apply()
	m.form = nil
	if sameActive(filters, m.state.Filters()) {
		return nil
	}
	m.state.SetFilters(filters)
	return m.changed()
}

// sameActive compares the non-empty values of two filter sets.
func sameActive(a, b listing.FilterValues) bool {
	keys := a.ActiveKeys()
	if !slices.Equal(keys, b.ActiveKeys()) {
		return false
	}
	for _, k := range keys {
		if !a[k].Equal(b[k]) {
			return false
		}
	}
	return true
}

// resetFilters clears both the temporary buffer and the committed filters
// at once. The popover stays open on an empty form.
func (m *Model) resetFilters() tea.Cmd {
	m.editor.Reset()
	m.loadBindings()
	m.form = m.buildForm()
	init := m.form.Init()

	if m.state.ActiveFilterCount() == 0 {
		return init
	}
	m.state.SetFilters(listing.FilterValues{})
	return tea.Batch(init, m.changed())
}

func (m *Model) buildForm() *huh.Form {
	fields := make([]huh.Field, 0, len(m.cfg.FilterOptions))
	for _, opt := range m.cfg.FilterOptions {
		fields = append(fields, m.field(opt))
	}

	return huh.NewForm(
		huh.NewGroup(fields...).
			Title("Filters").
			Description("enter apply · esc cancel · ctrl+r reset"),
	).WithWidth(m.formWidth()).WithShowHelp(false)
}

func (m *Model) field(opt listing.FilterOption) huh.Field {
	value := m.fb.values[opt.Key]

	switch opt.Kind {
	case listing.KindSelect:
		opts := []huh.Option[string]{huh.NewOption("Any", "")}
		for _, o := range opt.Options {
			opts = append(opts, huh.NewOption(o.Label, o.Value))
		}
		return huh.NewSelect[string]().
			Key(opt.Key).
			Title(opt.Label).
			Options(opts...).
			Value(value)

	case listing.KindDate:
		placeholder := opt.Placeholder
		if placeholder == "" {
			placeholder = "YYYY-MM-DD"
		}
		return huh.NewInput().
			Key(opt.Key).
			Title(opt.Label).
			Placeholder(placeholder).
			Value(value).
			Validate(validateOptionalDate)

	default:
		return huh.NewInput().
			Key(opt.Key).
			Title(opt.Label).
			Placeholder(opt.Placeholder).
			Value(value)
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := time.Parse(listing.DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

// === Rendering ===

// Chips returns the committed filter chips in option order.
func (m Model) Chips() []listing.Chip {
	return listing.Chips(m.state.Filters(), m.cfg.FilterOptions)
}

// View renders the bar, its chips line and, when open, the popover.
func (m Model) View() string {
	lines := []string{m.topLine()}
	if chips := m.chipsLine(); chips != "" {
		lines = append(lines, chips)
	}
	if m.editor.IsOpen() && m.form != nil {
		lines = append(lines, theme.ModalStyle.Render(m.form.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) topLine() string {
	var searchBox string
	if m.searching {
		searchBox = m.search.View()
	} else if s := m.state.Search(); s != "" {
		searchBox = "/ " + s
	} else {
		searchBox = theme.HelpStyle.Render("/ " + m.search.Placeholder)
	}

	parts := []string{searchBox}
	if label := m.sortLabel(); label != "" {
		parts = append(parts, theme.HelpStyle.Render("sort: ")+label)
	}
	if len(m.cfg.FilterOptions) > 0 {
		filters := theme.HelpStyle.Render("f filters")
		if n := m.state.ActiveFilterCount(); n > 0 {
			filters += " " + theme.BadgeStyle.Render(fmt.Sprint(n))
		}
		parts = append(parts, filters)
	}
	return strings.Join(parts, "   ")
}

func (m Model) sortLabel() string {
	current := m.state.Sort()
	if current == "" {
		return ""
	}
	label := current
	for _, opt := range m.cfg.SortOptions {
		if opt.Key == current {
			label = opt.Label
			break
		}
	}
	arrow := "↑"
	if m.state.Direction() == listing.Desc {
		arrow = "↓"
	}
	return label + " " + arrow
}

func (m Model) chipsLine() string {
	chips := m.Chips()
	var parts []string
	for i, c := range chips {
		text := fmt.Sprintf("%s: %s", c.Label, c.Display)
		if i < 9 {
			text = fmt.Sprintf("%d %s ×", i+1, text)
		}
		parts = append(parts, theme.ChipStyle.Render(text))
	}
	if m.state.HasActiveFilters() {
		parts = append(parts, theme.HelpStyle.Render("R reset all"))
	}
	return strings.Join(parts, " ")
}

// HelpHints returns the key hints relevant to the current state.
func (m Model) HelpHints() []key.Binding {
	if m.searching {
		return nil
	}
	hints := []key.Binding{m.keys.Search}
	if len(m.cfg.SortOptions) > 0 {
		hints = append(hints, m.keys.CycleSort, m.keys.ToggleDir)
	}
	if len(m.cfg.FilterOptions) > 0 {
		hints = append(hints, m.keys.Filters)
	}
	if len(m.Chips()) > 0 {
		hints = append(hints, m.keys.RemoveChip)
	}
	if m.state.HasActiveFilters() {
		hints = append(hints, m.keys.ResetAll)
	}
	return hints
}

// SetWidth updates the bar width.
func (m *Model) SetWidth(width int) {
	m.width = width
	m.search.Width = max(width-6, 10)
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 80)
}
