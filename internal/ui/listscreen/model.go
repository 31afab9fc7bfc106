// Package listscreen assembles the search bar, the table, the empty states
// and the pager into one screen per entity.
package listscreen

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/crm-console/internal/backend"
	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/listing"
	"github.com/nhle/crm-console/internal/theme"
	"github.com/nhle/crm-console/internal/ui/datalist"
	"github.com/nhle/crm-console/internal/ui/searchfilter"
	"github.com/nhle/crm-console/internal/ui/setup"
)

// defaultTimeout bounds a single backend call.
const defaultTimeout = 30 * time.Second

// Config describes one entity screen.
type Config[T any] struct {
	// Resource is the backend resource and the id of the screen's messages.
	Resource string
	Title    string

	FilterOptions []listing.FilterOption
	SortOptions   []listing.SortOption
	Columns       []listing.Column[T]
	Key           listing.KeyFunc[T]

	// Initial is the snapshot Reset returns to.
	Initial listing.Snapshot

	Setup setup.Config

	// EditRoute maps a row id to its edit route. Nil disables editing.
	EditRoute func(id int64) string

	// ReadOnly disables row deletion.
	ReadOnly bool

	Placeholder string
	PerPage     int
	Debounce    time.Duration
	Timeout     time.Duration
}

type pageLoadedMsg[T any] struct {
	resource string
	seq      int
	rows     []T
	page     listing.Page
	err      error
}

type totalLoadedMsg struct {
	resource string
	total    int
	err      error
}

type confirmDeleteMsg struct {
	resource string
	id       int64
}

type deletedMsg struct {
	resource string
	id       int64
	err      error
}

// confirmBinding keeps the confirm value on the heap so huh's pointer
// stays valid across model copies.
type confirmBinding struct {
	yes bool
	id  int64
}

// Model is a list screen over rows of type T.
type Model[T any] struct {
	cfg     Config[T]
	backend backend.Backend
	keys    *keys.KeyMap
	logger  *zap.Logger

	bar   searchfilter.Model
	table datalist.Model[T]
	setup setup.Model
	pager paginator.Model

	pageNum  int
	page     listing.Page
	original int
	seq      int
	loading  bool
	err      error
	status   string

	confirm *huh.Form
	cb      *confirmBinding

	width  int
	height int
}

// New creates a screen reading from b.
func New[T any](cfg Config[T], b backend.Backend, k *keys.KeyMap, logger *zap.Logger) Model[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	bar := searchfilter.New(searchfilter.Config{
		ID:            cfg.Resource,
		FilterOptions: cfg.FilterOptions,
		SortOptions:   cfg.SortOptions,
		Debounce:      cfg.Debounce,
		Placeholder:   cfg.Placeholder,
	}, k, cfg.Initial)

	resource := cfg.Resource
	tableCfg := datalist.Config[T]{
		Columns: cfg.Columns,
		Key:     cfg.Key,
	}
	if !cfg.ReadOnly {
		tableCfg.OnDelete = func(id int64) tea.Cmd {
			return func() tea.Msg { return confirmDeleteMsg{resource: resource, id: id} }
		}
	}
	if cfg.EditRoute != nil {
		editRoute := cfg.EditRoute
		tableCfg.OnEdit = func(id int64) tea.Cmd {
			route := editRoute(id)
			return func() tea.Msg { return setup.NavigateMsg{Route: route} }
		}
	}

	pager := paginator.New()
	pager.Type = paginator.Arabic
	pager.ArabicFormat = "page %d of %d"

	return Model[T]{
		cfg:     cfg,
		backend: b,
		keys:    k,
		logger:  logger.With(zap.String("resource", cfg.Resource)),
		bar:     bar,
		table:   datalist.New(tableCfg, k, 80, 10),
		setup:   setup.New(cfg.Setup, k, 80, 10),
		pager:   pager,
		pageNum: 1,
		page:    listing.NewPage(1, max(cfg.PerPage, 1), 0),
		loading: true,
		cb:      &confirmBinding{},
		width:   80,
		height:  20,
	}
}

// Title returns the screen title.
func (m Model[T]) Title() string {
	return m.cfg.Title
}

// Resource returns the backend resource the screen lists.
func (m Model[T]) Resource() string {
	return m.cfg.Resource
}

// State returns the committed search, sort and filter state.
func (m Model[T]) State() listing.State {
	return m.bar.State()
}

// Page returns the page currently shown.
func (m Model[T]) Page() listing.Page {
	return m.page
}

// Rows returns the rows currently shown.
func (m Model[T]) Rows() []T {
	return m.table.Rows()
}

// Presentation returns which of the three list states is shown.
func (m Model[T]) Presentation() listing.Presentation {
	return m.setup.Presentation()
}

// Err returns the last backend error, if any.
func (m Model[T]) Err() error {
	return m.err
}

// Capturing reports whether a text input or dialog owns the keyboard.
func (m Model[T]) Capturing() bool {
	return m.bar.Capturing() || m.confirm != nil
}

// Init loads the first page and the unfiltered total.
func (m Model[T]) Init() tea.Cmd {
	return tea.Batch(m.fetchPage(m.pageNum, m.seq), m.fetchTotal())
}

// Refresh reloads the current page and the unfiltered total.
func (m *Model[T]) Refresh() tea.Cmd {
	return tea.Batch(m.load(), m.fetchTotal())
}

// Update handles messages for the screen. Messages addressed to another
// resource are ignored, so the parent may broadcast.
func (m Model[T]) Update(msg tea.Msg) (Model[T], tea.Cmd) {
	switch msg := msg.(type) {
	case pageLoadedMsg[T]:
		if msg.resource != m.cfg.Resource || msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.logger.Warn("loading page failed", zap.Error(msg.err))
			return m, nil
		}
		m.err = nil
		// A server that does not clamp answers a page past the end with
		// no rows. Step back to the last page instead of showing empty.
		if len(msg.rows) == 0 && msg.page.Total > 0 && m.pageNum > msg.page.TotalPages {
			m.pageNum = msg.page.TotalPages
			cmd := m.load()
			return m, cmd
		}
		m.page = msg.page
		m.pageNum = msg.page.Number
		m.table.SetRows(msg.rows)
		m.pager.TotalPages = msg.page.TotalPages
		m.pager.Page = msg.page.Number - 1
		m.decide()
		return m, nil

	case totalLoadedMsg:
		if msg.resource != m.cfg.Resource {
			return m, nil
		}
		if msg.err != nil {
			m.logger.Warn("loading total failed", zap.Error(msg.err))
			return m, nil
		}
		m.original = msg.total
		m.decide()
		return m, nil

	case searchfilter.QueryChangedMsg:
		if msg.ID != m.cfg.Resource {
			return m, nil
		}
		m.pageNum = 1
		m.status = ""
		cmd := m.load()
		return m, cmd

	case confirmDeleteMsg:
		if msg.resource != m.cfg.Resource {
			return m, nil
		}
		cmd := m.openConfirm(msg.id)
		return m, cmd

	case deletedMsg:
		if msg.resource != m.cfg.Resource {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.logger.Warn("delete failed", zap.Int64("id", msg.id), zap.Error(msg.err))
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted #%d", msg.id)
		cmd := m.Refresh()
		return m, cmd
	}

	if m.confirm != nil {
		return m.updateConfirm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.bar.Capturing() {
		return m.handleKeys(keyMsg)
	}

	// Everything else (search input, debounce ticks, popover) belongs to
	// the bar.
	var cmd tea.Cmd
	m.bar, cmd = m.bar.Update(msg)
	return m, cmd
}

func (m Model[T]) handleKeys(msg tea.KeyMsg) (Model[T], tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PrevPage):
		if !m.page.HasPrev() {
			return m, nil
		}
		m.pageNum = m.page.Prev()
		cmd := m.load()
		return m, cmd

	case key.Matches(msg, m.keys.NextPage):
		if !m.page.HasNext() {
			return m, nil
		}
		m.pageNum = m.page.Next()
		cmd := m.load()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		cmd := m.Refresh()
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.bar, cmd = m.bar.Update(msg)
	cmds = append(cmds, cmd)

	m.setup, cmd = m.setup.Update(msg)
	cmds = append(cmds, cmd)

	if m.setup.Presentation() == listing.HasData {
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// load bumps the request sequence and fetches the current page. Replies
// to earlier requests are dropped.
func (m *Model[T]) load() tea.Cmd {
	m.seq++
	m.loading = true
	return m.fetchPage(m.pageNum, m.seq)
}

func (m Model[T]) query(page int) url.Values {
	q := listing.Query(m.bar.Snapshot(), page)
	if m.cfg.PerPage > 0 {
		q.Set(listing.ParamPerPage, strconv.Itoa(m.cfg.PerPage))
	}
	return q
}

func (m Model[T]) fetchPage(page, seq int) tea.Cmd {
	b, resource, timeout := m.backend, m.cfg.Resource, m.cfg.Timeout
	q := m.query(page)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		rows, p, err := backend.Fetch[T](ctx, b, resource, q)
		return pageLoadedMsg[T]{resource: resource, seq: seq, rows: rows, page: p, err: err}
	}
}

func (m Model[T]) fetchTotal() tea.Cmd {
	b, resource, timeout := m.backend, m.cfg.Resource, m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		total, err := backend.Total(ctx, b, resource)
		return totalLoadedMsg{resource: resource, total: total, err: err}
	}
}

func (m *Model[T]) decide() {
	m.setup.Decide(len(m.table.Rows()), m.bar.State().HasActiveFilters(), m.original)
}

// === Delete confirmation ===

func (m *Model[T]) openConfirm(id int64) tea.Cmd {
	m.cb = &confirmBinding{id: id}
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete #%d?", id)).
				Description("This cannot be undone.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&m.cb.yes),
		),
	).WithWidth(min(max(m.width-8, 30), 60)).WithShowHelp(false)
	return m.confirm.Init()
}

func (m Model[T]) updateConfirm(msg tea.Msg) (Model[T], tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, m.keys.Back) {
		m.confirm = nil
		return m, nil
	}

	mdl, cmd := m.confirm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateCompleted:
		del := m.resolveConfirm()
		return m, del
	case huh.StateAborted:
		m.confirm = nil
		return m, nil
	}
	return m, cmd
}

// resolveConfirm closes the dialog and deletes the row if confirmed.
func (m *Model[T]) resolveConfirm() tea.Cmd {
	m.confirm = nil
	if !m.cb.yes {
		return nil
	}

	b, resource, timeout, id := m.backend, m.cfg.Resource, m.cfg.Timeout, m.cb.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := b.Delete(ctx, resource, id)
		return deletedMsg{resource: resource, id: id, err: err}
	}
}

// === Rendering ===

// View renders the screen.
func (m Model[T]) View() string {
	parts := []string{m.bar.View()}

	if m.confirm != nil {
		parts = append(parts, theme.ModalStyle.Render(m.confirm.View()))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	if m.err != nil {
		parts = append(parts, theme.ErrorStyle.Render(errorText(m.err)))
	}

	if m.loading && len(m.table.Rows()) == 0 && m.err == nil {
		parts = append(parts, theme.HelpStyle.Render("loading..."))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	list := lipgloss.JoinVertical(lipgloss.Left, m.table.View(), m.footer())
	parts = append(parts, m.setup.View(list))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model[T]) footer() string {
	info := fmt.Sprintf("%d-%d of %d", m.page.From, m.page.To, m.page.Total)
	line := theme.HelpStyle.Render(info)
	if m.page.TotalPages > 1 {
		line += "   " + m.pager.View()
	}
	if m.status != "" {
		line += "   " + m.status
	}
	return line
}

func errorText(err error) string {
	if backend.IsAuthError(err) {
		return err.Error() + " (run `crm login`)"
	}
	return "error: " + err.Error()
}

// HelpHints returns the key hints relevant to the current state.
func (m Model[T]) HelpHints() []key.Binding {
	if m.confirm != nil {
		return []key.Binding{m.keys.Back}
	}
	hints := m.bar.HelpHints()
	if m.bar.Capturing() {
		return hints
	}
	if m.page.TotalPages > 1 {
		hints = append(hints, m.keys.PrevPage, m.keys.NextPage)
	}
	if m.setup.CanCreate() {
		hints = append(hints, m.keys.New)
	}
	if m.setup.Presentation() == listing.HasData {
		if m.cfg.EditRoute != nil {
			hints = append(hints, m.keys.Edit)
		}
		if !m.cfg.ReadOnly {
			hints = append(hints, m.keys.Delete)
		}
	}
	return hints
}

// SetSize updates the screen dimensions.
func (m *Model[T]) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.bar.SetWidth(width)

	// Bar, chips line, description and footer.
	body := max(height-5, 3)
	m.table.SetSize(width, body)
	m.setup.SetSize(width, body)
}
