// Package app holds the root Bubble Tea model: it routes keys between the
// entity screens, the inbox and the overlays, and wires the intake poller
// into the UI.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/crm-console/internal/backend"
	"github.com/nhle/crm-console/internal/credential"
	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/internal/notice"
	appsync "github.com/nhle/crm-console/internal/sync"
	"github.com/nhle/crm-console/internal/ui"
	"github.com/nhle/crm-console/internal/ui/command"
	configview "github.com/nhle/crm-console/internal/ui/config"
	helpview "github.com/nhle/crm-console/internal/ui/help"
	"github.com/nhle/crm-console/internal/ui/inbox"
	"github.com/nhle/crm-console/internal/ui/listscreen"
	"github.com/nhle/crm-console/internal/ui/screens"
	"github.com/nhle/crm-console/internal/ui/setup"
	"github.com/nhle/crm-console/internal/ui/welcome"
)

const appTitle = "CRM"

// LocalStore is the local state the app needs in every backend mode.
type LocalStore interface {
	inbox.Store
	notice.Dismissals
}

// Deps are the collaborators of the root model.
type Deps struct {
	Backend backend.Backend
	Store   LocalStore
	Poller  *appsync.Poller
	Config  *model.AppConfig
	Logger  *zap.Logger

	// ConfigPath is where intake settings are saved.
	ConfigPath string

	// Now is the clock of the screens and the welcome notice.
	Now func() time.Time
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewInbox
	ViewHelp
	ViewCommand
	ViewSettings
)

// Model is the root Bubble Tea model.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	logger       *zap.Logger
	poller       *appsync.Poller

	screens []listscreen.Screen
	loaded  []bool
	active  int

	inbox       inbox.Model
	helpView    helpview.Model
	commandView command.Model
	welcome     welcome.Model
	settings    configview.Model

	ready            bool
	unreadCount      int
	status           string
	authErrorMessage string
}

// New creates the root model.
func New(d Deps) Model {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Config == nil {
		d.Config = model.DefaultAppConfig()
	}
	if d.ConfigPath == "" {
		d.ConfigPath = model.DefaultConfigPath()
	}
	if d.Poller == nil {
		d.Poller = appsync.New(nil, d.Logger)
	}

	k := keys.DefaultKeyMap()
	all := screens.All(screens.Deps{
		Backend:  d.Backend,
		Keys:     k,
		Logger:   d.Logger,
		PerPage:  d.Config.Display.PageSize,
		Debounce: time.Duration(d.Config.Display.SearchDebounceMS) * time.Millisecond,
		Timeout:  time.Duration(d.Config.Backend.TimeoutSec) * time.Second,
		Now:      d.Now,
		Queries:  d.Config.Display.Queries,
	})

	return Model{
		currentView: ViewList,
		keys:        k,
		logger:      d.Logger,
		poller:      d.Poller,
		screens:     all,
		loaded:      make([]bool, len(all)),
		inbox:       inbox.New(d.Store, k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(Commands(all), 80, 24),
		welcome:     welcome.New(d.Store, k, d.Config.User.ID, d.Config.User.Name, d.Now),
		settings: configview.New(configview.Deps{
			Config:       d.Config,
			Path:         d.ConfigPath,
			Save:         model.SaveConfig,
			GetSecret:    credential.Get,
			SetSecret:    credential.Set,
			DeleteSecret: credential.Delete,
			Validate:     ValidateMailbox,
		}, k, 80, 24),
	}
}

// Commands returns the palette commands for the given screens.
func Commands(all []listscreen.Screen) []string {
	cmds := make([]string, 0, len(all)+4)
	for _, s := range all {
		cmds = append(cmds, strings.ToLower(s.Title()))
	}
	return append(cmds, "inbox", "settings", "refresh", "help", "quit")
}

// Init loads the first screen and the inbox, checks the welcome notice
// and starts the intake poller.
func (m Model) Init() tea.Cmd {
	m.loaded[m.active] = true
	return tea.Batch(
		m.screens[m.active].Init(),
		m.inbox.Init(),
		m.welcome.Init(),
		m.poller.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		for _, s := range m.screens {
			s.SetSize(w, h)
		}
		m.inbox.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settings.SetSize(w, h)
		m.welcome.SetWidth(w)
		return m, nil

	case welcome.CheckedMsg:
		if msg.Err != nil {
			m.logger.Warn("welcome notice lookup failed", zap.Error(msg.Err))
		}
		m.welcome, _ = m.welcome.Update(msg)
		return m, nil

	case welcome.DismissedMsg:
		if msg.Err != nil {
			m.logger.Warn("storing welcome dismissal failed", zap.Error(msg.Err))
		}
		return m, nil

	case inbox.LoadedMsg:
		if msg.Err != nil {
			m.logger.Error("loading notifications failed", zap.Error(msg.Err))
		} else {
			m.unreadCount = len(msg.Notifications)
		}
		var cmd tea.Cmd
		m.inbox, cmd = m.inbox.Update(msg)
		return m, cmd

	case appsync.SyncResultMsg:
		return m.handleSyncResult(msg)

	case setup.NavigateMsg:
		return m.navigate(msg.Route)

	case helpview.CloseMsg:
		m.currentView = m.previousView
		return m, nil

	case configview.ConfigDoneMsg:
		m.currentView = ViewList
		return m, nil

	case configview.IntakeChangedMsg:
		m.logger.Info("intake settings saved", zap.Int("mailboxes", len(msg.Intake)))
		return m, nil

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m.broadcast(msg)
}

// broadcast hands a non-key message to every screen and to the view that
// currently owns an input. Screens drop messages addressed to others.
func (m Model) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, len(m.screens)+1)
	for _, s := range m.screens {
		cmds = append(cmds, s.Update(msg))
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewInbox:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.poller.Stop()
		return m, tea.Quit
	}

	if m.welcome.Visible() {
		var cmd tea.Cmd
		m.welcome, cmd = m.welcome.Update(msg)
		return m, cmd
	}

	switch m.currentView {
	case ViewHelp:
		var cmd tea.Cmd
		m.helpView, cmd = m.helpView.Update(msg)
		return m, cmd

	case ViewCommand:
		var cmd tea.Cmd
		m.commandView, cmd = m.commandView.Update(msg)
		return m, cmd

	case ViewSettings:
		var cmd tea.Cmd
		m.settings, cmd = m.settings.Update(msg)
		return m, cmd

	case ViewInbox:
		switch {
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Inbox):
			m.currentView = ViewList
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.poller.RefreshAll()
		}
		if cmd, ok := m.globalKey(msg); ok {
			return m, cmd
		}
		var cmd tea.Cmd
		m.inbox, cmd = m.inbox.Update(msg)
		return m, cmd
	}

	screen := m.screens[m.active]
	if screen.Capturing() {
		return m, screen.Update(msg)
	}

	if key.Matches(msg, m.keys.Screens) {
		step := 1
		if msg.String() == "shift+tab" {
			step = -1
		}
		cmd := m.switchTo((m.active + step + len(m.screens)) % len(m.screens))
		return m, cmd
	}
	if key.Matches(msg, m.keys.Inbox) {
		m.currentView = ViewInbox
		return m, m.inbox.Load()
	}
	if cmd, ok := m.globalKey(msg); ok {
		return m, cmd
	}

	m.status = ""
	return m, screen.Update(msg)
}

// globalKey handles the keys shared by the list and the inbox.
func (m *Model) globalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.poller.Stop()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.openHelp()
		return nil, true

	case key.Matches(msg, m.keys.Settings):
		m.currentView = ViewSettings
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true
	}
	return nil, false
}

func (m *Model) openHelp() {
	if m.currentView == ViewInbox {
		m.helpView.SetContext("Inbox", m.inbox.HelpHints())
	} else {
		s := m.screens[m.active]
		m.helpView.SetContext(s.Title(), s.HelpHints())
	}
	m.previousView = m.currentView
	m.currentView = ViewHelp
}

// switchTo activates screen i, loading it on first visit.
func (m *Model) switchTo(i int) tea.Cmd {
	m.active = i
	m.currentView = ViewList
	m.status = ""
	if m.loaded[i] {
		return nil
	}
	m.loaded[i] = true
	return m.screens[i].Init()
}

func (m Model) screenIndex(resource string) int {
	for i, s := range m.screens {
		if s.Resource() == resource || strings.EqualFold(s.Title(), resource) {
			return i
		}
	}
	return -1
}

// navigate follows a route emitted by a screen. Routes naming a screen
// switch to it; create and edit routes have no terminal form and are
// reported in the status bar.
func (m Model) navigate(route string) (tea.Model, tea.Cmd) {
	if i := m.screenIndex(route); i >= 0 {
		cmd := m.switchTo(i)
		return m, cmd
	}
	m.logger.Info("navigation requested", zap.String("route", route))
	m.status = fmt.Sprintf("open %s in the web app", route)
	return m, nil
}

func (m Model) handleSyncResult(msg appsync.SyncResultMsg) (tea.Model, tea.Cmd) {
	if msg.AuthError != nil {
		m.authErrorMessage = msg.AuthError.Message
	} else if msg.Error == nil {
		m.authErrorMessage = ""
	}

	cmds := []tea.Cmd{m.poller.WaitForNextResult()}
	if msg.NewLeadCount > 0 {
		cmds = append(cmds, m.inbox.Load())
		if i := m.screenIndex(backend.Leads); i >= 0 && m.loaded[i] {
			cmds = append(cmds, m.screens[i].Refresh())
		}
	}
	return m, tea.Batch(cmds...)
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "quit", "q":
		m.poller.Stop()
		return m, tea.Quit
	case "inbox":
		m.currentView = ViewInbox
		return m, m.inbox.Load()
	case "help":
		m.openHelp()
		return m, nil
	case "settings", "config":
		m.currentView = ViewSettings
		return m, nil
	case "refresh", "sync":
		m.poller.RefreshAll()
		return m, tea.Batch(m.screens[m.active].Refresh(), m.inbox.Load())
	}

	if i := m.screenIndex(cmd); i >= 0 {
		c := m.switchTo(i)
		return m, c
	}
	m.status = fmt.Sprintf("unknown command %q", cmd)
	return m, nil
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(ui.InboxLabel(appTitle, m.unreadCount), m.syncStatus())

	titles := make([]string, len(m.screens))
	for i, s := range m.screens {
		titles[i] = s.Title()
	}
	active := m.active
	if m.currentView == ViewInbox {
		active = -1
	}
	tabs := m.layout.RenderTabs(titles, active)

	return m.layout.RenderWithFrame(header, tabs, m.renderContent(), m.statusBar())
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	if m.welcome.Visible() {
		return m.centered(m.welcome.View())
	}

	switch m.currentView {
	case ViewInbox:
		return m.inbox.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.centered(m.commandView.View())
	case ViewSettings:
		return m.settings.View()
	default:
		return m.screens[m.active].View()
	}
}

func (m Model) centered(s string) string {
	return lipgloss.Place(
		m.layout.ContentWidth(), m.layout.ContentHeight(),
		lipgloss.Center, lipgloss.Center,
		s,
	)
}

// syncStatus returns a short string describing the combined intake state.
func (m Model) syncStatus() string {
	statuses := m.poller.Statuses()
	if len(statuses) == 0 {
		return "no intake"
	}

	running := 0
	var failing []string
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			failing = append(failing, s.Source)
		}
	}

	if running > 0 {
		return fmt.Sprintf("syncing (%d)", running)
	}
	if len(failing) > 0 {
		return "unreachable: " + strings.Join(failing, ", ")
	}
	return "idle"
}

// statusBar renders the bottom line: an auth problem, then a status
// message, then key hints.
func (m Model) statusBar() string {
	if m.authErrorMessage != "" && m.currentView != ViewHelp {
		return m.layout.RenderStatusBar(m.authErrorMessage)
	}
	if m.status != "" {
		return m.layout.RenderStatusBar(m.status)
	}

	var hints []key.Binding
	switch m.currentView {
	case ViewHelp:
		hints = []key.Binding{m.keys.Help, m.keys.Back}
	case ViewCommand:
		return m.layout.RenderStatusBar("enter execute", "esc cancel")
	case ViewSettings:
		return m.layout.RenderStatusBar("n add", "e edit", "d delete", "enter test", "esc back")
	case ViewInbox:
		hints = m.inbox.HelpHints()
	default:
		hints = append(m.screens[m.active].HelpHints(), m.keys.Screens, m.keys.Help)
	}

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		if !h.Enabled() {
			continue
		}
		parts = append(parts, h.Help().Key+" "+h.Help().Desc)
	}
	return m.layout.RenderStatusBar(parts...)
}

// UnreadCount returns the number of unread notifications last loaded.
func (m Model) UnreadCount() int {
	return m.unreadCount
}

// ActiveScreen returns the screen in front.
func (m Model) ActiveScreen() listscreen.Screen {
	return m.screens[m.active]
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// Status returns the transient status message.
func (m Model) Status() string {
	return m.status
}

// Shutdown stops background work. It is safe to call more than once.
func (m Model) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		m.poller.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("poller did not stop in time")
	}
}
