// Package config is the settings view for the IMAP mailboxes polled for
// new leads.
package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/crm-console/internal/credential"
	"github.com/nhle/crm-console/internal/keys"
	"github.com/nhle/crm-console/internal/model"
	"github.com/nhle/crm-console/internal/theme"
)

const validateTimeout = 30 * time.Second

// ConfigMode represents the current state of the configuration view.
type ConfigMode int

const (
	ModeList           ConfigMode = iota // List configured mailboxes
	ModeForm                             // Add or edit a mailbox
	ModeValidating                       // Testing connection
	ModeValidateResult                   // Show validation result
	ModeConfirmDelete                    // Confirm mailbox removal
)

// Deps are the side effects of the settings view.
type Deps struct {
	Config *model.AppConfig
	Path   string

	Save         func(path string, cfg *model.AppConfig) error
	GetSecret    func(key string) (string, error)
	SetSecret    func(key, value string) error
	DeleteSecret func(key string) error

	// Validate checks that a mailbox accepts the password and returns the
	// authenticated user.
	Validate func(ctx context.Context, cfg model.IntakeConfig, password string) (string, error)
}

// ConfigDoneMsg signals the config view should close.
type ConfigDoneMsg struct{}

// IntakeChangedMsg is sent after the mailbox list was saved.
type IntakeChangedMsg struct {
	Intake []model.IntakeConfig
}

// ValidateResultMsg carries the result of a connection validation attempt.
type ValidateResultMsg struct {
	Name string
	Err  error
}

type savedMsg struct {
	status string
	err    error
}

// formValues are bound to the huh form; they live on the heap so copies
// of Model share them.
type formValues struct {
	name     string
	host     string
	port     string
	username string
	password string
	interval string
	tls      bool
	enabled  bool
}

// Model is the Bubble Tea model for the intake settings view.
type Model struct {
	mode        ConfigMode
	deps        Deps
	keys        *keys.KeyMap
	selectedIdx int

	form          *huh.Form
	values        *formValues
	editing       int // index being edited, -1 for a new mailbox
	confirmDelete *huh.Form
	deleteConfirm *bool

	validResult string
	validError  error
	spinner     spinner.Model

	statusMsg     string
	width, height int
}

// New creates a new configuration view model.
func New(d Deps, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeList,
		deps:    d,
		keys:    k,
		values:  &formValues{},
		editing: -1,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Mode returns the current mode.
func (m Model) Mode() ConfigMode {
	return m.mode
}

// Capturing reports whether a form owns the keyboard.
func (m Model) Capturing() bool {
	return m.mode != ModeList
}

func (m Model) intake() []model.IntakeConfig {
	return m.deps.Config.Intake
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		m.mode = ModeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		m.statusMsg = msg.status
		m.selectedIdx = min(m.selectedIdx, max(len(m.intake())-1, 0))
		intake := slices.Clone(m.intake())
		return m, func() tea.Msg { return IntakeChangedMsg{Intake: intake} }

	case ValidateResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.validResult = msg.Name
		m.validError = msg.Err
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeList:
		return m.handleListKeys(msg)
	case ModeForm, ModeConfirmDelete:
		if msg.Type == tea.KeyEsc {
			m.mode = ModeList
			return m, nil
		}
		return m.updateActiveForm(msg)
	case ModeValidating:
		// Only allow escape during validation
		if msg.Type == tea.KeyEsc {
			m.mode = ModeList
		}
		return m, nil
	case ModeValidateResult:
		return m.handleValidateResultKeys(msg)
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	n := len(m.intake())

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case key.Matches(msg, m.keys.New):
		*m.values = formValues{port: "993", interval: "300", tls: true, enabled: true}
		m.editing = -1
		cmd := m.openForm()
		return m, cmd

	case key.Matches(msg, m.keys.Edit):
		if n == 0 {
			return m, nil
		}
		in := m.intake()[m.selectedIdx]
		*m.values = formValues{
			name:     in.Name,
			host:     in.Host,
			port:     in.Port,
			username: in.Username,
			interval: strconv.Itoa(in.PollIntervalSec),
			tls:      in.TLS,
			enabled:  in.Enabled,
		}
		m.editing = m.selectedIdx
		cmd := m.openForm()
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if n == 0 {
			return m, nil
		}
		m.deleteConfirm = new(bool)
		m.confirmDelete = m.buildDeleteConfirmForm()
		m.mode = ModeConfirmDelete
		return m, m.confirmDelete.Init()

	case key.Matches(msg, m.keys.Select):
		if n == 0 {
			return m, nil
		}
		in := m.intake()[m.selectedIdx]
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validate(in, ""))

	case key.Matches(msg, m.keys.Down):
		if n > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if n > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + n) % n
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleValidateResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.validResult = ""
		m.validError = nil
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if m.validError != nil && len(m.intake()) > 0 {
			m.mode = ModeValidating
			return m, tea.Batch(m.spinner.Tick, m.validate(m.intake()[m.selectedIdx], ""))
		}
	}
	return m, nil
}

// validate checks a mailbox. An empty password is looked up in the
// keyring.
func (m Model) validate(in model.IntakeConfig, password string) tea.Cmd {
	d := m.deps
	return func() tea.Msg {
		if password == "" {
			var err error
			password, err = d.GetSecret(credential.IntakeKey(in.Name))
			if err != nil {
				return ValidateResultMsg{Err: fmt.Errorf("no password stored for %q: %w", in.Name, err)}
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
		defer cancel()
		user, err := d.Validate(ctx, in, password)
		return ValidateResultMsg{Name: user, Err: err}
	}
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeForm:
		return m.updateForm(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m, nil
}

// --- Mailbox form ---

func (m *Model) openForm() tea.Cmd {
	m.mode = ModeForm
	m.form = m.buildForm()
	return m.form.Init()
}

func (m Model) buildForm() *huh.Form {
	v := m.values
	password := huh.NewInput().
		Title("Password").
		Description("Stored in the system keyring").
		EchoMode(huh.EchoModePassword).
		Value(&v.password)
	if m.editing < 0 {
		password = password.Validate(validateRequired("Password"))
	} else {
		password = password.Description("Leave empty to keep the stored password")
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A label for this mailbox").
				Placeholder("sales").
				Value(&v.name).
				Validate(m.validateName),
			huh.NewInput().
				Title("IMAP Host").
				Placeholder("imap.example.com").
				Value(&v.host).
				Validate(validateRequired("IMAP Host")),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&v.port).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Placeholder("sales@example.com").
				Value(&v.username).
				Validate(validateRequired("Username")),
			password,
			huh.NewInput().
				Title("Poll interval (seconds)").
				Value(&v.interval).
				Validate(validateInterval),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&v.tls),
			huh.NewConfirm().
				Title("Enabled").
				Affirmative("Yes").
				Negative("No").
				Value(&v.enabled),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.saveForm()
	case huh.StateAborted:
		m.mode = ModeList
		return m, nil
	}
	return m, cmd
}

// saveForm writes the form back into the config, stores the password and
// persists the file.
func (m Model) saveForm() (Model, tea.Cmd) {
	v := m.values
	interval, _ := strconv.Atoi(strings.TrimSpace(v.interval))
	in := model.IntakeConfig{
		Name:            strings.TrimSpace(v.name),
		Host:            strings.TrimSpace(v.host),
		Port:            strings.TrimSpace(v.port),
		Username:        strings.TrimSpace(v.username),
		TLS:             v.tls,
		Enabled:         v.enabled,
		PollIntervalSec: interval,
	}

	if v.password != "" {
		if err := m.deps.SetSecret(credential.IntakeKey(in.Name), v.password); err != nil {
			m.statusMsg = fmt.Sprintf("Error saving credential: %v", err)
			m.mode = ModeList
			return m, nil
		}
	}
	v.password = ""

	cfg := m.deps.Config
	if m.editing >= 0 && m.editing < len(cfg.Intake) {
		old := cfg.Intake[m.editing].Name
		cfg.Intake[m.editing] = in
		if old != in.Name && m.deps.DeleteSecret != nil {
			_ = m.deps.DeleteSecret(credential.IntakeKey(old))
		}
	} else {
		cfg.Intake = append(cfg.Intake, in)
		m.selectedIdx = len(cfg.Intake) - 1
	}

	m.mode = ModeValidating
	return m, m.persist(fmt.Sprintf("Mailbox %q saved; restart to apply", in.Name))
}

func (m Model) persist(status string) tea.Cmd {
	d := m.deps
	return func() tea.Msg {
		return savedMsg{status: status, err: d.Save(d.Path, d.Config)}
	}
}

// --- Delete Confirmation ---

func (m Model) buildDeleteConfirmForm() *huh.Form {
	name := m.intake()[m.selectedIdx].Name
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove mailbox %q?", name)).
				Description("Its stored password is deleted too. Leads already imported stay.").
				Affirmative("Yes, remove").
				Negative("Cancel").
				Value(m.deleteConfirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateConfirmDelete(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmDelete == nil {
		return m, nil
	}

	mdl, cmd := m.confirmDelete.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmDelete = f
	}

	switch m.confirmDelete.State {
	case huh.StateCompleted:
		return m.resolveDelete()
	case huh.StateAborted:
		m.mode = ModeList
		return m, nil
	}
	return m, cmd
}

func (m Model) resolveDelete() (Model, tea.Cmd) {
	m.mode = ModeList
	if !*m.deleteConfirm || m.selectedIdx >= len(m.intake()) {
		return m, nil
	}

	cfg := m.deps.Config
	name := cfg.Intake[m.selectedIdx].Name
	cfg.Intake = slices.Delete(cfg.Intake, m.selectedIdx, m.selectedIdx+1)
	if m.deps.DeleteSecret != nil {
		if err := m.deps.DeleteSecret(credential.IntakeKey(name)); err != nil && !errors.Is(err, credential.ErrNotFound) {
			m.statusMsg = fmt.Sprintf("Error deleting credential: %v", err)
		}
	}
	return m, m.persist(fmt.Sprintf("Mailbox %q removed", name))
}

// --- View ---

// View renders the configuration UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeForm:
		return m.viewForm(m.form)
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	case ModeConfirmDelete:
		return m.viewForm(m.confirmDelete)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	b.WriteString(titleStyle.Render("Lead Intake Mailboxes"))
	b.WriteString("\n\n")

	if len(m.intake()) == 0 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No mailboxes configured.\nPress 'n' to add one."))
	} else {
		for i, in := range m.intake() {
			b.WriteString(m.renderItem(i, in))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true).
			Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("n add | e edit | d delete | enter test | esc back"))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) renderItem(idx int, in model.IntakeConfig) string {
	enabledLabel := "enabled"
	enabledColor := theme.ColorGreen
	if !in.Enabled {
		enabledLabel = "disabled"
		enabledColor = theme.ColorGray
	}

	line := fmt.Sprintf("✉  %s  %s@%s:%s  every %ds  %s",
		in.Name, in.Username, in.Host, in.Port, in.PollIntervalSec,
		lipgloss.NewStyle().Foreground(enabledColor).Render(enabledLabel),
	)

	if idx == m.selectedIdx {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(f.View())
}

func (m Model) viewValidating() string {
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(fmt.Sprintf("%s Working...\n\nPress esc to cancel.", m.spinner.View()))
}

func (m Model) viewValidateResult() string {
	var content string
	if m.validError != nil {
		content = theme.ErrorStyle.Render("Connection failed") + "\n\n" +
			m.validError.Error() + "\n\n" +
			theme.HelpStyle.Render("r retry | enter/esc back")
	} else {
		name := m.validResult
		if name == "" {
			name = "OK"
		}
		content = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen).Render("Connection successful") +
			"\n\n" + fmt.Sprintf("Authenticated as: %s", name) + "\n\n" +
			theme.HelpStyle.Render("enter/esc back")
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) validateName(s string) error {
	name := strings.TrimSpace(s)
	if name == "" {
		return errors.New("Name is required")
	}
	for i, in := range m.intake() {
		if i != m.editing && in.Name == name {
			return fmt.Errorf("a mailbox named %q already exists", name)
		}
	}
	return nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validatePort(s string) error {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 || p > 65535 {
		return errors.New("port must be a number between 1 and 65535")
	}
	return nil
}

func validateInterval(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 30 {
		return errors.New("interval must be at least 30 seconds")
	}
	return nil
}
