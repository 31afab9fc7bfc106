package listscreen

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/crm-console/internal/listing"
)

// Screen is a list screen with its row type hidden, so screens over
// different entities can sit side by side in the app.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
	Title() string
	Resource() string
	Capturing() bool
	HelpHints() []key.Binding
	Refresh() tea.Cmd
	State() listing.State
}

type erased[T any] struct {
	m Model[T]
}

// Erase wraps a typed screen as a Screen.
func Erase[T any](m Model[T]) Screen {
	return &erased[T]{m: m}
}

func (s *erased[T]) Init() tea.Cmd { return s.m.Init() }

func (s *erased[T]) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.m, cmd = s.m.Update(msg)
	return cmd
}

func (s *erased[T]) View() string { return s.m.View() }
func (s *erased[T]) SetSize(width, height int) { s.m.SetSize(width, height) }
func (s *erased[T]) Title() string { return s.m.Title() }
func (s *erased[T]) Resource() string { return s.m.Resource() }
func (s *erased[T]) Capturing() bool { return s.m.Capturing() }
func (s *erased[T]) HelpHints() []key.Binding { return s.m.HelpHints() }
func (s *erased[T]) Refresh() tea.Cmd { return s.m.Refresh() }
func (s *erased[T]) State() listing.State { return s.m.State() }
