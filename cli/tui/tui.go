package tui

import (
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View types with a TUI rendering.
const (
	ViewStats   = "stats_emotes"
	ViewResolve = "inspect_resolve"
)

// staticWidth is the width used when rendering outside a terminal.
const staticWidth = 80

// views maps each supported view type to its renderer. Renderers receive
// the reader payload and the window width (0 when unknown).
var views = map[string]func(data any, width int) string{
	ViewStats:   renderStats,
	ViewResolve: renderResolve,
}

// Model is the Bubble Tea model shared by every view. The payload is
// static; the model only tracks the window width and the quit key.
type Model struct {
	viewType string
	data     any
	width    int
	quitting bool
}

// NewModel creates a model for viewType.
func NewModel(viewType string, data any) Model {
	return Model{viewType: viewType, data: data}
}

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	render, ok := views[m.viewType]
	if !ok {
		return fmt.Sprintf("Unknown view type: %s", m.viewType)
	}
	return render(m.data, m.width) + "\n" + HelpStyle.Render("Press q to quit")
}

// Run starts the TUI for viewType.
// Returns an error if the view type doesn't support TUI.
func Run(viewType string, data any) error {
	if !IsTUISupported(viewType) {
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	_, err := tea.NewProgram(NewModel(viewType, data), tea.WithAltScreen()).Run()
	return err
}

// RenderStatic renders a view once without starting a program.
func RenderStatic(viewType string, data any) string {
	m := NewModel(viewType, data)
	m.width = staticWidth
	return lipgloss.NewStyle().Padding(1, 2).Render(m.View())
}

// IsTUISupported returns true if the view type supports TUI mode.
// Only the read-only resolve and stats views do.
func IsTUISupported(viewType string) bool {
	_, ok := views[viewType]
	return ok
}

// SupportedTUIViews returns the view types that support TUI, sorted.
func SupportedTUIViews() []string {
	return slices.Sorted(maps.Keys(views))
}
