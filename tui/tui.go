// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Browse one account's org chart, queue moves in a journal and save them as one batch
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/models"
	"github.com/harperreed/orgmap/orgchart"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewChart
	ViewMove
	ViewGraph
	ViewConfirmSave
)

// ErrNoTerminal is returned by Run when stdout is not a terminal.
var ErrNoTerminal = errors.New("tui requires an interactive terminal")

// Model is the main bubbletea model
type Model struct {
	ctx       context.Context
	svc       *directory.Service
	accountID string
	journal   *orgchart.Journal

	viewMode ViewMode
	// view to return to from move and graph
	prevMode ViewMode

	// List view state
	selectedRow int
	searching   bool
	searchInput textinput.Model

	// Chart view state
	focus string

	// Move view state
	moveInput textinput.Model
	moveErr   string

	graphDOT string

	status string
	err    error

	width  int
	height int
}

// NewModel loads the account's persons and starts an empty journal.
func NewModel(ctx context.Context, svc *directory.Service, accountID string) (Model, error) {
	persons, err := svc.ListPersons(ctx, accountID)
	if err != nil {
		return Model{}, fmt.Errorf("failed to load %s: %w", accountID, err)
	}

	search := textinput.New()
	search.Placeholder = "name or email"
	search.Prompt = "/ "

	move := textinput.New()
	move.Placeholder = "new manager email (empty for top of chart)"
	move.CharLimit = 254

	return Model{
		ctx:         ctx,
		svc:         svc,
		accountID:   accountID,
		journal:     orgchart.NewJournal(persons),
		viewMode:    ViewList,
		searchInput: search,
		moveInput:   move,
		width:       80,
		height:      24,
	}, nil
}

// Run starts the full-screen program. It refuses to start without a terminal.
func Run(ctx context.Context, svc *directory.Service, accountID string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return ErrNoTerminal
	}
	m, err := NewModel(ctx, svc, accountID)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewChart:
		return m.renderChartView()
	case ViewMove:
		return m.renderMoveView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmSave:
		return m.renderConfirmSaveView()
	}
	return ""
}

// typing reports whether keys go to a text input.
func (m Model) typing() bool {
	return m.viewMode == ViewMove || (m.viewMode == ViewList && m.searching)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if !m.typing() {
		if msg.String() == "q" {
			return m, tea.Quit
		}
		if m.viewMode != ViewConfirmSave {
			switch msg.String() {
			case "u":
				m.undo()
				return m, nil
			case "s":
				m.requestSave()
				return m, nil
			}
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewChart:
		return m.handleChartKeys(msg)
	case ViewMove:
		return m.handleMoveKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmSave:
		return m.handleConfirmSaveKeys(msg)
	}

	return m, nil
}

func (m *Model) undo() {
	if m.journal.Undo() {
		m.status = fmt.Sprintf("Undid last move (%d pending)", m.journal.Len())
	} else {
		m.status = "Nothing to undo"
	}
}

// persons returns the working chart with every queued move applied.
func (m Model) persons() []models.Person {
	return m.journal.Working().Persons()
}

func displayName(p *models.Person) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}
	line := m.status
	if n := m.journal.Len(); n > 0 {
		pending := pendingStyle.Render(fmt.Sprintf("[%d unsaved move(s)]", n))
		if line == "" {
			return pending
		}
		line = line + "  " + pending
	}
	return statusStyle.Render(line)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)
