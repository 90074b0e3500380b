// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen reminders feed and pipeline board over the partner repository
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/pipeline"
	"github.com/harperreed/prm/reminders"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewGraph
	ViewConfirmDelete
)

// Tab is the list shown in ViewList.
type Tab int

const (
	TabReminders Tab = iota
	TabPipeline
)

var tabNames = []string{"Reminders", "Pipeline"}

// Model is the main bubbletea model
type Model struct {
	repo     *db.Repository
	viewMode ViewMode
	tab      Tab
	now      func() time.Time

	selectedRow int

	reminders []reminders.Reminder
	overdue   int
	upcoming  int
	board     pipeline.Board
	cards     []pipeline.Item

	detail   *partnerDetail
	graphDOT string

	status string
	width  int
	height int
	err    error
}

// NewModel creates a new TUI model
func NewModel(repo *db.Repository) Model {
	return Model{
		repo:     repo,
		viewMode: ViewList,
		tab:      TabReminders,
		now:      func() time.Time { return time.Now().UTC() },
		width:    80,
		height:   24,
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(repo *db.Repository) error {
	_, err := tea.NewProgram(NewModel(repo), tea.WithAltScreen()).Run()
	return err
}

// loadedMsg carries a fresh snapshot of the reminder feed and the board.
type loadedMsg struct {
	reminders []reminders.Reminder
	board     pipeline.Board
}

// statusMsg reports the outcome of an action; the snapshot is reloaded after it.
type statusMsg string

type errMsg struct{ err error }

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		partners, err := m.repo.ListPartners(ctx, "")
		if err != nil {
			return errMsg{err}
		}
		pending, err := m.repo.ListPendingReminders(ctx)
		if err != nil {
			return errMsg{err}
		}
		return loadedMsg{
			reminders: reminders.Merge(partners, pending, m.now()),
			board:     pipeline.Build(partners, pipeline.Filter{}),
		}
	}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.err = nil
		m.reminders = msg.reminders
		m.overdue, m.upcoming = reminders.Counts(msg.reminders)
		m.board = msg.board
		m.cards = make([]pipeline.Item, 0, msg.board.Total)
		for _, col := range msg.board.Columns {
			m.cards = append(m.cards, col.Items...)
		}
		m.clampSelection()
		return m, nil
	case detailMsg:
		m.detail = msg.detail
		m.viewMode = ViewDetail
		return m, nil
	case graphMsg:
		m.graphDOT = string(msg)
		m.viewMode = ViewGraph
		return m, nil
	case statusMsg:
		m.status = string(msg)
		return m, m.load()
	case errMsg:
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m *Model) clampSelection() {
	n := m.rowCount()
	if m.selectedRow >= n {
		m.selectedRow = n - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

func (m Model) rowCount() int {
	if m.tab == TabPipeline {
		return len(m.cards)
	}
	return len(m.reminders)
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.viewMode == ViewList {
			return m, tea.Quit
		}
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)
