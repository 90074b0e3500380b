// ABOUTME: TUI list view with the Reminders and Pipeline tabs
// ABOUTME: Renders the merged reminder table and the kanban board, and handles their keys
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/reminders"
	"github.com/harperreed/prm/viz"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PRM"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.tab == TabPipeline {
		s.WriteString(m.renderBoard())
	} else {
		s.WriteString(m.renderRemindersTable())
	}
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	} else if m.status != "" {
		s.WriteString(statusStyle.Render(m.status))
		s.WriteString("\n")
	}

	s.WriteString(m.renderListHelp())
	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, name := range tabNames {
		if Tab(i) == TabReminders {
			name = fmt.Sprintf("%s (%d/%d)", name, m.overdue, m.upcoming)
		}
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderRemindersTable() string {
	if len(m.reminders) == 0 {
		return "Nothing needs attention 🎉"
	}

	columns := []table.Column{
		{Title: "", Width: 3},
		{Title: "Partner", Width: 25},
		{Title: "Kind", Width: 10},
		{Title: "Key person", Width: 15},
		{Title: "Summary", Width: 40},
	}

	rows := make([]table.Row, 0, len(m.reminders))
	for _, r := range m.reminders {
		icon := "🟡"
		if r.Level == reminders.LevelOverdue {
			icon = "🔴"
		}
		rows = append(rows, table.Row{icon, r.PartnerName, string(r.Kind), r.KeyPerson, r.Summary()})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1).
			Width(22)

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("170"))
)

func (m Model) renderBoard() string {
	var selected *uuid.UUID
	var selectedProduct string
	if m.selectedRow < len(m.cards) {
		c := m.cards[m.selectedRow]
		selected = &c.PartnerID
		selectedProduct = c.Product
	}

	cols := make([]string, 0, len(m.board.Columns))
	for _, col := range m.board.Columns {
		var b strings.Builder
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%s (%d)", col.Status, len(col.Items))))
		for _, it := range col.Items {
			line := truncate(it.PartnerName+" · "+it.Product, 20)
			b.WriteString("\n")
			if selected != nil && it.PartnerID == *selected && it.Product == selectedProduct {
				b.WriteString(selectedCardStyle.Render(line))
			} else {
				b.WriteString(cardStyle.Render(line))
			}
		}
		cols = append(cols, columnStyle.Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) renderListHelp() string {
	help := []string{"↑/↓: Navigate", "Tab: Switch tabs", "Enter: Partner"}
	if m.tab == TabPipeline {
		help = append(help, "←/→: Move status", "g: Graph")
	} else {
		help = append(help, "d: Dismiss", "c: Complete")
	}
	help = append(help, "r: Refresh", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "tab":
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		m.selectedRow = 0
		m.status = ""
	case "r":
		return m, m.load()
	case "enter":
		if id, ok := m.selectedPartner(); ok {
			return m, m.loadDetail(id)
		}
	case "d":
		if m.tab == TabReminders {
			if id, ok := m.selectedPartner(); ok {
				return m, m.dismiss(id)
			}
		}
	case "c":
		if m.tab == TabReminders && m.selectedRow < len(m.reminders) {
			r := m.reminders[m.selectedRow]
			if r.ReminderID != nil {
				return m, m.complete(*r.ReminderID)
			}
			m.status = "Only custom reminders can be completed; use d to dismiss"
		}
	case "left", "h":
		if m.tab == TabPipeline {
			return m, m.shift(-1)
		}
	case "right", "l":
		if m.tab == TabPipeline {
			return m, m.shift(1)
		}
	case "g":
		if m.tab == TabPipeline {
			return m, m.generateGraph()
		}
	}
	return m, nil
}

func (m Model) selectedPartner() (uuid.UUID, bool) {
	switch m.tab {
	case TabReminders:
		if m.selectedRow < len(m.reminders) {
			return m.reminders[m.selectedRow].PartnerID, true
		}
	case TabPipeline:
		if m.selectedRow < len(m.cards) {
			return m.cards[m.selectedRow].PartnerID, true
		}
	}
	return uuid.Nil, false
}

func (m Model) dismiss(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.repo.DismissPartner(ctx, id, m.now()); err != nil {
			return errMsg{err}
		}
		p, err := m.repo.GetPartner(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return statusMsg(fmt.Sprintf("Dismissed %s for %d days", p.Name, p.NeedsAttentionDays))
	}
}

func (m Model) complete(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		rem, err := m.repo.CompleteReminder(context.Background(), id, m.now())
		if err != nil {
			return errMsg{err}
		}
		return statusMsg("Completed: " + rem.Title)
	}
}

// shift moves the selected card one column left or right in board order.
func (m Model) shift(delta int) tea.Cmd {
	if m.selectedRow >= len(m.cards) {
		return nil
	}
	card := m.cards[m.selectedRow]
	pos := -1
	for i, st := range models.IntegrationStatuses {
		if st == card.Status {
			pos = i
		}
	}
	target := pos + delta
	if pos < 0 || target < 0 || target >= len(models.IntegrationStatuses) {
		return nil
	}
	status := models.IntegrationStatuses[target]

	return func() tea.Msg {
		_, err := m.repo.MoveProduct(context.Background(), card.PartnerID, card.Product, status, card.Version)
		if errors.Is(err, db.ErrConflict) {
			return statusMsg(card.PartnerName + " changed elsewhere; board reloaded")
		}
		if err != nil {
			return errMsg{err}
		}
		return statusMsg(fmt.Sprintf("%s / %s → %s", card.PartnerName, card.Product, status))
	}
}

type graphMsg string

func (m Model) generateGraph() tea.Cmd {
	board := m.board
	return func() tea.Msg {
		dot, err := viz.GeneratePipelineGraph(context.Background(), board, viz.FormatDOT)
		if err != nil {
			return errMsg{err}
		}
		return graphMsg(dot)
	}
}
