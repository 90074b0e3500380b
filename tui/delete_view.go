// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Handles deletion of a partner and everything attached to it behind a confirmation dialog
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	if m.detail == nil {
		return ""
	}
	p := m.detail.partner

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := "Are you sure you want to delete this partner?"
	entityInfo := fmt.Sprintf("\nPARTNER: %s\n", p.Name)
	warning := fmt.Sprintf("\n%d contact(s), interactions and reminders go with it.\nThis action cannot be undone!",
		len(m.detail.contacts))

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		strings.TrimRight(entityInfo, "\n"),
		warning,
		"",
		buttons,
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		p := m.detail.partner
		m.viewMode = ViewList
		m.detail = nil
		return m, m.deletePartner(p.ID, p.Name)
	case "n", "N", "esc":
		m.viewMode = ViewDetail
	}

	return m, nil
}

func (m Model) deletePartner(id uuid.UUID, name string) tea.Cmd {
	return func() tea.Msg {
		if err := m.repo.DeletePartner(context.Background(), id); err != nil {
			return errMsg{err}
		}
		return statusMsg("Deleted " + name)
	}
}
