// ABOUTME: TUI partner detail view
// ABOUTME: Shows one partner with products, contacts, open reminders and recent interactions
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/reminders"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

type partnerDetail struct {
	partner      *models.Partner
	attention    reminders.Attention
	contacts     []models.Contact
	interactions []models.Interaction
	open         []models.CustomReminder
}

type detailMsg struct{ detail *partnerDetail }

func (m Model) loadDetail(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		p, err := m.repo.GetPartner(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		d := &partnerDetail{partner: p, attention: reminders.Evaluate(p, m.now())}
		if d.contacts, err = m.repo.ListContacts(ctx, id); err != nil {
			return errMsg{err}
		}
		if d.interactions, err = m.repo.ListInteractions(ctx, id, 10); err != nil {
			return errMsg{err}
		}
		if d.open, err = m.repo.ListReminders(ctx, id, false); err != nil {
			return errMsg{err}
		}
		return detailMsg{d}
	}
}

func (m Model) renderDetailView() string {
	var s strings.Builder

	if m.detail == nil {
		return "Loading..."
	}
	p := m.detail.partner

	s.WriteString(titleStyle.Render(strings.ToUpper(p.Name)))
	s.WriteString("\n\n")

	s.WriteString(m.renderField("Health", p.HealthStatus))
	s.WriteString(m.renderField("Key person", p.KeyPerson()))
	s.WriteString(m.renderField("Vertical", p.Vertical))
	s.WriteString(m.renderField("Use case", p.UseCase))
	s.WriteString(m.renderField("Days since touch", fmt.Sprintf("%s (threshold %d)", m.detail.attention.DaysLabel(), p.NeedsAttentionDays)))
	if !m.detail.attention.Excluded {
		s.WriteString(m.renderField("Attention", string(m.detail.attention.Level)))
	}

	if len(p.IntegrationProducts) > 0 {
		s.WriteString("\n")
		s.WriteString(fieldLabelStyle.Render("Products"))
		s.WriteString("\n")
		for _, pi := range p.IntegrationProducts {
			s.WriteString(fmt.Sprintf("  • %s: %s\n", pi.Product, pi.Status))
		}
	}

	if len(m.detail.contacts) > 0 {
		s.WriteString("\n")
		s.WriteString(fieldLabelStyle.Render("Contacts"))
		s.WriteString("\n")
		for _, c := range m.detail.contacts {
			s.WriteString(fmt.Sprintf("  • %s %s %s\n", c.Name, c.Role, c.Email))
		}
	}

	if len(m.detail.open) > 0 {
		s.WriteString("\n")
		s.WriteString(fieldLabelStyle.Render("Open reminders"))
		s.WriteString("\n")
		for _, r := range m.detail.open {
			s.WriteString(fmt.Sprintf("  • %s (due %s)\n", r.Title, r.DueDate.Format("2006-01-02")))
		}
	}

	if len(m.detail.interactions) > 0 {
		s.WriteString("\n")
		s.WriteString(fieldLabelStyle.Render("Recent interactions"))
		s.WriteString("\n")
		for _, in := range m.detail.interactions {
			s.WriteString(fmt.Sprintf("  • %s %s: %s\n", in.Date.Format("2006-01-02"), in.Type, in.Notes))
		}
	}

	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())
	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"d: Dismiss",
		"x: Delete",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "q":
		m.viewMode = ViewList
		m.detail = nil
	case "d":
		id := m.detail.partner.ID
		m.viewMode = ViewList
		m.detail = nil
		return m, m.dismiss(id)
	case "x":
		m.viewMode = ViewConfirmDelete
	}
	return m, nil
}
