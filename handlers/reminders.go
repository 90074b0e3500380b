// ABOUTME: Reminder MCP tool handlers
// ABOUTME: Implements list_reminders, add_reminder and complete_reminder over the merged reminder list
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/reminders"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ReminderHandlers struct {
	repo *db.Repository
}

func NewReminderHandlers(repo *db.Repository) *ReminderHandlers {
	return &ReminderHandlers{repo: repo}
}

type ListRemindersInput struct {
	Level     string `json:"level,omitempty" jsonschema:"Filter by level: overdue or upcoming"`
	Kind      string `json:"kind,omitempty" jsonschema:"Filter by kind: attention or custom"`
	PartnerID string `json:"partner_id,omitempty" jsonschema:"Only reminders for this partner"`
	KeyPerson string `json:"key_person,omitempty" jsonschema:"Only partners owned by this key person"`
}

type ReminderOutput struct {
	Kind          string  `json:"kind"`
	Level         string  `json:"level"`
	PartnerID     string  `json:"partner_id"`
	PartnerName   string  `json:"partner_name"`
	KeyPerson     string  `json:"key_person,omitempty"`
	Summary       string  `json:"summary"`
	DaysRemaining *int    `json:"days_remaining,omitempty"`
	ReminderID    *string `json:"reminder_id,omitempty"`
}

type ListRemindersOutput struct {
	Reminders []ReminderOutput `json:"reminders"`
	Overdue   int              `json:"overdue"`
	Upcoming  int              `json:"upcoming"`
}

func reminderToOutput(r reminders.Reminder) ReminderOutput {
	out := ReminderOutput{
		Kind:        string(r.Kind),
		Level:       string(r.Level),
		PartnerID:   r.PartnerID.String(),
		PartnerName: r.PartnerName,
		KeyPerson:   r.KeyPerson,
		Summary:     r.Summary(),
	}
	if !r.Never {
		days := r.DaysRemaining
		out.DaysRemaining = &days
	}
	if r.ReminderID != nil {
		id := r.ReminderID.String()
		out.ReminderID = &id
	}
	return out
}

func (h *ReminderHandlers) ListReminders(ctx context.Context, request *mcp.CallToolRequest, input ListRemindersInput) (*mcp.CallToolResult, ListRemindersOutput, error) {
	f := reminders.Filter{
		Level:     reminders.Level(input.Level),
		Kind:      reminders.Kind(input.Kind),
		KeyPerson: input.KeyPerson,
	}
	if err := f.Validate(); err != nil {
		return nil, ListRemindersOutput{}, err
	}
	if input.PartnerID != "" {
		id, err := uuid.Parse(input.PartnerID)
		if err != nil {
			return nil, ListRemindersOutput{}, fmt.Errorf("invalid partner_id: %w", err)
		}
		f.PartnerID = &id
	}

	partners, err := h.repo.ListPartners(ctx, "")
	if err != nil {
		return nil, ListRemindersOutput{}, fmt.Errorf("failed to fetch partners: %w", err)
	}
	pending, err := h.repo.ListPendingReminders(ctx)
	if err != nil {
		return nil, ListRemindersOutput{}, fmt.Errorf("failed to fetch reminders: %w", err)
	}

	list := f.Apply(reminders.Merge(partners, pending, nowUTC()))
	out := ListRemindersOutput{Reminders: make([]ReminderOutput, 0, len(list))}
	for _, r := range list {
		out.Reminders = append(out.Reminders, reminderToOutput(r))
	}
	out.Overdue, out.Upcoming = reminders.Counts(list)
	return nil, out, nil
}

type AddReminderInput struct {
	PartnerID string `json:"partner_id" jsonschema:"Partner ID (required)"`
	Title     string `json:"title" jsonschema:"What needs to happen (required)"`
	DueDate   string `json:"due_date" jsonschema:"Due date as YYYY-MM-DD (required)"`
}

type CustomReminderOutput struct {
	ID          string  `json:"id"`
	PartnerID   string  `json:"partner_id"`
	Title       string  `json:"title"`
	DueDate     string  `json:"due_date"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

func customToOutput(r *models.CustomReminder) CustomReminderOutput {
	out := CustomReminderOutput{
		ID:        r.ID.String(),
		PartnerID: r.PartnerID.String(),
		Title:     r.Title,
		DueDate:   r.DueDate.Format("2006-01-02"),
		Completed: r.Completed,
	}
	if r.CompletedAt != nil {
		s := r.CompletedAt.Format(time.RFC3339)
		out.CompletedAt = &s
	}
	return out
}

func (h *ReminderHandlers) AddReminder(ctx context.Context, request *mcp.CallToolRequest, input AddReminderInput) (*mcp.CallToolResult, CustomReminderOutput, error) {
	partnerID, err := parseID("partner_id", input.PartnerID)
	if err != nil {
		return nil, CustomReminderOutput{}, err
	}
	if input.Title == "" {
		return nil, CustomReminderOutput{}, fmt.Errorf("title is required")
	}
	due, err := time.Parse("2006-01-02", input.DueDate)
	if err != nil {
		return nil, CustomReminderOutput{}, fmt.Errorf("invalid due_date: %w", err)
	}

	rem := &models.CustomReminder{PartnerID: partnerID, Title: input.Title, DueDate: due}
	if err := h.repo.CreateReminder(ctx, rem); err != nil {
		return nil, CustomReminderOutput{}, fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil, customToOutput(rem), nil
}

type CompleteReminderInput struct {
	ReminderID string `json:"reminder_id" jsonschema:"Reminder ID (required)"`
}

func (h *ReminderHandlers) CompleteReminder(ctx context.Context, request *mcp.CallToolRequest, input CompleteReminderInput) (*mcp.CallToolResult, CustomReminderOutput, error) {
	id, err := parseID("reminder_id", input.ReminderID)
	if err != nil {
		return nil, CustomReminderOutput{}, err
	}
	rem, err := h.repo.CompleteReminder(ctx, id, nowUTC())
	if err != nil {
		return nil, CustomReminderOutput{}, fmt.Errorf("failed to complete reminder: %w", err)
	}
	return nil, customToOutput(rem), nil
}
