// ABOUTME: MCP prompt handlers for reusable partner workflow templates
// ABOUTME: Provides partner-summary, follow-up-plan and pipeline-review prompts
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/pipeline"
	"github.com/harperreed/prm/reminders"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	repo *db.Repository
}

func NewPromptHandlers(repo *db.Repository) *PromptHandlers {
	return &PromptHandlers{repo: repo}
}

// GetPrompt generates the prompt message for the named template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	switch request.Params.Name {
	case "partner-summary":
		return h.partnerSummary(ctx, args)
	case "follow-up-plan":
		return h.followUpPlan(ctx, args)
	case "pipeline-review":
		return h.pipelineReview(ctx, args)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func promptResult(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}

func (h *PromptHandlers) partnerSummary(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	raw, ok := args["partner_id"]
	if !ok {
		return nil, fmt.Errorf("partner_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid partner_id: %w", err)
	}
	p, err := h.repo.GetPartner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partner: %w", err)
	}
	detail, err := loadPartnerDetail(ctx, h.repo, id)
	if err != nil {
		return nil, err
	}
	att := reminders.Evaluate(p, nowUTC())

	var b strings.Builder
	b.WriteString("Please summarise the state of this partner relationship:\n\n")
	fmt.Fprintf(&b, "Partner: %s\n", p.Name)
	fmt.Fprintf(&b, "Health: %s\n", p.HealthStatus)
	if p.Vertical != "" {
		fmt.Fprintf(&b, "Vertical: %s\n", p.Vertical)
	}
	if p.UseCase != "" {
		fmt.Fprintf(&b, "Use case: %s\n", p.UseCase)
	}
	if kp := p.KeyPerson(); kp != "" {
		fmt.Fprintf(&b, "Key person: %s\n", kp)
	}
	fmt.Fprintf(&b, "Days since last touch: %s (threshold %d)\n", att.DaysLabel(), p.NeedsAttentionDays)

	if len(p.IntegrationProducts) > 0 {
		b.WriteString("\nProducts:\n")
		for _, pi := range p.IntegrationProducts {
			fmt.Fprintf(&b, "- %s: %s\n", pi.Product, pi.Status)
		}
	}
	if len(detail.Contacts) > 0 {
		b.WriteString("\nContacts:\n")
		for _, c := range detail.Contacts {
			fmt.Fprintf(&b, "- %s", c.Name)
			if c.Role != "" {
				fmt.Fprintf(&b, " (%s)", c.Role)
			}
			b.WriteString("\n")
		}
	}
	if len(detail.Interactions) > 0 {
		b.WriteString("\nRecent interactions:\n")
		for _, in := range detail.Interactions {
			fmt.Fprintf(&b, "- %s %s: %s\n", in.Date, in.Type, in.Notes)
		}
	}
	if len(detail.Reminders) > 0 {
		b.WriteString("\nOpen reminders:\n")
		for _, r := range detail.Reminders {
			fmt.Fprintf(&b, "- %s (due %s)\n", r.Title, r.DueDate)
		}
	}
	b.WriteString("\nHighlight risks to the relationship and the single most useful next step.")

	return promptResult(fmt.Sprintf("Summary of partner %s", p.Name), b.String()), nil
}

func (h *PromptHandlers) followUpPlan(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	partners, err := h.repo.ListPartners(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partners: %w", err)
	}
	pending, err := h.repo.ListPendingReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reminders: %w", err)
	}
	f := reminders.Filter{KeyPerson: args["key_person"]}
	list := f.Apply(reminders.Merge(partners, pending, nowUTC()))
	overdue, upcoming := reminders.Counts(list)

	var b strings.Builder
	fmt.Fprintf(&b, "I have %d overdue and %d upcoming partner reminders", overdue, upcoming)
	if f.KeyPerson != "" {
		fmt.Fprintf(&b, " for %s", f.KeyPerson)
	}
	b.WriteString(":\n\n")
	if len(list) == 0 {
		b.WriteString("(nothing due)\n")
	}
	for _, r := range list {
		fmt.Fprintf(&b, "- [%s] %s\n", r.Level, r.Summary())
	}
	b.WriteString("\nDraft a follow-up plan for this week. Order it by urgency and suggest a short outreach message for each overdue partner.")

	return promptResult("Weekly partner follow-up plan", b.String()), nil
}

func (h *PromptHandlers) pipelineReview(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	partners, err := h.repo.ListPartners(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partners: %w", err)
	}
	board := pipeline.Build(partners, pipeline.Filter{Product: args["product"]})

	var b strings.Builder
	b.WriteString("Here is the current integration pipeline")
	if p := args["product"]; p != "" {
		fmt.Fprintf(&b, " for %s", p)
	}
	b.WriteString(":\n")
	for _, col := range board.Columns {
		fmt.Fprintf(&b, "\n%s (%d)\n", col.Status, len(col.Items))
		for _, it := range col.Items {
			fmt.Fprintf(&b, "- %s / %s\n", it.PartnerName, it.Product)
		}
	}
	b.WriteString("\nIdentify integrations that look stuck and recommend which partners to push forward.")

	return promptResult("Integration pipeline review", b.String()), nil
}
