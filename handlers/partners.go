// ABOUTME: Partner MCP tool handlers
// ABOUTME: Implements add_partner, find_partners, log_interaction and dismiss_partner tools
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

type PartnerHandlers struct {
	repo *db.Repository
}

func NewPartnerHandlers(repo *db.Repository) *PartnerHandlers {
	return &PartnerHandlers{repo: repo}
}

type PartnerOutput struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	HealthStatus       string   `json:"health_status"`
	KeyPerson          string   `json:"key_person,omitempty"`
	Vertical           string   `json:"vertical,omitempty"`
	NeedsAttentionDays int      `json:"needs_attention_days"`
	LastInteraction    *string  `json:"last_interaction,omitempty"`
	Attention          string   `json:"attention"`
	DaysSince          string   `json:"days_since"`
	Products           []string `json:"products"`
	Version            int64    `json:"version"`
}

func partnerToOutput(p *models.Partner, now time.Time) PartnerOutput {
	att := reminders.Evaluate(p, now)
	out := PartnerOutput{
		ID:                 p.ID.String(),
		Name:               p.Name,
		HealthStatus:       p.HealthStatus,
		KeyPerson:          p.KeyPerson(),
		Vertical:           p.Vertical,
		NeedsAttentionDays: p.NeedsAttentionDays,
		Attention:          string(att.Level),
		DaysSince:          att.DaysLabel(),
		Products:           make([]string, 0, len(p.IntegrationProducts)),
		Version:            p.Version,
	}
	if att.Excluded {
		out.Attention = "excluded"
	}
	if p.LastInteractionDate != nil {
		s := p.LastInteractionDate.Format("2006-01-02")
		out.LastInteraction = &s
	}
	for _, pi := range p.IntegrationProducts {
		out.Products = append(out.Products, pi.Product+": "+pi.Status)
	}
	return out
}

func parseID(field, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return id, nil
}

type AddPartnerInput struct {
	Name               string `json:"name" jsonschema:"Partner name (required)"`
	HealthStatus       string `json:"health_status,omitempty" jsonschema:"Active, AtRisk or Dormant (default Active)"`
	KeyPerson          string `json:"key_person,omitempty" jsonschema:"Team member responsible for the partner"`
	Vertical           string `json:"vertical,omitempty" jsonschema:"Industry vertical"`
	UseCase            string `json:"use_case,omitempty" jsonschema:"What the partner uses the product for"`
	NeedsAttentionDays int    `json:"needs_attention_days,omitempty" jsonschema:"Days without contact before the partner needs attention (default 30)"`
}

func (h *PartnerHandlers) AddPartner(ctx context.Context, request *mcp.CallToolRequest, input AddPartnerInput) (*mcp.CallToolResult, PartnerOutput, error) {
	if input.Name == "" {
		return nil, PartnerOutput{}, fmt.Errorf("name is required")
	}
	p := &models.Partner{
		Name:               input.Name,
		HealthStatus:       input.HealthStatus,
		Vertical:           input.Vertical,
		UseCase:            input.UseCase,
		NeedsAttentionDays: input.NeedsAttentionDays,
	}
	if input.KeyPerson != "" {
		p.KeyPersonID = &input.KeyPerson
	}
	if err := h.repo.CreatePartner(ctx, p); err != nil {
		return nil, PartnerOutput{}, fmt.Errorf("failed to create partner: %w", err)
	}
	return nil, partnerToOutput(p, nowUTC()), nil
}

type FindPartnersInput struct {
	Query        string `json:"query,omitempty" jsonschema:"Case-insensitive name search"`
	HealthStatus string `json:"health_status,omitempty" jsonschema:"Filter by health status"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 25)"`
}

type FindPartnersOutput struct {
	Partners []PartnerOutput `json:"partners"`
	Count    int             `json:"count"`
}

func (h *PartnerHandlers) FindPartners(ctx context.Context, request *mcp.CallToolRequest, input FindPartnersInput) (*mcp.CallToolResult, FindPartnersOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 25
	}
	partners, err := h.repo.ListPartners(ctx, input.Query)
	if err != nil {
		return nil, FindPartnersOutput{}, fmt.Errorf("failed to find partners: %w", err)
	}

	now := nowUTC()
	out := FindPartnersOutput{Partners: []PartnerOutput{}}
	for i := range partners {
		if input.HealthStatus != "" && partners[i].HealthStatus != input.HealthStatus {
			continue
		}
		if len(out.Partners) == limit {
			break
		}
		out.Partners = append(out.Partners, partnerToOutput(&partners[i], now))
	}
	out.Count = len(out.Partners)
	return nil, out, nil
}

type LogInteractionInput struct {
	PartnerID string `json:"partner_id" jsonschema:"Partner ID (required)"`
	Type      string `json:"type" jsonschema:"call, email or meeting"`
	Notes     string `json:"notes,omitempty" jsonschema:"What was discussed"`
	Date      string `json:"date,omitempty" jsonschema:"Interaction date as YYYY-MM-DD (default today)"`
}

type InteractionOutput struct {
	ID        string        `json:"id"`
	PartnerID string        `json:"partner_id"`
	Type      string        `json:"type"`
	Date      string        `json:"date"`
	Notes     string        `json:"notes,omitempty"`
	Partner   PartnerOutput `json:"partner"`
}

// LogInteraction records a touchpoint, which resets the partner's attention clock.
func (h *PartnerHandlers) LogInteraction(ctx context.Context, request *mcp.CallToolRequest, input LogInteractionInput) (*mcp.CallToolResult, InteractionOutput, error) {
	partnerID, err := parseID("partner_id", input.PartnerID)
	if err != nil {
		return nil, InteractionOutput{}, err
	}
	i := &models.Interaction{PartnerID: partnerID, Type: input.Type, Notes: input.Notes}
	if i.Type == "" {
		i.Type = models.InteractionMeeting
	}
	if input.Date != "" {
		i.Date, err = time.Parse("2006-01-02", input.Date)
		if err != nil {
			return nil, InteractionOutput{}, fmt.Errorf("invalid date: %w", err)
		}
	}
	if err := h.repo.CreateInteraction(ctx, i); err != nil {
		return nil, InteractionOutput{}, fmt.Errorf("failed to log interaction: %w", err)
	}

	p, err := h.repo.GetPartner(ctx, partnerID)
	if err != nil {
		return nil, InteractionOutput{}, err
	}
	return nil, InteractionOutput{
		ID:        i.ID.String(),
		PartnerID: partnerID.String(),
		Type:      i.Type,
		Date:      i.Date.Format("2006-01-02"),
		Notes:     i.Notes,
		Partner:   partnerToOutput(p, nowUTC()),
	}, nil
}

type DismissPartnerInput struct {
	PartnerID string `json:"partner_id" jsonschema:"Partner ID (required)"`
}

// DismissPartner snoozes a partner's attention reminder without logging an interaction.
func (h *PartnerHandlers) DismissPartner(ctx context.Context, request *mcp.CallToolRequest, input DismissPartnerInput) (*mcp.CallToolResult, PartnerOutput, error) {
	partnerID, err := parseID("partner_id", input.PartnerID)
	if err != nil {
		return nil, PartnerOutput{}, err
	}
	now := nowUTC()
	if err := h.repo.DismissPartner(ctx, partnerID, now); err != nil {
		return nil, PartnerOutput{}, fmt.Errorf("failed to dismiss partner: %w", err)
	}
	p, err := h.repo.GetPartner(ctx, partnerID)
	if err != nil {
		return nil, PartnerOutput{}, err
	}
	return nil, partnerToOutput(p, now), nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
