// ABOUTME: MCP resource handlers for exposing PRM data
// ABOUTME: Provides read-only access to partners, reminders and the pipeline via prm:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/pipeline"
	"github.com/harperreed/prm/reminders"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "prm://"

type ResourceHandlers struct {
	repo *db.Repository
}

func NewResourceHandlers(repo *db.Repository) *ResourceHandlers {
	return &ResourceHandlers{repo: repo}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "partners":
		if len(parts) == 1 || parts[1] == "" {
			return h.readAllPartners(ctx, uri)
		}
		return h.readPartner(ctx, uri, parts[1])
	case "reminders":
		return h.readReminders(ctx, uri)
	case "pipeline":
		return h.readPipeline(ctx, uri)
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readAllPartners(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	partners, err := h.repo.ListPartners(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partners: %w", err)
	}
	now := nowUTC()
	out := make([]PartnerOutput, len(partners))
	for i := range partners {
		out[i] = partnerToOutput(&partners[i], now)
	}
	return jsonResource(uri, out)
}

type partnerDetail struct {
	PartnerOutput
	UseCase      string                 `json:"use_case,omitempty"`
	Contacts     []ContactOutput        `json:"contacts"`
	Interactions []InteractionOutput    `json:"recent_interactions"`
	Reminders    []CustomReminderOutput `json:"open_reminders"`
	Tags         []TagOutput            `json:"tags"`
}

func (h *ResourceHandlers) readPartner(ctx context.Context, uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid partner ID: %w", err)
	}
	p, err := h.repo.GetPartner(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partner: %w", err)
	}
	detail, err := loadPartnerDetail(ctx, h.repo, p.ID)
	if err != nil {
		return nil, err
	}
	detail.PartnerOutput = partnerToOutput(p, nowUTC())
	detail.UseCase = p.UseCase
	return jsonResource(uri, detail)
}

// loadPartnerDetail gathers the related records shown with a single partner.
func loadPartnerDetail(ctx context.Context, repo *db.Repository, id uuid.UUID) (*partnerDetail, error) {
	contacts, err := repo.ListContacts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	interactions, err := repo.ListInteractions(ctx, id, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interactions: %w", err)
	}
	open, err := repo.ListReminders(ctx, id, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reminders: %w", err)
	}
	tags, err := repo.ListPartnerTags(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}

	d := &partnerDetail{
		Contacts:     make([]ContactOutput, len(contacts)),
		Interactions: make([]InteractionOutput, len(interactions)),
		Reminders:    make([]CustomReminderOutput, len(open)),
		Tags:         tagsToOutput(tags),
	}
	for i := range contacts {
		d.Contacts[i] = contactToOutput(&contacts[i])
	}
	for i, in := range interactions {
		d.Interactions[i] = InteractionOutput{
			ID:        in.ID.String(),
			PartnerID: in.PartnerID.String(),
			Type:      in.Type,
			Date:      in.Date.Format("2006-01-02"),
			Notes:     in.Notes,
		}
	}
	for i := range open {
		d.Reminders[i] = customToOutput(&open[i])
	}
	return d, nil
}

func (h *ResourceHandlers) readReminders(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	partners, err := h.repo.ListPartners(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partners: %w", err)
	}
	pending, err := h.repo.ListPendingReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reminders: %w", err)
	}
	merged := reminders.Merge(partners, pending, nowUTC())
	out := make([]ReminderOutput, len(merged))
	for i, r := range merged {
		out[i] = reminderToOutput(r)
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readPipeline(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	partners, err := h.repo.ListPartners(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partners: %w", err)
	}
	return jsonResource(uri, pipeline.Build(partners, pipeline.Filter{}))
}
