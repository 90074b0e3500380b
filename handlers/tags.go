// ABOUTME: Tag MCP tool handlers
// ABOUTME: Implements list_tags and tag_partner
package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type TagHandlers struct {
	repo *db.Repository
}

func NewTagHandlers(repo *db.Repository) *TagHandlers {
	return &TagHandlers{repo: repo}
}

type ListTagsInput struct{}

type TagOutput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ListTagsOutput struct {
	Tags []TagOutput `json:"tags"`
}

func tagsToOutput(tags []models.Tag) []TagOutput {
	out := make([]TagOutput, len(tags))
	for i, t := range tags {
		out[i] = TagOutput{ID: t.ID.String(), Name: t.Name, Color: t.Color}
	}
	return out
}

func (h *TagHandlers) ListTags(ctx context.Context, request *mcp.CallToolRequest, input ListTagsInput) (*mcp.CallToolResult, ListTagsOutput, error) {
	tags, err := h.repo.ListTags(ctx)
	if err != nil {
		return nil, ListTagsOutput{}, fmt.Errorf("failed to list tags: %w", err)
	}
	return nil, ListTagsOutput{Tags: tagsToOutput(tags)}, nil
}

type TagPartnerInput struct {
	PartnerID string   `json:"partner_id" jsonschema:"Partner ID (required)"`
	Tags      []string `json:"tags" jsonschema:"Tag names to set on the partner; replaces existing tags"`
}

// TagPartner replaces a partner's tags by name. Unknown names are rejected.
func (h *TagHandlers) TagPartner(ctx context.Context, request *mcp.CallToolRequest, input TagPartnerInput) (*mcp.CallToolResult, ListTagsOutput, error) {
	partnerID, err := parseID("partner_id", input.PartnerID)
	if err != nil {
		return nil, ListTagsOutput{}, err
	}
	all, err := h.repo.ListTags(ctx)
	if err != nil {
		return nil, ListTagsOutput{}, fmt.Errorf("failed to list tags: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(all))
	for _, t := range all {
		byName[t.Name] = t.ID
	}

	ids := make([]uuid.UUID, 0, len(input.Tags))
	for _, name := range input.Tags {
		id, ok := byName[name]
		if !ok {
			return nil, ListTagsOutput{}, fmt.Errorf("unknown tag %q", name)
		}
		ids = append(ids, id)
	}
	if err := h.repo.SetPartnerTags(ctx, partnerID, ids); err != nil {
		return nil, ListTagsOutput{}, fmt.Errorf("failed to tag partner: %w", err)
	}

	tags, err := h.repo.ListPartnerTags(ctx, partnerID)
	if err != nil {
		return nil, ListTagsOutput{}, err
	}
	return nil, ListTagsOutput{Tags: tagsToOutput(tags)}, nil
}
