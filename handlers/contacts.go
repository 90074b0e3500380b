// ABOUTME: Partner contact MCP tool handlers
// ABOUTME: Implements add_contact and list_contacts for people at partner organisations
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ContactHandlers struct {
	repo *db.Repository
}

func NewContactHandlers(repo *db.Repository) *ContactHandlers {
	return &ContactHandlers{repo: repo}
}

type AddContactInput struct {
	PartnerID string `json:"partner_id" jsonschema:"Partner ID (required)"`
	Name      string `json:"name" jsonschema:"Contact name (required)"`
	Email     string `json:"email,omitempty" jsonschema:"Contact email address"`
	Phone     string `json:"phone,omitempty" jsonschema:"Contact phone number"`
	Role      string `json:"role,omitempty" jsonschema:"Job title or role at the partner"`
	Notes     string `json:"notes,omitempty" jsonschema:"Additional notes about the contact"`
}

type ContactOutput struct {
	ID        string `json:"id"`
	PartnerID string `json:"partner_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func contactToOutput(c *models.Contact) ContactOutput {
	return ContactOutput{
		ID:        c.ID.String(),
		PartnerID: c.PartnerID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Role:      c.Role,
		Notes:     c.Notes,
	}
}

func (h *ContactHandlers) AddContact(ctx context.Context, request *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	partnerID, err := parseID("partner_id", input.PartnerID)
	if err != nil {
		return nil, ContactOutput{}, err
	}
	if input.Name == "" {
		return nil, ContactOutput{}, fmt.Errorf("name is required")
	}

	c := &models.Contact{
		PartnerID: partnerID,
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      input.Role,
		Notes:     input.Notes,
	}
	if err := h.repo.CreateContact(ctx, c); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return nil, contactToOutput(c), nil
}

type ListContactsInput struct {
	PartnerID string `json:"partner_id" jsonschema:"Partner ID (required)"`
}

type ListContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

func (h *ContactHandlers) ListContacts(ctx context.Context, request *mcp.CallToolRequest, input ListContactsInput) (*mcp.CallToolResult, ListContactsOutput, error) {
	partnerID, err := parseID("partner_id", input.PartnerID)
	if err != nil {
		return nil, ListContactsOutput{}, err
	}
	contacts, err := h.repo.ListContacts(ctx, partnerID)
	if err != nil {
		return nil, ListContactsOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}

	out := ListContactsOutput{Contacts: make([]ContactOutput, len(contacts))}
	for i := range contacts {
		out.Contacts[i] = contactToOutput(&contacts[i])
	}
	return nil, out, nil
}
