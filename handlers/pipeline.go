// ABOUTME: Pipeline MCP tool handlers
// ABOUTME: Implements get_pipeline and move_product over the partner x product board
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/metrics"
	"github.com/harperreed/prm/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PipelineHandlers struct {
	repo *db.Repository
}

func NewPipelineHandlers(repo *db.Repository) *PipelineHandlers {
	return &PipelineHandlers{repo: repo}
}

type GetPipelineInput struct {
	Search    string `json:"search,omitempty" jsonschema:"Partner name substring"`
	Vertical  string `json:"vertical,omitempty" jsonschema:"Exact vertical"`
	Product   string `json:"product,omitempty" jsonschema:"Exact product name"`
	KeyPerson string `json:"key_person,omitempty" jsonschema:"Exact key person"`
}

type PipelineCard struct {
	PartnerID   string `json:"partner_id"`
	PartnerName string `json:"partner_name"`
	Product     string `json:"product"`
	Version     int64  `json:"version"`
}

type PipelineColumn struct {
	Status string         `json:"status"`
	Count  int            `json:"count"`
	Cards  []PipelineCard `json:"cards"`
}

type GetPipelineOutput struct {
	Columns []PipelineColumn `json:"columns"`
	Total   int              `json:"total"`
}

func (h *PipelineHandlers) GetPipeline(ctx context.Context, request *mcp.CallToolRequest, input GetPipelineInput) (*mcp.CallToolResult, GetPipelineOutput, error) {
	partners, err := h.repo.ListPartners(ctx, "")
	if err != nil {
		return nil, GetPipelineOutput{}, fmt.Errorf("failed to fetch partners: %w", err)
	}
	board := pipeline.Build(partners, pipeline.Filter{
		Search:    input.Search,
		Vertical:  input.Vertical,
		Product:   input.Product,
		KeyPerson: input.KeyPerson,
	})

	out := GetPipelineOutput{Columns: make([]PipelineColumn, 0, len(board.Columns)), Total: board.Total}
	for _, col := range board.Columns {
		pc := PipelineColumn{Status: col.Status, Count: len(col.Items), Cards: make([]PipelineCard, 0, len(col.Items))}
		for _, it := range col.Items {
			pc.Cards = append(pc.Cards, PipelineCard{
				PartnerID:   it.PartnerID.String(),
				PartnerName: it.PartnerName,
				Product:     it.Product,
				Version:     it.Version,
			})
		}
		out.Columns = append(out.Columns, pc)
	}
	return nil, out, nil
}

type MoveProductInput struct {
	PartnerID string `json:"partner_id" jsonschema:"Partner ID (required)"`
	Product   string `json:"product" jsonschema:"Product name on the partner (required)"`
	Status    string `json:"status" jsonschema:"Target status, e.g. In pipeline, In development, Finished"`
	Version   int64  `json:"version,omitempty" jsonschema:"Partner version the move is based on; omit to skip the check"`
}

func (h *PipelineHandlers) MoveProduct(ctx context.Context, request *mcp.CallToolRequest, input MoveProductInput) (*mcp.CallToolResult, PartnerOutput, error) {
	partnerID, err := parseID("partner_id", input.PartnerID)
	if err != nil {
		return nil, PartnerOutput{}, err
	}
	if input.Product == "" {
		return nil, PartnerOutput{}, fmt.Errorf("product is required")
	}

	p, err := h.repo.MoveProduct(ctx, partnerID, input.Product, input.Status, input.Version)
	if err != nil {
		outcome := "failed"
		if errors.Is(err, db.ErrConflict) {
			outcome = "conflict"
		}
		metrics.PipelineMoves.WithLabelValues(outcome).Inc()
		return nil, PartnerOutput{}, fmt.Errorf("failed to move %s: %w", input.Product, err)
	}
	metrics.PipelineMoves.WithLabelValues("ok").Inc()
	return nil, partnerToOutput(p, nowUTC()), nil
}
