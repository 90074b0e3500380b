// ABOUTME: Visualization MCP handlers
// ABOUTME: Provides generate_graph and get_dashboard tools for agents
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/pipeline"
	"github.com/harperreed/prm/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	repo *db.Repository
}

func NewVizHandlers(repo *db.Repository) *VizHandlers {
	return &VizHandlers{repo: repo}
}

type GenerateGraphInput struct {
	Product  string `json:"product,omitempty" jsonschema:"Only include this product"`
	Vertical string `json:"vertical,omitempty" jsonschema:"Only include partners in this vertical"`
}

type GenerateGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	partners, err := h.repo.ListPartners(ctx, "")
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to fetch partners: %w", err)
	}
	board := pipeline.Build(partners, pipeline.Filter{Product: input.Product, Vertical: input.Vertical})

	dot, err := viz.GeneratePipelineGraph(ctx, board, viz.FormatDOT)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	nodes := make(map[string]bool)
	for _, col := range board.Columns {
		for _, it := range col.Items {
			nodes["partner:"+it.PartnerID.String()] = true
			nodes["product:"+it.Product] = true
		}
	}
	return nil, GenerateGraphOutput{
		DOTSource: dot,
		NodeCount: len(nodes),
		EdgeCount: board.Total,
	}, nil
}

type GetDashboardInput struct{}

type GetDashboardOutput struct {
	Stats *viz.DashboardStats `json:"stats"`
	Text  string              `json:"text"`
}

func (h *VizHandlers) GetDashboard(ctx context.Context, request *mcp.CallToolRequest, input GetDashboardInput) (*mcp.CallToolResult, GetDashboardOutput, error) {
	stats, err := viz.GenerateDashboardStats(ctx, h.repo, nowUTC())
	if err != nil {
		return nil, GetDashboardOutput{}, err
	}
	return nil, GetDashboardOutput{Stats: stats, Text: viz.RenderDashboard(stats)}, nil
}
