// ABOUTME: Graphviz rendering of the integration pipeline
// ABOUTME: Partners link to product nodes with edges coloured by integration status
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/pipeline"
)

var statusColors = map[string]string{
	models.StatusNo:            "gray70",
	models.StatusInPipeline:    "steelblue",
	models.StatusInDevelopment: "darkorange",
	models.StatusFinished:      "forestgreen",
	models.StatusOnHold:        "goldenrod",
	models.StatusCancelled:     "firebrick",
	models.StatusNotInterested: "gray40",
}

var healthColors = map[string]string{
	models.HealthActive:  "palegreen",
	models.HealthAtRisk:  "khaki",
	models.HealthDormant: "lightgray",
}

// Format selects the graph output.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
)

// GeneratePipelineGraph renders the filtered board as a graph.
func GeneratePipelineGraph(ctx context.Context, board pipeline.Board, format Format) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel("Integration pipeline")
	graph.SetRankDir(cgraph.LRRank)

	partnerNodes := make(map[string]*cgraph.Node)
	productNodes := make(map[string]*cgraph.Node)

	for _, col := range board.Columns {
		for _, it := range col.Items {
			pKey := "partner_" + it.PartnerID.String()
			pn, ok := partnerNodes[pKey]
			if !ok {
				pn, err = graph.CreateNodeByName(pKey)
				if err != nil {
					return "", fmt.Errorf("failed to create partner node: %w", err)
				}
				pn.SetLabel(it.PartnerName)
				pn.SetShape("box")
				pn.SetStyle("filled")
				pn.SetFillColor(colorOr(healthColors, it.HealthStatus, "white"))
				partnerNodes[pKey] = pn
			}

			prKey := "product_" + it.Product
			prn, ok := productNodes[prKey]
			if !ok {
				prn, err = graph.CreateNodeByName(prKey)
				if err != nil {
					return "", fmt.Errorf("failed to create product node: %w", err)
				}
				prn.SetLabel(it.Product)
				prn.SetShape("ellipse")
				prn.SetStyle("filled")
				prn.SetFillColor("lightblue")
				productNodes[prKey] = prn
			}

			edge, err := graph.CreateEdgeByName(it.Status, pn, prn)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(it.Status)
			edge.SetColor(colorOr(statusColors, it.Status, "black"))
			if it.Status == models.StatusCancelled || it.Status == models.StatusNotInterested {
				edge.SetStyle("dashed")
			}
		}
	}

	gvFormat := graphviz.XDOT
	if format == FormatSVG {
		gvFormat = graphviz.SVG
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

func colorOr(m map[string]string, key, fallback string) string {
	if c, ok := m[key]; ok {
		return c
	}
	return fallback
}
