// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and pipeline graph generation commands
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/pipeline"
	"github.com/harperreed/prm/viz"
)

// VizGraphPipelineCommand generates the partner x product pipeline graph.
func VizGraphPipelineCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("viz graph pipeline", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "Output format (dot, svg)")
	product := fs.String("product", "", "Only include this product")
	vertical := fs.String("vertical", "", "Only include partners in this vertical")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != string(viz.FormatDOT) && *format != string(viz.FormatSVG) {
		return fmt.Errorf("unknown format %q", *format)
	}

	ctx := context.Background()
	partners, err := repo.ListPartners(ctx, "")
	if err != nil {
		return err
	}
	board := pipeline.Build(partners, pipeline.Filter{Product: *product, Vertical: *vertical})

	graph, err := viz.GeneratePipelineGraph(ctx, board, viz.Format(*format))
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(graph), 0644)
	}

	_, _ = fmt.Fprintln(out, graph)
	return nil
}

func VizDashboardCommand(repo *db.Repository, args []string) error {
	stats, err := viz.GenerateDashboardStats(context.Background(), repo, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to generate dashboard stats: %w", err)
	}

	_, _ = fmt.Fprint(out, viz.RenderDashboard(stats))
	return nil
}
