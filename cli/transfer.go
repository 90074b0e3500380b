// ABOUTME: Export and import CLI commands
// ABOUTME: Writes the partner spreadsheet and bulk-loads partners from CSV or XLSX
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harperreed/prm/db"
	"github.com/harperreed/prm/export"
	"github.com/harperreed/prm/models"
)

// ExportCommand writes every partner to an XLSX file.
func ExportCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("output", "partners.xlsx", "Output file")
	_ = fs.Parse(args)
	ctx := context.Background()

	partners, err := repo.ListPartners(ctx, "")
	if err != nil {
		return err
	}
	if err := repo.AttachTags(ctx, partners); err != nil {
		return err
	}

	f, err := os.Create(*output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", *output, err)
	}
	if err := export.WriteXLSX(f, partners, time.Now().UTC()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "✓ Exported %d partner(s) to %s\n", len(partners), *output)
	return nil
}

// ImportCommand creates partners from a .csv or .xlsx file. Rows that fail to
// parse are reported and skipped.
func ImportCommand(repo *db.Repository, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Parse and report without writing")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("file path is required")
	}
	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var (
		partners []models.Partner
		rejected []export.RowError
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		partners, rejected, err = export.ParseCSV(f)
	case ".xlsx":
		partners, rejected, err = export.ParseXLSX(f)
	default:
		return fmt.Errorf("unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
	if err != nil {
		return err
	}

	for _, re := range rejected {
		_, _ = fmt.Fprintf(out, "✗ %s\n", re.Error())
	}
	if *dryRun {
		_, _ = fmt.Fprintf(out, "%d row(s) would be imported, %d rejected\n", len(partners), len(rejected))
		return nil
	}

	n, err := export.Import(context.Background(), repo, partners)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Imported %d partner(s), %d rejected\n", n, len(rejected))
	return nil
}
