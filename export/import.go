// ABOUTME: Partner import from CSV or XLSX files
// ABOUTME: Parses rows into partners, collecting per-row errors instead of failing the whole file
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/harperreed/prm/models"
	"github.com/xuri/excelize/v2"
)

// ImportColumns is the expected header, in any order. Only name is required.
var ImportColumns = []string{"name", "vertical", "use_case", "key_person", "health", "needs_attention_days", "products"}

// RowError reports a rejected input row (1-based, header is row 1).
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Err)
}

// FormatProducts renders products as "API:In pipeline; SDK:Finished".
func FormatProducts(products []models.ProductIntegration) string {
	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, p.Product+":"+p.Status)
	}
	return strings.Join(parts, "; ")
}

// ParseProductsCell is the inverse of FormatProducts. A bare product name
// gets status "No".
func ParseProductsCell(cell string) ([]models.ProductIntegration, error) {
	out := make([]models.ProductIntegration, 0)
	for _, part := range strings.Split(cell, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		product, status, found := strings.Cut(part, ":")
		product = strings.TrimSpace(product)
		status = strings.TrimSpace(status)
		if !found || status == "" {
			status = models.StatusNo
		}
		if product == "" {
			return nil, fmt.Errorf("empty product name in %q", part)
		}
		if !models.IsValidIntegrationStatus(status) {
			return nil, fmt.Errorf("unknown status %q for %s", status, product)
		}
		out = append(out, models.ProductIntegration{Product: product, Status: status})
	}
	return out, nil
}

// ParseCSV reads partners from CSV.
func ParseCSV(r io.Reader) ([]models.Partner, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return parseRows(records)
}

// ParseXLSX reads partners from the first sheet of a workbook.
func ParseXLSX(r io.Reader) ([]models.Partner, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]models.Partner, []RowError, error) {
	if len(rows) == 0 {
		return nil, nil, errors.New("file is empty")
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		index[key] = i
	}
	if _, ok := index["name"]; !ok {
		return nil, nil, errors.New("missing required column: name")
	}

	get := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	partners := make([]models.Partner, 0, len(rows)-1)
	var rowErrs []RowError
	for n, row := range rows[1:] {
		line := n + 2
		name := get(row, "name")
		if name == "" {
			if isBlank(row) {
				continue
			}
			rowErrs = append(rowErrs, RowError{Row: line, Err: "name is required"})
			continue
		}

		p := models.Partner{
			Name:         name,
			Vertical:     get(row, "vertical"),
			UseCase:      get(row, "use_case"),
			HealthStatus: models.HealthActive,
		}
		if kp := get(row, "key_person"); kp != "" {
			p.KeyPersonID = &kp
		}
		if h := get(row, "health"); h != "" {
			if !models.IsValidHealthStatus(h) {
				rowErrs = append(rowErrs, RowError{Row: line, Err: fmt.Sprintf("unknown health %q", h)})
				continue
			}
			p.HealthStatus = h
		}
		if d := get(row, "needs_attention_days"); d != "" {
			days, err := strconv.Atoi(d)
			if err != nil || days <= 0 {
				rowErrs = append(rowErrs, RowError{Row: line, Err: fmt.Sprintf("bad needs_attention_days %q", d)})
				continue
			}
			p.NeedsAttentionDays = days
		}
		products, err := ParseProductsCell(get(row, "products"))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: line, Err: err.Error()})
			continue
		}
		p.IntegrationProducts = products

		partners = append(partners, p)
	}
	return partners, rowErrs, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// PartnerCreator persists imported partners.
type PartnerCreator interface {
	CreatePartner(ctx context.Context, p *models.Partner) error
}

// Import creates every parsed partner, stopping at the first storage error.
func Import(ctx context.Context, store PartnerCreator, partners []models.Partner) (int, error) {
	for i := range partners {
		if err := store.CreatePartner(ctx, &partners[i]); err != nil {
			return i, fmt.Errorf("failed to create %s: %w", partners[i].Name, err)
		}
	}
	return len(partners), nil
}
