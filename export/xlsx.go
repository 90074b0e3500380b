// ABOUTME: Spreadsheet export of partners and their product pipeline
// ABOUTME: Writes a Partners sheet and a Pipeline sheet with styled, frozen headers
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/pipeline"
	"github.com/harperreed/prm/reminders"
	"github.com/xuri/excelize/v2"
)

const (
	partnersSheet = "Partners"
	pipelineSheet = "Pipeline"
)

var partnerHeaders = []string{
	"Name", "Health", "Key Person", "Vertical", "Use Case", "Attention Days",
	"Last Interaction", "Days Since", "Attention", "Products", "Tags",
}

var pipelineHeaders = []string{"Partner", "Product", "Status", "Health", "Key Person", "Vertical"}

// WriteXLSX writes the workbook for partners to w. now drives the attention columns.
func WriteXLSX(w io.Writer, partners []models.Partner, now time.Time) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", partnersSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(pipelineSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(f, partnersSheet, partnerHeaders, headerStyle); err != nil {
		return err
	}
	for i := range partners {
		p := &partners[i]
		att := reminders.Evaluate(p, now)

		last := ""
		if p.LastInteractionDate != nil {
			last = p.LastInteractionDate.Format("2006-01-02")
		}
		level := string(att.Level)
		days := att.DaysLabel()
		if att.Excluded {
			level = "excluded"
			days = "Never"
			if touch := reminders.LastTouch(p); touch != nil {
				days = strconv.Itoa(reminders.DaysBetween(*touch, now))
			}
		}

		row := []interface{}{
			p.Name, p.HealthStatus, p.KeyPerson(), p.Vertical, p.UseCase, p.NeedsAttentionDays,
			last, days, level, FormatProducts(p.IntegrationProducts), tagNames(p.Tags),
		}
		if err := writeRow(f, partnersSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeHeader(f, pipelineSheet, pipelineHeaders, headerStyle); err != nil {
		return err
	}
	for i, it := range pipeline.Flatten(partners) {
		row := []interface{}{it.PartnerName, it.Product, it.Status, it.HealthStatus, it.KeyPerson, it.Vertical}
		if err := writeRow(f, pipelineSheet, i+2, row); err != nil {
			return err
		}
	}

	for _, sheet := range []string{partnersSheet, pipelineSheet} {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze panes: %w", err)
		}
	}
	if err := f.SetColWidth(partnersSheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(partnersSheet, "J", "J", 40); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func tagNames(tags []models.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}
