// ABOUTME: Tests for spreadsheet export and partner import
// ABOUTME: Round-trips an exported workbook through excelize and parses CSV edge cases
package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestWriteXLSX(t *testing.T) {
	dana := "Dana"
	last := now.AddDate(0, 0, -12)
	partners := []models.Partner{
		{
			ID: uuid.New(), Name: "Acme", HealthStatus: models.HealthActive, KeyPersonID: &dana,
			NeedsAttentionDays: 30, LastInteractionDate: &last,
			IntegrationProducts: []models.ProductIntegration{
				{Product: "API", Status: models.StatusInPipeline},
				{Product: "SDK", Status: models.StatusFinished},
			},
			Tags: []models.Tag{{Name: "strategic"}},
		},
		{ID: uuid.New(), Name: "Initech", HealthStatus: models.HealthDormant, NeedsAttentionDays: 30},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, partners, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(partnersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, partnerHeaders, rows[0])
	assert.Equal(t, "Acme", rows[1][0])
	assert.Equal(t, "2026-03-03", rows[1][6])
	assert.Equal(t, "12", rows[1][7])
	assert.Equal(t, "good", rows[1][8])
	assert.Equal(t, "API:In pipeline; SDK:Finished", rows[1][9])
	assert.Equal(t, "strategic", rows[1][10])
	assert.Equal(t, "Never", rows[2][7])
	assert.Equal(t, "excluded", rows[2][8])

	pipe, err := f.GetRows(pipelineSheet)
	require.NoError(t, err)
	require.Len(t, pipe, 3)
	assert.Equal(t, []string{"Acme", "SDK", "Finished", "Active", "Dana"}, pipe[2][:5])
}

func TestParseCSV(t *testing.T) {
	input := `name,Vertical,key_person,health,needs_attention_days,products
Acme,Retail,Dana,AtRisk,14,"API:In pipeline; SDK"
,,,,,
Globex,,,,,
Bad Health,,,Thriving,,
Bad Days,,,,zero,
Bad Product,,,,,API:Live
`
	partners, rowErrs, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, partners, 2)
	acme := partners[0]
	assert.Equal(t, "Acme", acme.Name)
	assert.Equal(t, "Retail", acme.Vertical)
	assert.Equal(t, "Dana", acme.KeyPerson())
	assert.Equal(t, models.HealthAtRisk, acme.HealthStatus)
	assert.Equal(t, 14, acme.NeedsAttentionDays)
	assert.Equal(t, []models.ProductIntegration{
		{Product: "API", Status: models.StatusInPipeline},
		{Product: "SDK", Status: models.StatusNo},
	}, acme.IntegrationProducts)

	assert.Equal(t, models.HealthActive, partners[1].HealthStatus)
	assert.Empty(t, partners[1].IntegrationProducts)

	require.Len(t, rowErrs, 3)
	assert.Equal(t, 5, rowErrs[0].Row)
	assert.Equal(t, 6, rowErrs[1].Row)
	assert.Equal(t, 7, rowErrs[2].Row)
}

func TestParseCSVRequiresNameColumn(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("vertical\nRetail\n"))
	assert.Error(t, err)

	_, _, err = ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseXLSXRoundTrip(t *testing.T) {
	partners := []models.Partner{{
		Name: "Acme", HealthStatus: models.HealthActive, NeedsAttentionDays: 30,
		IntegrationProducts: []models.ProductIntegration{{Product: "API", Status: models.StatusOnHold}},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, partners, now))

	// The export header uses display names; the importer normalises them.
	parsed, rowErrs, err := ParseXLSX(&buf)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, parsed, 1)
	assert.Equal(t, "Acme", parsed[0].Name)
	assert.Equal(t, partners[0].IntegrationProducts, parsed[0].IntegrationProducts)
}

type recordingCreator struct {
	names []string
}

func (r *recordingCreator) CreatePartner(_ context.Context, p *models.Partner) error {
	r.names = append(r.names, p.Name)
	return nil
}

func TestImport(t *testing.T) {
	store := &recordingCreator{}
	n, err := Import(context.Background(), store, []models.Partner{{Name: "A"}, {Name: "B"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"A", "B"}, store.names)
}
