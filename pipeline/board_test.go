// ABOUTME: Tests for the pipeline board aggregator
// ABOUTME: Covers flattening, fixed column order, composed filters and status moves
package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixturePartners() []models.Partner {
	dana := "Dana"
	lee := "Lee"
	return []models.Partner{
		{
			ID: uuid.New(), Name: "Acme Corp", HealthStatus: models.HealthActive, Vertical: "Retail", KeyPersonID: &dana,
			IntegrationProducts: []models.ProductIntegration{
				{Product: "API", Status: models.StatusInPipeline},
				{Product: "SDK", Status: models.StatusFinished},
			},
		},
		{
			ID: uuid.New(), Name: "Globex", HealthStatus: models.HealthAtRisk, Vertical: "Finance", KeyPersonID: &lee,
			IntegrationProducts: []models.ProductIntegration{
				{Product: "API", Status: models.StatusNotInterested},
			},
		},
		{
			ID: uuid.New(), Name: "Initech", HealthStatus: models.HealthDormant, Vertical: "Retail",
			IntegrationProducts: []models.ProductIntegration{},
		},
	}
}

func TestFlatten(t *testing.T) {
	partners := fixturePartners()
	items := Flatten(partners)

	require.Len(t, items, 3)
	assert.Equal(t, "Acme Corp", items[0].PartnerName)
	assert.Equal(t, "API", items[0].Product)
	assert.Equal(t, "Dana", items[0].KeyPerson)
	assert.Equal(t, "Retail", items[0].Vertical)
	assert.Equal(t, models.HealthActive, items[0].HealthStatus)
	assert.Equal(t, "SDK", items[1].Product)
	assert.Equal(t, "Globex", items[2].PartnerName)
}

func TestGroupFixedColumnOrder(t *testing.T) {
	board := Build(fixturePartners(), Filter{})

	var order []string
	for _, c := range board.Columns {
		order = append(order, c.Status)
	}
	assert.Equal(t, []string{
		"No", "In pipeline", "In development", "Finished", "On hold", "Cancelled", "Not interested",
	}, order)
	assert.Equal(t, 3, board.Total)
	assert.Len(t, board.Column(models.StatusInPipeline).Items, 1)
	assert.Len(t, board.Column(models.StatusFinished).Items, 1)
	assert.Len(t, board.Column(models.StatusNotInterested).Items, 1)
	assert.NotNil(t, board.Column(models.StatusOnHold).Items)
	assert.Empty(t, board.Column(models.StatusOnHold).Items)
	assert.Nil(t, board.Column("Bogus"))
}

func TestGroupSkipsUnknownStatus(t *testing.T) {
	board := Group([]Item{{Product: "X", Status: "Shipped"}})
	assert.Equal(t, 0, board.Total)
}

func TestFiltersCompose(t *testing.T) {
	partners := fixturePartners()

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"search case insensitive", Filter{Search: "acme"}, 2},
		{"search trims", Filter{Search: "  glob "}, 1},
		{"vertical", Filter{Vertical: "Retail"}, 2},
		{"product", Filter{Product: "API"}, 2},
		{"key person", Filter{KeyPerson: "Lee"}, 1},
		{"vertical and product", Filter{Vertical: "Retail", Product: "API"}, 1},
		{"no match", Filter{Vertical: "Finance", KeyPerson: "Dana"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(partners, tt.filter).Total)
		})
	}
}

func TestSetStatusTouchesOnlyOneEntry(t *testing.T) {
	products := []models.ProductIntegration{
		{Product: "API", Status: models.StatusInPipeline},
		{Product: "SDK", Status: models.StatusOnHold},
		{Product: "Webhooks", Status: models.StatusNo},
	}

	moved, err := SetStatus(products, "API", models.StatusFinished)
	require.NoError(t, err)

	assert.Equal(t, []models.ProductIntegration{
		{Product: "API", Status: models.StatusFinished},
		{Product: "SDK", Status: models.StatusOnHold},
		{Product: "Webhooks", Status: models.StatusNo},
	}, moved)
	assert.Equal(t, models.StatusInPipeline, products[0].Status, "input must not be mutated")
}

func TestSetStatusErrors(t *testing.T) {
	products := []models.ProductIntegration{{Product: "API", Status: models.StatusNo}}

	_, err := SetStatus(products, "SDK", models.StatusFinished)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = SetStatus(products, "API", "Done")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestProducts(t *testing.T) {
	assert.Equal(t, []string{"API", "SDK"}, Products(fixturePartners()))
}
