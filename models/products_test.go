// ABOUTME: Tests for the product integration list codec
// ABOUTME: Covers malformed input tolerance and the round-trip law
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseProductsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
	}{
		{"nil", nil},
		{"empty", strPtr("")},
		{"whitespace", strPtr("   ")},
		{"broken json", strPtr("{not json")},
		{"object instead of array", strPtr(`{"product":"API","status":"No"}`)},
		{"null literal", strPtr("null")},
		{"wrong element types", strPtr(`[1, 2, 3]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseProducts(tt.raw)
			require.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestParseProductsDropsInvalidEntries(t *testing.T) {
	raw := `[
		{"product":"API","status":"In pipeline"},
		{"product":"","status":"Finished"},
		{"product":"SDK","status":"Shipped"},
		{"product":"Webhooks","status":"On hold"}
	]`

	got := ParseProducts(&raw)

	assert.Equal(t, []ProductIntegration{
		{Product: "API", Status: StatusInPipeline},
		{Product: "Webhooks", Status: StatusOnHold},
	}, got)
}

func TestProductsRoundTrip(t *testing.T) {
	lists := [][]ProductIntegration{
		{},
		{{Product: "API", Status: StatusNo}},
		{
			{Product: "API", Status: StatusFinished},
			{Product: "SDK", Status: StatusInDevelopment},
			{Product: "Data feed \"v2\"", Status: StatusNotInterested},
			{Product: "Résumé", Status: StatusCancelled},
		},
	}

	for _, list := range lists {
		encoded := SerializeProducts(list)
		decoded := ParseProducts(&encoded)
		assert.Equal(t, list, decoded)

		again := SerializeProducts(decoded)
		assert.Equal(t, encoded, again)
	}
}

func TestSerializeProductsNil(t *testing.T) {
	assert.Equal(t, "[]", SerializeProducts(nil))
}

func TestIntegrationStatusOrder(t *testing.T) {
	assert.Equal(t, []string{
		"No", "In pipeline", "In development", "Finished", "On hold", "Cancelled", "Not interested",
	}, IntegrationStatuses)
	assert.True(t, IsValidIntegrationStatus("On hold"))
	assert.False(t, IsValidIntegrationStatus("on hold"))
}

func TestPartnerKeyPerson(t *testing.T) {
	p := &Partner{}
	assert.Equal(t, "", p.KeyPerson())

	p.KeyPersonID = strPtr("Dana")
	assert.Equal(t, "Dana", p.KeyPerson())
}
