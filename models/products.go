// ABOUTME: Product integration list stored as a JSON text column on partners
// ABOUTME: Tolerant decoding that never fails, plus the inverse serializer
package models

import (
	"encoding/json"
	"strings"
)

// Integration status constants, in board column order.
const (
	StatusNo            = "No"
	StatusInPipeline    = "In pipeline"
	StatusInDevelopment = "In development"
	StatusFinished      = "Finished"
	StatusOnHold        = "On hold"
	StatusCancelled     = "Cancelled"
	StatusNotInterested = "Not interested"
)

// IntegrationStatuses is the fixed column order of the pipeline board.
var IntegrationStatuses = []string{
	StatusNo,
	StatusInPipeline,
	StatusInDevelopment,
	StatusFinished,
	StatusOnHold,
	StatusCancelled,
	StatusNotInterested,
}

type ProductIntegration struct {
	Product string `json:"product"`
	Status  string `json:"status"`
}

func IsValidIntegrationStatus(s string) bool {
	for _, st := range IntegrationStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ParseProducts decodes a stored product list. It never fails: nil, blank or
// undecodable input yields an empty list, and entries without a product name or
// with an unknown status are dropped.
func ParseProducts(raw *string) []ProductIntegration {
	products := []ProductIntegration{}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return products
	}

	var decoded []ProductIntegration
	if err := json.Unmarshal([]byte(*raw), &decoded); err != nil {
		return products
	}

	for _, p := range decoded {
		if p.Product == "" || !IsValidIntegrationStatus(p.Status) {
			continue
		}
		products = append(products, p)
	}
	return products
}

// SerializeProducts encodes a product list for storage.
func SerializeProducts(products []ProductIntegration) string {
	if products == nil {
		products = []ProductIntegration{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		// two plain strings per entry cannot fail to marshal
		return "[]"
	}
	return string(data)
}
