// ABOUTME: Pipeline aggregator flattening partners x products into kanban board columns
// ABOUTME: Provides filtering, fixed-order grouping and single-entry status moves
package pipeline

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
)

var (
	ErrProductNotFound = errors.New("product not found on partner")
	ErrInvalidStatus   = errors.New("invalid integration status")
)

// Item is one (partner, product) card on the board.
type Item struct {
	PartnerID    uuid.UUID `json:"partner_id"`
	PartnerName  string    `json:"partner_name"`
	HealthStatus string    `json:"health_status"`
	Vertical     string    `json:"vertical,omitempty"`
	KeyPerson    string    `json:"key_person,omitempty"`
	Version      int64     `json:"version"`
	Product      string    `json:"product"`
	Status       string    `json:"status"`
}

// Column is one status lane.
type Column struct {
	Status string `json:"status"`
	Items  []Item `json:"items"`
}

// Board holds every column in fixed status order.
type Board struct {
	Columns []Column `json:"columns"`
	Total   int      `json:"total"`
}

// Flatten produces one item per (partner, product) pair, in partner then product order.
func Flatten(partners []models.Partner) []Item {
	items := make([]Item, 0)
	for _, p := range partners {
		for _, pi := range p.IntegrationProducts {
			items = append(items, Item{
				PartnerID:    p.ID,
				PartnerName:  p.Name,
				HealthStatus: p.HealthStatus,
				Vertical:     p.Vertical,
				KeyPerson:    p.KeyPerson(),
				Version:      p.Version,
				Product:      pi.Product,
				Status:       pi.Status,
			})
		}
	}
	return items
}

// Filter holds independent predicates; empty fields match everything.
type Filter struct {
	Search    string
	Vertical  string
	Product   string
	KeyPerson string
}

func (f Filter) Match(it Item) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(it.PartnerName), strings.ToLower(strings.TrimSpace(f.Search))) {
		return false
	}
	if f.Vertical != "" && it.Vertical != f.Vertical {
		return false
	}
	if f.Product != "" && it.Product != f.Product {
		return false
	}
	if f.KeyPerson != "" && it.KeyPerson != f.KeyPerson {
		return false
	}
	return true
}

// Group buckets items into the fixed column order. Every column is present,
// even when empty. Items with an unknown status are not placed.
func Group(items []Item) Board {
	index := make(map[string]int, len(models.IntegrationStatuses))
	board := Board{Columns: make([]Column, len(models.IntegrationStatuses))}
	for i, status := range models.IntegrationStatuses {
		index[status] = i
		board.Columns[i] = Column{Status: status, Items: []Item{}}
	}

	for _, it := range items {
		i, ok := index[it.Status]
		if !ok {
			continue
		}
		board.Columns[i].Items = append(board.Columns[i].Items, it)
		board.Total++
	}
	return board
}

// Build flattens, filters and groups in one step.
func Build(partners []models.Partner, f Filter) Board {
	var kept []Item
	for _, it := range Flatten(partners) {
		if f.Match(it) {
			kept = append(kept, it)
		}
	}
	return Group(kept)
}

// Column returns the lane for status, or nil.
func (b Board) Column(status string) *Column {
	for i := range b.Columns {
		if b.Columns[i].Status == status {
			return &b.Columns[i]
		}
	}
	return nil
}

// SetStatus returns a copy of products with only the named product's status
// changed. The input slice is not modified.
func SetStatus(products []models.ProductIntegration, product, status string) ([]models.ProductIntegration, error) {
	if !models.IsValidIntegrationStatus(status) {
		return nil, ErrInvalidStatus
	}

	out := make([]models.ProductIntegration, len(products))
	copy(out, products)
	for i := range out {
		if out[i].Product == product {
			out[i].Status = status
			return out, nil
		}
	}
	return nil, ErrProductNotFound
}

// Products lists the distinct product names across partners, in first-seen order.
func Products(partners []models.Partner) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range partners {
		for _, pi := range p.IntegrationProducts {
			if !seen[pi.Product] {
				seen[pi.Product] = true
				names = append(names, pi.Product)
			}
		}
	}
	return names
}
