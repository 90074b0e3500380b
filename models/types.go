// ABOUTME: Data models for PRM entities
// ABOUTME: Defines Partner, Interaction, CustomReminder, Tag, User, Workgroup and related enums
package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultNeedsAttentionDays is used when a partner is created without a threshold.
const DefaultNeedsAttentionDays = 30

type Partner struct {
	ID                  uuid.UUID            `json:"id"`
	Name                string               `json:"name"`
	HealthStatus        string               `json:"health_status"`
	KeyPersonID         *string              `json:"key_person_id,omitempty"`
	OwnerID             *uuid.UUID           `json:"owner_id,omitempty"`
	NeedsAttentionDays  int                  `json:"needs_attention_days"`
	LastInteractionDate *time.Time           `json:"last_interaction_date,omitempty"`
	DismissedAt         *time.Time           `json:"dismissed_at,omitempty"`
	IntegrationProducts []ProductIntegration `json:"integration_products"`
	Vertical            string               `json:"vertical,omitempty"`
	UseCase             string               `json:"use_case,omitempty"`
	LogoURL             string               `json:"logo_url,omitempty"`
	Version             int64                `json:"version"`
	Tags                []Tag                `json:"tags,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// KeyPerson returns the assigned team member name, or "" when unassigned.
func (p *Partner) KeyPerson() string {
	if p.KeyPersonID == nil {
		return ""
	}
	return *p.KeyPersonID
}

// Health status constants.
const (
	HealthActive  = "Active"
	HealthAtRisk  = "AtRisk"
	HealthDormant = "Dormant"
)

// HealthStatuses lists every valid health status.
var HealthStatuses = []string{HealthActive, HealthAtRisk, HealthDormant}

func IsValidHealthStatus(s string) bool {
	for _, h := range HealthStatuses {
		if h == s {
			return true
		}
	}
	return false
}

// Contact is a person at a partner organisation.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	PartnerID uuid.UUID `json:"partner_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InteractionType constants.
const (
	InteractionCall    = "call"
	InteractionEmail   = "email"
	InteractionMeeting = "meeting"
)

func IsValidInteractionType(s string) bool {
	return s == InteractionCall || s == InteractionEmail || s == InteractionMeeting
}

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Interaction struct {
	ID          uuid.UUID    `json:"id"`
	PartnerID   uuid.UUID    `json:"partner_id"`
	Date        time.Time    `json:"date"`
	Notes       string       `json:"notes,omitempty"`
	Type        string       `json:"type"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"created_at"`
}

type CustomReminder struct {
	ID          uuid.UUID  `json:"id"`
	PartnerID   uuid.UUID  `json:"partner_id"`
	Title       string     `json:"title"`
	DueDate     time.Time  `json:"due_date"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type Tag struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

// Role constants.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
	RoleSales = "Sales"
)

func IsValidRole(s string) bool {
	return s == RoleAdmin || s == RoleUser || s == RoleSales
}

type User struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	LinkedKeyPerson *string   `json:"linked_key_person,omitempty"`
	PasswordHash    string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

type Workgroup struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	MemberIDs []uuid.UUID `json:"member_ids"`
	CreatedAt time.Time   `json:"created_at"`
}

// PushSubscription is a browser push endpoint registered by a user.
type PushSubscription struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}
