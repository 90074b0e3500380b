// ABOUTME: Contact database operations
// ABOUTME: Handles CRUD for people who work at a partner organisation
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
)

func (r *Repository) CreateContact(ctx context.Context, contact *models.Contact) error {
	if strings.TrimSpace(contact.Name) == "" {
		return fmt.Errorf("%w: contact name is required", ErrInvalid)
	}
	if _, err := r.GetPartner(ctx, contact.PartnerID); err != nil {
		return err
	}

	contact.ID = uuid.New()
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, partner_id, name, email, phone, role, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, contact.ID.String(), contact.PartnerID.String(), contact.Name, contact.Email, contact.Phone,
		contact.Role, contact.Notes, contact.CreatedAt, contact.UpdatedAt)

	return err
}

func (r *Repository) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	contact := &models.Contact{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, partner_id, name, email, phone, role, notes, created_at, updated_at
		FROM contacts WHERE id = ?
	`, id.String()).Scan(
		&contact.ID,
		&contact.PartnerID,
		&contact.Name,
		&contact.Email,
		&contact.Phone,
		&contact.Role,
		&contact.Notes,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// ListContacts returns the contacts of one partner ordered by name.
func (r *Repository) ListContacts(ctx context.Context, partnerID uuid.UUID) ([]models.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, partner_id, name, email, phone, role, notes, created_at, updated_at
		FROM contacts WHERE partner_id = ?
		ORDER BY name COLLATE NOCASE
	`, partnerID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	contacts := make([]models.Contact, 0)
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.PartnerID, &c.Name, &c.Email, &c.Phone, &c.Role, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *Repository) UpdateContact(ctx context.Context, contact *models.Contact) error {
	if strings.TrimSpace(contact.Name) == "" {
		return fmt.Errorf("%w: contact name is required", ErrInvalid)
	}
	contact.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE contacts SET name = ?, email = ?, phone = ?, role = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, contact.Name, contact.Email, contact.Phone, contact.Role, contact.Notes, contact.UpdatedAt, contact.ID.String())
	if err != nil {
		return err
	}
	return expectAffected(result, "contact", contact.ID)
}

func (r *Repository) DeleteContact(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return expectAffected(result, "contact", id)
}

// expectAffected turns a zero-row write into ErrNotFound.
func expectAffected(result sql.Result, kind string, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
