// ABOUTME: Interaction database operations
// ABOUTME: Logs calls, emails and meetings against partners; the newest date drives attention
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
)

func encodeAttachments(list []models.Attachment) (string, error) {
	if list == nil {
		list = []models.Attachment{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeAttachments(raw string) []models.Attachment {
	var list []models.Attachment
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		return []models.Attachment{}
	}
	return list
}

func validateInteraction(i *models.Interaction) error {
	if !models.IsValidInteractionType(i.Type) {
		return fmt.Errorf("%w: unknown interaction type %q", ErrInvalid, i.Type)
	}
	if i.Date.IsZero() {
		return fmt.Errorf("%w: interaction date is required", ErrInvalid)
	}
	return nil
}

// CreateInteraction logs a touchpoint. The partner's derived last interaction
// date follows automatically.
func (r *Repository) CreateInteraction(ctx context.Context, i *models.Interaction) error {
	if i.Date.IsZero() {
		i.Date = time.Now()
	}
	if err := validateInteraction(i); err != nil {
		return err
	}
	if _, err := r.GetPartner(ctx, i.PartnerID); err != nil {
		return err
	}

	attachments, err := encodeAttachments(i.Attachments)
	if err != nil {
		return err
	}

	i.ID = uuid.New()
	i.Date = i.Date.UTC()
	i.CreatedAt = time.Now().UTC()
	if i.Attachments == nil {
		i.Attachments = []models.Attachment{}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO interactions (id, partner_id, date, notes, type, attachments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, i.ID.String(), i.PartnerID.String(), i.Date, i.Notes, i.Type, attachments, i.CreatedAt)
	return err
}

func scanInteraction(row rowScanner) (*models.Interaction, error) {
	var i models.Interaction
	var attachments string
	if err := row.Scan(&i.ID, &i.PartnerID, &i.Date, &i.Notes, &i.Type, &attachments, &i.CreatedAt); err != nil {
		return nil, err
	}
	i.Date = i.Date.UTC()
	i.Attachments = decodeAttachments(attachments)
	return &i, nil
}

func (r *Repository) GetInteraction(ctx context.Context, id uuid.UUID) (*models.Interaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, partner_id, date, notes, type, attachments, created_at
		FROM interactions WHERE id = ?
	`, id.String())
	i, err := scanInteraction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("interaction %s: %w", id, ErrNotFound)
	}
	return i, err
}

// ListInteractions returns a partner's interactions newest first. limit <= 0
// returns all of them.
func (r *Repository) ListInteractions(ctx context.Context, partnerID uuid.UUID, limit int) ([]models.Interaction, error) {
	query := `
		SELECT id, partner_id, date, notes, type, attachments, created_at
		FROM interactions WHERE partner_id = ?
		ORDER BY date DESC, created_at DESC
	`
	args := []any{partnerID.String()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	interactions := make([]models.Interaction, 0)
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, *i)
	}
	return interactions, rows.Err()
}

// CountInteractionsSince counts interactions across all partners dated at or after since.
func (r *Repository) CountInteractionsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions WHERE date >= ?`, since.UTC()).Scan(&n)
	return n, err
}

func (r *Repository) UpdateInteraction(ctx context.Context, i *models.Interaction) error {
	if err := validateInteraction(i); err != nil {
		return err
	}
	attachments, err := encodeAttachments(i.Attachments)
	if err != nil {
		return err
	}
	i.Date = i.Date.UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE interactions SET date = ?, notes = ?, type = ?, attachments = ? WHERE id = ?
	`, i.Date, i.Notes, i.Type, attachments, i.ID.String())
	if err != nil {
		return err
	}
	return expectAffected(result, "interaction", i.ID)
}

func (r *Repository) DeleteInteraction(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM interactions WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return expectAffected(result, "interaction", id)
}
