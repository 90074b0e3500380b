// ABOUTME: Tag database operations
// ABOUTME: Tag CRUD plus transactional replacement of a partner's tag set
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
)

const defaultTagColor = "gray"

func (r *Repository) CreateTag(ctx context.Context, tag *models.Tag) error {
	tag.Name = strings.TrimSpace(tag.Name)
	if tag.Name == "" {
		return fmt.Errorf("%w: tag name is required", ErrInvalid)
	}
	if tag.Color == "" {
		tag.Color = defaultTagColor
	}
	tag.ID = uuid.New()

	_, err := r.db.ExecContext(ctx, `INSERT INTO tags (id, name, color) VALUES (?, ?, ?)`,
		tag.ID.String(), tag.Name, tag.Color)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("%w: tag %q already exists", ErrInvalid, tag.Name)
	}
	return err
}

func (r *Repository) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM tags ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanTags(rows)
}

func scanTags(rows *sql.Rows) ([]models.Tag, error) {
	tags := make([]models.Tag, 0)
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *Repository) UpdateTag(ctx context.Context, tag *models.Tag) error {
	tag.Name = strings.TrimSpace(tag.Name)
	if tag.Name == "" {
		return fmt.Errorf("%w: tag name is required", ErrInvalid)
	}
	if tag.Color == "" {
		tag.Color = defaultTagColor
	}
	result, err := r.db.ExecContext(ctx, `UPDATE tags SET name = ?, color = ? WHERE id = ?`,
		tag.Name, tag.Color, tag.ID.String())
	if err != nil {
		return err
	}
	return expectAffected(result, "tag", tag.ID)
}

func (r *Repository) DeleteTag(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM partner_tags WHERE tag_id = ?`, id.String()); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if err := expectAffected(result, "tag", id); err != nil {
		return err
	}
	return tx.Commit()
}

// SetPartnerTags replaces a partner's tags with exactly tagIDs. Any unknown
// tag rolls the whole replacement back.
func (r *Repository) SetPartnerTags(ctx context.Context, partnerID uuid.UUID, tagIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM partners WHERE id = ?`, partnerID.String()).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("partner %s: %w", partnerID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM partner_tags WHERE partner_id = ?`, partnerID.String()); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM tags WHERE id = ?`, tagID.String()).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("tag %s: %w", tagID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO partner_tags (partner_id, tag_id) VALUES (?, ?)
		`, partnerID.String(), tagID.String()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) ListPartnerTags(ctx context.Context, partnerID uuid.UUID) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color
		FROM tags t JOIN partner_tags pt ON pt.tag_id = t.id
		WHERE pt.partner_id = ?
		ORDER BY t.name COLLATE NOCASE
	`, partnerID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanTags(rows)
}

// AttachTags fills Tags on every partner in place with one query.
func (r *Repository) AttachTags(ctx context.Context, partners []models.Partner) error {
	if len(partners) == 0 {
		return nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT pt.partner_id, t.id, t.name, t.color
		FROM partner_tags pt JOIN tags t ON t.id = pt.tag_id
		ORDER BY t.name COLLATE NOCASE
	`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	byPartner := make(map[uuid.UUID][]models.Tag)
	for rows.Next() {
		var partnerID uuid.UUID
		var t models.Tag
		if err := rows.Scan(&partnerID, &t.ID, &t.Name, &t.Color); err != nil {
			return err
		}
		byPartner[partnerID] = append(byPartner[partnerID], t)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range partners {
		partners[i].Tags = byPartner[partners[i].ID]
	}
	return nil
}
