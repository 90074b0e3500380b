// ABOUTME: Partner database operations
// ABOUTME: CRUD, dismissal, transactional bulk delete and version-checked product list writes
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/prm/models"
	"github.com/harperreed/prm/pipeline"
)

const partnerColumns = `
	p.id, p.name, p.health_status, p.key_person_id, p.owner_id, p.needs_attention_days,
	p.dismissed_at, p.integration_products, p.vertical, p.use_case, p.logo_url,
	p.version, p.created_at, p.updated_at,
	(SELECT MAX(i.date) FROM interactions i WHERE i.partner_id = p.id)
`

func scanPartner(row rowScanner) (*models.Partner, error) {
	var p models.Partner
	var keyPerson sql.NullString
	var owner uuid.NullUUID
	var products sql.NullString
	var lastInteraction sql.NullString

	err := row.Scan(
		&p.ID, &p.Name, &p.HealthStatus, &keyPerson, &owner, &p.NeedsAttentionDays,
		&p.DismissedAt, &products, &p.Vertical, &p.UseCase, &p.LogoURL,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
		&lastInteraction,
	)
	if err != nil {
		return nil, err
	}

	if keyPerson.Valid {
		p.KeyPersonID = &keyPerson.String
	}
	if owner.Valid {
		p.OwnerID = &owner.UUID
	}
	if products.Valid {
		p.IntegrationProducts = models.ParseProducts(&products.String)
	} else {
		p.IntegrationProducts = models.ParseProducts(nil)
	}
	p.LastInteractionDate, err = parseTimestamp(lastInteraction)
	if err != nil {
		return nil, err
	}
	p.DismissedAt = utcPtr(p.DismissedAt)

	return &p, nil
}

func validatePartner(p *models.Partner) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if p.HealthStatus == "" {
		p.HealthStatus = models.HealthActive
	}
	if !models.IsValidHealthStatus(p.HealthStatus) {
		return fmt.Errorf("%w: unknown health status %q", ErrInvalid, p.HealthStatus)
	}
	if p.NeedsAttentionDays == 0 {
		p.NeedsAttentionDays = models.DefaultNeedsAttentionDays
	}
	if p.NeedsAttentionDays < 0 {
		return fmt.Errorf("%w: needs_attention_days must be positive", ErrInvalid)
	}
	for _, pi := range p.IntegrationProducts {
		if pi.Product == "" || !models.IsValidIntegrationStatus(pi.Status) {
			return fmt.Errorf("%w: bad product entry %q/%q", ErrInvalid, pi.Product, pi.Status)
		}
	}
	return nil
}

func ownerParam(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

// CreatePartner inserts a new partner and assigns its ID and version.
func (r *Repository) CreatePartner(ctx context.Context, p *models.Partner) error {
	if err := validatePartner(p); err != nil {
		return err
	}

	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1
	if p.IntegrationProducts == nil {
		p.IntegrationProducts = []models.ProductIntegration{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO partners (
			id, name, health_status, key_person_id, owner_id, needs_attention_days,
			dismissed_at, integration_products, vertical, use_case, logo_url,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID.String(), p.Name, p.HealthStatus, nullableString(p.KeyPersonID), ownerParam(p.OwnerID),
		p.NeedsAttentionDays, utcPtr(p.DismissedAt), models.SerializeProducts(p.IntegrationProducts),
		p.Vertical, p.UseCase, p.LogoURL, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetPartner loads one partner with its derived last interaction date.
func (r *Repository) GetPartner(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+partnerColumns+` FROM partners p WHERE p.id = ?`, id.String())
	p, err := scanPartner(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("partner %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListPartners returns every partner ordered by name. A non-empty search
// matches case-insensitively against the name.
func (r *Repository) ListPartners(ctx context.Context, search string) ([]models.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners p`
	var args []any
	if search != "" {
		query += ` WHERE LOWER(p.name) LIKE ? ESCAPE '\'`
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(search))+"%")
	}
	query += ` ORDER BY p.name COLLATE NOCASE, p.created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	partners := make([]models.Partner, 0)
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, *p)
	}
	return partners, rows.Err()
}

// UpdatePartner writes every editable field, guarded by p.Version. On success
// p.Version holds the new version.
func (r *Repository) UpdatePartner(ctx context.Context, p *models.Partner) error {
	if err := validatePartner(p); err != nil {
		return err
	}

	p.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE partners
		SET name = ?, health_status = ?, key_person_id = ?, owner_id = ?, needs_attention_days = ?,
		    dismissed_at = ?, integration_products = ?, vertical = ?, use_case = ?, logo_url = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`,
		p.Name, p.HealthStatus, nullableString(p.KeyPersonID), ownerParam(p.OwnerID), p.NeedsAttentionDays,
		utcPtr(p.DismissedAt), models.SerializeProducts(p.IntegrationProducts), p.Vertical, p.UseCase, p.LogoURL,
		p.UpdatedAt, p.ID.String(), p.Version,
	)
	if err != nil {
		return err
	}
	if err := r.checkVersionedWrite(ctx, result, p.ID); err != nil {
		return err
	}
	p.Version++
	return nil
}

// checkVersionedWrite distinguishes a missing row from a stale version.
func (r *Repository) checkVersionedWrite(ctx context.Context, result sql.Result, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM partners WHERE id = ?`, id.String()).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("partner %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("partner %s: %w", id, ErrConflict)
}

// DismissPartner records a manual snooze, which resets the attention clock.
func (r *Repository) DismissPartner(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE partners SET dismissed_at = ?, version = version + 1, updated_at = ? WHERE id = ?
	`, at.UTC(), time.Now().UTC(), id.String())
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("partner %s: %w", id, ErrNotFound)
	}
	return nil
}

// deletePartnerTx removes a partner and everything it owns inside tx.
func deletePartnerTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (bool, error) {
	for _, stmt := range []string{
		`DELETE FROM partner_tags WHERE partner_id = ?`,
		`DELETE FROM custom_reminders WHERE partner_id = ?`,
		`DELETE FROM interactions WHERE partner_id = ?`,
		`DELETE FROM contacts WHERE partner_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id.String()); err != nil {
			return false, err
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM partners WHERE id = ?`, id.String())
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeletePartner removes a partner with its contacts, interactions, reminders and tag links.
func (r *Repository) DeletePartner(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	found, err := deletePartnerTx(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to delete partner: %w", err)
	}
	if !found {
		return fmt.Errorf("partner %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// BulkDeletePartners deletes every listed partner or none of them.
func (r *Repository) BulkDeletePartners(ctx context.Context, ids []uuid.UUID) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleted := 0
	for _, id := range ids {
		found, err := deletePartnerTx(ctx, tx, id)
		if err != nil {
			return 0, fmt.Errorf("failed to delete partner %s: %w", id, err)
		}
		if !found {
			return 0, fmt.Errorf("partner %s: %w", id, ErrNotFound)
		}
		deleted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return deleted, nil
}

// MoveProduct changes the status of one product on a partner. The whole
// product list is read, patched and written back inside one transaction with
// a version check, so a concurrent edit surfaces as ErrConflict instead of
// being silently overwritten. expectedVersion of 0 skips the caller-side check.
func (r *Repository) MoveProduct(ctx context.Context, id uuid.UUID, product, status string, expectedVersion int64) (*models.Partner, error) {
	err := r.rewriteProducts(ctx, id, expectedVersion, func(raw sql.NullString) (string, error) {
		return patchStoredProduct(raw, product, status)
	})
	if err != nil {
		return nil, err
	}
	return r.GetPartner(ctx, id)
}

// patchStoredProduct rewrites only the stored entry for product. Entries that
// ParseProducts would drop are copied through untouched, so a move never
// loses data the reader cannot interpret.
func patchStoredProduct(raw sql.NullString, product, status string) (string, error) {
	var entries []json.RawMessage
	if raw.Valid && strings.TrimSpace(raw.String) != "" {
		if err := json.Unmarshal([]byte(raw.String), &entries); err != nil {
			entries = nil
		}
	}

	readable := make([]models.ProductIntegration, 0, len(entries))
	positions := make([]int, 0, len(entries))
	for i, e := range entries {
		var pi models.ProductIntegration
		if json.Unmarshal(e, &pi) != nil || pi.Product == "" || !models.IsValidIntegrationStatus(pi.Status) {
			continue
		}
		readable = append(readable, pi)
		positions = append(positions, i)
	}

	next, err := pipeline.SetStatus(readable, product, status)
	if err != nil {
		return "", err
	}
	for i := range next {
		if next[i] != readable[i] {
			patched, err := json.Marshal(next[i])
			if err != nil {
				return "", err
			}
			entries[positions[i]] = patched
			break
		}
	}
	if entries == nil {
		entries = []json.RawMessage{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetPartnerProducts replaces the whole product list.
func (r *Repository) SetPartnerProducts(ctx context.Context, id uuid.UUID, products []models.ProductIntegration, expectedVersion int64) (*models.Partner, error) {
	for _, p := range products {
		if p.Product == "" || !models.IsValidIntegrationStatus(p.Status) {
			return nil, fmt.Errorf("%w: bad product entry %q/%q", ErrInvalid, p.Product, p.Status)
		}
	}
	err := r.rewriteProducts(ctx, id, expectedVersion, func(sql.NullString) (string, error) {
		return models.SerializeProducts(products), nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetPartner(ctx, id)
}

// rewriteProducts replaces the stored product column with patch(current column)
// inside one transaction, guarded by the row version.
func (r *Repository) rewriteProducts(ctx context.Context, id uuid.UUID, expectedVersion int64, patch func(raw sql.NullString) (string, error)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var raw sql.NullString
	var version int64
	err = tx.QueryRowContext(ctx, `SELECT integration_products, version FROM partners WHERE id = ?`, id.String()).Scan(&raw, &version)
	if err == sql.ErrNoRows {
		return fmt.Errorf("partner %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if expectedVersion != 0 && expectedVersion != version {
		return fmt.Errorf("partner %s at version %d, expected %d: %w", id, version, expectedVersion, ErrConflict)
	}

	next, err := patch(raw)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE partners SET integration_products = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, next, time.Now().UTC(), id.String(), version)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("partner %s: %w", id, ErrConflict)
	}

	return tx.Commit()
}
