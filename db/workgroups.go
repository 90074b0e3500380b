// ABOUTME: Workgroup database operations
// ABOUTME: Named groups of users with transactional membership replacement
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

func (r *Repository) CreateWorkgroup(ctx context.Context, wg *models.Workgroup) error {
	wg.Name = strings.TrimSpace(wg.Name)
	if wg.Name == "" {
		return fmt.Errorf("%w: workgroup name is required", ErrInvalid)
	}
	wg.ID = uuid.New()
	wg.CreatedAt = time.Now().UTC()
	wg.MemberIDs = []uuid.UUID{}

	_, err := r.db.ExecContext(ctx, `INSERT INTO workgroups (id, name, created_at) VALUES (?, ?, ?)`,
		wg.ID.String(), wg.Name, wg.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("%w: workgroup %q already exists", ErrInvalid, wg.Name)
	}
	return err
}

// ListWorkgroups returns every workgroup with its member ids filled in.
func (r *Repository) ListWorkgroups(ctx context.Context) ([]models.Workgroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM workgroups ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	groups := make([]models.Workgroup, 0)
	for rows.Next() {
		var wg models.Workgroup
		if err := rows.Scan(&wg.ID, &wg.Name, &wg.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		groups = append(groups, wg)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Members are loaded after the first cursor closes; the pool holds one connection.
	for i := range groups {
		members, err := r.ListWorkgroupMembers(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].MemberIDs = members
	}
	return groups, nil
}

func (r *Repository) DeleteWorkgroup(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workgroup_members WHERE workgroup_id = ?`, id.String()); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM workgroups WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if err := expectAffected(result, "workgroup", id); err != nil {
		return err
	}
	return tx.Commit()
}

// SetWorkgroupMembers replaces the member set. An unknown user rolls back.
func (r *Repository) SetWorkgroupMembers(ctx context.Context, workgroupID uuid.UUID, userIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM workgroups WHERE id = ?`, workgroupID.String()).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("workgroup %s: %w", workgroupID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM workgroup_members WHERE workgroup_id = ?`, workgroupID.String()); err != nil {
		return err
	}
	for _, userID := range userIDs {
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID.String()).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO workgroup_members (workgroup_id, user_id) VALUES (?, ?)
		`, workgroupID.String(), userID.String()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) ListWorkgroupMembers(ctx context.Context, workgroupID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM workgroup_members WHERE workgroup_id = ? ORDER BY user_id
	`, workgroupID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
