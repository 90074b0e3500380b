// ABOUTME: Custom reminder database operations
// ABOUTME: Dated follow-ups per partner that move from pending to completed exactly once
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

const reminderColumns = `id, partner_id, title, due_date, completed, created_at, completed_at`

func scanReminder(row rowScanner) (*models.CustomReminder, error) {
	var rem models.CustomReminder
	if err := row.Scan(&rem.ID, &rem.PartnerID, &rem.Title, &rem.DueDate, &rem.Completed, &rem.CreatedAt, &rem.CompletedAt); err != nil {
		return nil, err
	}
	rem.DueDate = rem.DueDate.UTC()
	rem.CompletedAt = utcPtr(rem.CompletedAt)
	return &rem, nil
}

func (r *Repository) CreateReminder(ctx context.Context, rem *models.CustomReminder) error {
	if strings.TrimSpace(rem.Title) == "" {
		return fmt.Errorf("%w: reminder title is required", ErrInvalid)
	}
	if rem.DueDate.IsZero() {
		return fmt.Errorf("%w: reminder due date is required", ErrInvalid)
	}
	if _, err := r.GetPartner(ctx, rem.PartnerID); err != nil {
		return err
	}

	rem.ID = uuid.New()
	rem.DueDate = rem.DueDate.UTC()
	rem.Completed = false
	rem.CompletedAt = nil
	rem.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO custom_reminders (id, partner_id, title, due_date, completed, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, rem.ID.String(), rem.PartnerID.String(), rem.Title, rem.DueDate, rem.CreatedAt)
	return err
}

func (r *Repository) GetReminder(ctx context.Context, id uuid.UUID) (*models.CustomReminder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM custom_reminders WHERE id = ?`, id.String())
	rem, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	return rem, err
}

func (r *Repository) queryReminders(ctx context.Context, query string, args ...any) ([]models.CustomReminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reminders := make([]models.CustomReminder, 0)
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *rem)
	}
	return reminders, rows.Err()
}

// ListReminders returns one partner's reminders by due date.
func (r *Repository) ListReminders(ctx context.Context, partnerID uuid.UUID, includeCompleted bool) ([]models.CustomReminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM custom_reminders WHERE partner_id = ?`
	if !includeCompleted {
		query += ` AND completed = 0`
	}
	query += ` ORDER BY due_date, created_at`
	return r.queryReminders(ctx, query, partnerID.String())
}

// ListPendingReminders returns every uncompleted reminder across all partners.
func (r *Repository) ListPendingReminders(ctx context.Context) ([]models.CustomReminder, error) {
	return r.queryReminders(ctx, `
		SELECT `+reminderColumns+` FROM custom_reminders
		WHERE completed = 0
		ORDER BY due_date, created_at
	`)
}

// CompleteReminder marks a pending reminder done. Completing twice returns
// ErrAlreadyCompleted.
func (r *Repository) CompleteReminder(ctx context.Context, id uuid.UUID, at time.Time) (*models.CustomReminder, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE custom_reminders SET completed = 1, completed_at = ? WHERE id = ? AND completed = 0
	`, at.UTC(), id.String())
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	rem, err := r.GetReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("reminder %s: %w", id, ErrAlreadyCompleted)
	}
	return rem, nil
}

func (r *Repository) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM custom_reminders WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return expectAffected(result, "reminder", id)
}
