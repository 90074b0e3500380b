// ABOUTME: User database operations
// ABOUTME: Team members with roles, password hashes and the legacy key person name link
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

const userColumns = `id, name, email, role, linked_key_person, password_hash, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var linked sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &linked, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	if linked.Valid {
		u.LinkedKeyPerson = &linked.String
	}
	return &u, nil
}

func validateUser(u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if strings.TrimSpace(u.Name) == "" || u.Email == "" {
		return fmt.Errorf("%w: user name and email are required", ErrInvalid)
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if !models.IsValidRole(u.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalid, u.Role)
	}
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID.String(), u.Name, u.Email, u.Role, nullableString(u.LinkedKeyPerson), u.PasswordHash, u.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("%w: email %q already registered", ErrInvalid, u.Email)
	}
	return err
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String()))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return u, err
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser writes name, email, role and linked key person. An empty
// PasswordHash keeps the stored one.
func (r *Repository) UpdateUser(ctx context.Context, u *models.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, email = ?, role = ?, linked_key_person = ?,
		    password_hash = CASE WHEN ? = '' THEN password_hash ELSE ? END
		WHERE id = ?
	`, u.Name, u.Email, u.Role, nullableString(u.LinkedKeyPerson), u.PasswordHash, u.PasswordHash, u.ID.String())
	if err != nil {
		return err
	}
	return expectAffected(result, "user", u.ID)
}

func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return expectAffected(result, "user", id)
}
