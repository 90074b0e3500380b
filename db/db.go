// ABOUTME: Database connection management and initialization
// ABOUTME: Opens SQLite with WAL mode and foreign keys, then runs schema setup once before use
package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("record was modified concurrently")
	ErrInvalid          = errors.New("invalid record")
	ErrAlreadyCompleted = errors.New("reminder already completed")
)

func OpenDatabase(path string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Configure connection pool for SQLite (avoid database locked errors)
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Repository provides context-aware CRUD over every PRM table.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying handle for ad-hoc reporting queries.
func (r *Repository) DB() *sql.DB {
	return r.db
}

type rowScanner interface {
	Scan(dest ...any) error
}

// parseTimestamp reads a timestamp produced by an aggregate or expression
// column, which the driver returns as text instead of time.Time.
func parseTimestamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	v := strings.TrimSuffix(s.String, "Z")
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errors.New("unrecognised timestamp: " + s.String)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
