// Package store persists violation and activity records in SQLite so
// security reports survive restarts.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle. Safe for concurrent use; database/sql
// serializes access.
type Store struct {
	db   *sql.DB
	path string
}

// Violation is one persisted rejection event.
type Violation struct {
	Label string
	At    time.Time
}

// Activity is one persisted user action.
type Activity struct {
	User   string
	Action string
	At     time.Time
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path must be set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare store dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS violations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	label TEXT NOT NULL,
	at TIMESTAMP NOT NULL
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init violations schema: %w", err)
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS activity (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user TEXT NOT NULL,
	action TEXT NOT NULL,
	at TIMESTAMP NOT NULL
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init activity schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// RecordViolation persists one rejection. Only the pattern label is
// stored, never the rejected payload.
func (s *Store) RecordViolation(label string, at time.Time) error {
	_, err := s.db.Exec(`INSERT INTO violations (label, at) VALUES (?, ?)`,
		label, at.UTC())
	if err != nil {
		return fmt.Errorf("record violation: %w", err)
	}
	return nil
}

// RecordActivity persists one user action.
func (s *Store) RecordActivity(user, action string, at time.Time) error {
	_, err := s.db.Exec(`INSERT INTO activity (user, action, at) VALUES (?, ?, ?)`,
		user, action, at.UTC())
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// ViolationCount returns the all-time number of persisted violations.
func (s *Store) ViolationCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM violations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count violations: %w", err)
	}
	return n, nil
}

// RecentViolations returns up to n violations, newest first.
func (s *Store) RecentViolations(n int) ([]Violation, error) {
	rows, err := s.db.Query(
		`SELECT label, at FROM violations ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query violations: %w", err)
	}
	defer rows.Close()

	var out []Violation
	for rows.Next() {
		var v Violation
		if err := rows.Scan(&v.Label, &v.At); err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RecentActivity returns up to n activity entries, newest first.
func (s *Store) RecentActivity(n int) ([]Activity, error) {
	rows, err := s.db.Query(
		`SELECT user, action, at FROM activity ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.User, &a.Action, &a.At); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
