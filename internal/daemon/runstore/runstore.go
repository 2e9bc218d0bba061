// Package runstore persists the daemon's run history in SQLite.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one finished run as stored by the daemon. The JSON shape is
// what the run-inspection endpoints serve.
type Record struct {
	RunID      string          `json:"run_id"`
	Prompt     string          `json:"prompt"`
	Status     string          `json:"status"`
	Iterations int             `json:"iterations"`
	Result     json.RawMessage `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Stats summarize the run history for the health report.
type Stats struct {
	RunsCompleted int
	LastRunAt     *time.Time
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run database at dsn. Pass ":memory:"
// for an ephemeral database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening run database: %w", err)
	}
	// One pooled connection: sqlite allows a single writer, and an
	// in-memory database only exists on the handle that created it.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating run database: %w", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			prompt TEXT NOT NULL,
			status TEXT NOT NULL,
			iterations INTEGER NOT NULL DEFAULT 0,
			result TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a finished run.
func (s *Store) Save(ctx context.Context, rec Record) error {
	result := sql.NullString{}
	if rec.Result != nil {
		result = sql.NullString{String: string(rec.Result), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, prompt, status, iterations, result, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Prompt, rec.Status, rec.Iterations, result, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", rec.RunID, err)
	}
	return nil
}

// Get retrieves a run by ID. Returns nil when no such run exists.
func (s *Store) Get(ctx context.Context, runID string) (*Record, error) {
	var rec Record
	var result sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, prompt, status, iterations, result, created_at FROM runs WHERE run_id = ?`,
		runID).Scan(&rec.RunID, &rec.Prompt, &rec.Status, &rec.Iterations, &result, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if result.Valid {
		rec.Result = json.RawMessage(result.String)
	}
	return &rec, nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT run_id, prompt, status, iterations, result, created_at FROM runs ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var result sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.Prompt, &rec.Status, &rec.Iterations, &result, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if result.Valid {
			rec.Result = json.RawMessage(result.String)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats reports how many runs completed and when the latest run of any
// status happened.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE status = 'completed'`).Scan(&stats.RunsCompleted)
	if err != nil {
		return Stats{}, err
	}

	// MAX(created_at) would lose the column's declared type and come back
	// as a string, so pick the newest row instead.
	var last time.Time
	err = s.db.QueryRowContext(ctx,
		`SELECT created_at FROM runs ORDER BY created_at DESC LIMIT 1`).Scan(&last)
	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return Stats{}, err
	}
	stats.LastRunAt = &last
	return stats, nil
}
