// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists a log of completed formatting runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultLimit = 20

// Run is one completed formatting run.
type Run struct {
	SessionID  string        `json:"session_id"`
	Title      string        `json:"title"`
	Template   string        `json:"template"`
	Sections   int           `json:"sections"`
	Figures    int           `json:"figures"`
	References int           `json:"references"`
	Warnings   []string      `json:"warnings,omitempty"`
	Duration   time.Duration `json:"duration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Store manages the run history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating the
// schema if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			title TEXT,
			template TEXT,
			sections INTEGER,
			figures INTEGER,
			refs INTEGER,
			warnings TEXT,
			duration_ms INTEGER,
			created_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over titles with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='runs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE runs_fts USING fts5(title, content=runs, content_rowid=rowid)`,
			`CREATE TRIGGER runs_ai AFTER INSERT ON runs BEGIN
				INSERT INTO runs_fts(rowid, title) VALUES (new.rowid, new.title);
			END`,
			`CREATE TRIGGER runs_ad AFTER DELETE ON runs BEGIN
				INSERT INTO runs_fts(runs_fts, rowid, title) VALUES('delete', old.rowid, old.title);
			END`,
			`CREATE TRIGGER runs_au AFTER UPDATE ON runs BEGIN
				INSERT INTO runs_fts(runs_fts, rowid, title) VALUES('delete', old.rowid, old.title);
				INSERT INTO runs_fts(rowid, title) VALUES (new.rowid, new.title);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Record inserts a run, replacing any earlier record for the same
// session. A zero CreatedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.SessionID == "" {
		return fmt.Errorf("recording run: empty session id")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	warningsJSON, _ := json.Marshal(run.Warnings)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (session_id, title, template, sections, figures, refs, warnings, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			title=excluded.title, template=excluded.template,
			sections=excluded.sections, figures=excluded.figures,
			refs=excluded.refs, warnings=excluded.warnings,
			duration_ms=excluded.duration_ms, created_at=excluded.created_at`,
		run.SessionID, run.Title, run.Template,
		run.Sections, run.Figures, run.References,
		string(warningsJSON), run.Duration.Milliseconds(),
		run.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting run %s: %w", run.SessionID, err)
	}

	return tx.Commit()
}

// Recent returns the newest runs, most recent first. A non-positive n
// uses the default limit.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		n = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, title, template, sections, figures, refs, warnings, duration_ms, created_at
		 FROM runs
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// Search returns runs whose titles match the FTS5 query, ranked by
// relevance.
func (s *Store) Search(ctx context.Context, query string) ([]Run, error) {
	if query == "" {
		return s.Recent(ctx, 0)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.session_id, r.title, r.template, r.sections, r.figures, r.refs, r.warnings, r.duration_ms, r.created_at
		 FROM runs_fts
		 JOIN runs r ON r.rowid = runs_fts.rowid
		 WHERE runs_fts MATCH ?
		 ORDER BY runs_fts.rank
		 LIMIT ?`, query, defaultLimit)
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// Purge deletes runs created before the cutoff and returns how many
// were removed.
func (s *Store) Purge(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE created_at < ?`,
		before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("purging history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged rows: %w", err)
	}
	return int(n), nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			run          Run
			warningsJSON sql.NullString
			durationMs   int64
			createdAt    string
		)
		if err := rows.Scan(
			&run.SessionID, &run.Title, &run.Template,
			&run.Sections, &run.Figures, &run.References,
			&warningsJSON, &durationMs, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if warningsJSON.Valid {
			json.Unmarshal([]byte(warningsJSON.String), &run.Warnings)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			run.CreatedAt = t
		}

		runs = append(runs, run)
	}
	return runs, rows.Err()
}
