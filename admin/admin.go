// Package admin persists one row per export run for operational visibility.
// Run recording is best-effort: a store failure must never fail the export
// request that produced the run.
package admin

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrStoreClosed marks operations on a closed store.
var ErrStoreClosed = errors.New("run store is closed")

// Run statuses.
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

// Run is one recorded export cycle.
type Run struct {
	RunID            uuid.UUID `json:"run_id"`
	AuthorSlug       string    `json:"author_slug"`
	ListingURL       string    `json:"listing_url"`
	Format           string    `json:"format"`
	PagesVisited     int       `json:"pages_visited"`
	ArticlesFound    int       `json:"articles_found"`
	ArticlesEnriched int       `json:"articles_enriched"`
	Status           string    `json:"status"`
	Error            string    `json:"error,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// RunStore manages export-run records using SQLite.
type RunStore struct {
	db     *sql.DB
	closed bool
}

// NewRunStore creates a run store with the given database path.
func NewRunStore(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &RunStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs table if it doesn't exist.
func (s *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		author_slug TEXT NOT NULL,
		listing_url TEXT NOT NULL,
		format TEXT NOT NULL,
		pages_visited INTEGER NOT NULL DEFAULT 0,
		articles_found INTEGER NOT NULL DEFAULT 0,
		articles_enriched INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	s.closed = true
	return s.db.Close()
}

// Record inserts one run. A zero RunID gets a fresh UUID.
func (s *RunStore) Record(run *Run) error {
	if s.closed {
		return ErrStoreClosed
	}
	if run.RunID == uuid.Nil {
		run.RunID = uuid.New()
	}

	query := `
		INSERT INTO runs (
			run_id, author_slug, listing_url, format,
			pages_visited, articles_found, articles_enriched,
			status, error, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.RunID.String(),
		run.AuthorSlug,
		run.ListingURL,
		run.Format,
		run.PagesVisited,
		run.ArticlesFound,
		run.ArticlesEnriched,
		run.Status,
		run.Error,
		run.StartedAt.Format(time.RFC3339Nano),
		run.FinishedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. A non-positive limit
// defaults to 50.
func (s *RunStore) List(limit int) ([]Run, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT run_id, author_slug, listing_url, format,
		       pages_visited, articles_found, articles_enriched,
		       status, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var runID, startedAt, finishedAt string
		var errMsg sql.NullString

		if err := rows.Scan(
			&runID, &run.AuthorSlug, &run.ListingURL, &run.Format,
			&run.PagesVisited, &run.ArticlesFound, &run.ArticlesEnriched,
			&run.Status, &errMsg, &startedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.RunID, err = uuid.Parse(runID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run_id: %w", err)
		}
		run.Error = errMsg.String
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
