// Package sqlite persists the batch run history.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cwygoda/stitcher/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT NOT NULL,
    url             TEXT NOT NULL,
    status          TEXT NOT NULL,
    error           TEXT,
    segments_total  INTEGER NOT NULL DEFAULT 0,
    segments_reused INTEGER NOT NULL DEFAULT 0,
    started_at      DATETIME NOT NULL,
    finished_at     DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name);
`

// History implements domain.RunRecorder using SQLite.
type History struct {
	db *sql.DB
}

// New opens (and if needed initializes) the history database at dbPath.
func New(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &History{db: db}, nil
}

// Close closes the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

// Record inserts one job run outcome.
func (h *History) Record(ctx context.Context, res domain.JobResult) error {
	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO runs (name, url, status, error, segments_total, segments_reused, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Job.Name, res.Job.URL, string(res.Status), errMsg,
		res.SegmentsTotal, res.SegmentsReused, res.StartedAt, res.FinishedAt,
	)
	return err
}

// Recent returns up to limit runs, most recent first.
func (h *History) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, name, url, status, COALESCE(error, ''), segments_total, segments_reused, started_at, finished_at
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.RunRecord
	for rows.Next() {
		var rec domain.RunRecord
		var status string
		var started, finished time.Time
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.URL, &status, &rec.Error,
			&rec.SegmentsTotal, &rec.SegmentsReused, &started, &finished); err != nil {
			return nil, err
		}
		rec.Status = domain.JobStatus(status)
		rec.StartedAt = started
		rec.FinishedAt = finished
		records = append(records, rec)
	}
	return records, rows.Err()
}
