package data

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	apperrors "assetfetch/internal/errors"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	version       TEXT NOT NULL,
	status        TEXT NOT NULL,
	mirror        TEXT NOT NULL DEFAULT '',
	files         INTEGER NOT NULL DEFAULT 0,
	bytes         INTEGER NOT NULL DEFAULT 0,
	network_bytes INTEGER NOT NULL DEFAULT 0,
	started_at    INTEGER NOT NULL,
	finished_at   INTEGER NOT NULL,
	error         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);
`

// SQLiteRepository persists the journal in a SQLite database file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wires a SQLite-backed implementation of Repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db: db,
	}
}

// OpenSQLite opens (creating if needed) the journal database at path.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, "failed to create journal directory", err).
				WithField("path", path)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, "failed to open journal", err).
			WithField("path", path)
	}
	// A single connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	return NewSQLiteRepository(db), nil
}

// Bootstrap creates the schema.
func (r *SQLiteRepository) Bootstrap(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, "failed to create journal schema", err).
			WithModule("data").
			WithOperation("Bootstrap")
	}
	return nil
}

// RecordRun stores run, replacing any row with the same id.
func (r *SQLiteRepository) RecordRun(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, version, status, mirror, files, bytes, network_bytes, started_at, finished_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Version, run.Status, run.Mirror, run.Files, run.Bytes, run.NetworkBytes,
		run.Started.UnixMilli(), run.Finished.UnixMilli(), run.Error,
	)
	if err != nil {
		return apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, "failed to record run", err).
			WithModule("data").
			WithOperation("RecordRun").
			WithField("run_id", run.ID)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRepository) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, status, mirror, files, bytes, network_bytes, started_at, finished_at, error
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, "failed to query runs", err).
			WithModule("data").
			WithOperation("RecentRuns")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished int64
		)
		if err := rows.Scan(&run.ID, &run.Version, &run.Status, &run.Mirror, &run.Files, &run.Bytes,
			&run.NetworkBytes, &started, &finished, &run.Error); err != nil {
			return nil, apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, "failed to read run", err).
				WithModule("data").
				WithOperation("RecentRuns")
		}
		run.Started = time.UnixMilli(started)
		run.Finished = time.UnixMilli(finished)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, "failed to iterate runs", err).
			WithModule("data").
			WithOperation("RecentRuns")
	}
	return runs, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

var _ Repository = (*SQLiteRepository)(nil)
