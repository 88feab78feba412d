// Package runlog records scrape run history in a local SQLite
// database, one row per run.
package runlog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Entry is one recorded scrape run.
type Entry struct {
	ID         string     `json:"id"`
	City       string     `json:"city"`
	Status     string     `json:"status"`
	Requested  int        `json:"requested"`
	Fetched    int        `json:"fetched"`
	ElapsedMS  int64      `json:"elapsed_ms"`
	OutputPath string     `json:"output_path,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Log provides read/write access to the runs table.
type Log struct {
	db *sql.DB
}

// Open opens (creating if necessary) the run log at the given path and
// applies the schema.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: open %s", path)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}

	l := &Log{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	city        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	requested   INTEGER NOT NULL,
	fetched     INTEGER NOT NULL DEFAULT 0,
	elapsed_ms  INTEGER NOT NULL DEFAULT 0,
	output_path TEXT,
	error       TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_city ON runs(city);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (l *Log) migrate() error {
	_, err := l.db.Exec(migration)
	return eris.Wrap(err, "runlog: migrate")
}

func (l *Log) Close() error {
	return l.db.Close()
}

// Start records the beginning of a run and returns its ID.
func (l *Log) Start(ctx context.Context, cityCode string, requested int) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, city, status, requested, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, cityCode, StatusRunning, requested, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "runlog: start run for %s", cityCode)
	}
	return id, nil
}

// Complete marks a run as successfully finished.
func (l *Log) Complete(ctx context.Context, id string, fetched int, elapsed time.Duration, outputPath string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, fetched = ?, elapsed_ms = ?, output_path = ?, finished_at = ? WHERE id = ?`,
		StatusComplete, fetched, elapsed.Milliseconds(), outputPath, time.Now().UTC(), id,
	)
	return eris.Wrapf(err, "runlog: complete run %s", id)
}

// Fail marks a run as failed with an error message.
func (l *Log) Fail(ctx context.Context, id string, errMsg string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		StatusFailed, errMsg, time.Now().UTC(), id,
	)
	return eris.Wrapf(err, "runlog: fail run %s", id)
}

// Get returns one run by ID, or nil if it does not exist.
func (l *Log) Get(ctx context.Context, id string) (*Entry, error) {
	rows, err := l.db.QueryContext(ctx, selectRuns+` WHERE id = ?`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: get run %s", id)
	}
	defer rows.Close() //nolint:errcheck

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// Recent returns up to n runs, most recent first.
func (l *Log) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, selectRuns+` ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list recent runs")
	}
	defer rows.Close() //nolint:errcheck

	return scanEntries(rows)
}

const selectRuns = `SELECT id, city, status, requested, fetched, elapsed_ms, output_path, error, started_at, finished_at FROM runs`

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var outputPath, errMsg sql.NullString
		var finishedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.City, &e.Status, &e.Requested, &e.Fetched, &e.ElapsedMS, &outputPath, &errMsg, &e.StartedAt, &finishedAt); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		e.OutputPath = outputPath.String
		e.Error = errMsg.String
		if finishedAt.Valid {
			t := finishedAt.Time
			e.FinishedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "runlog: iterate runs")
}
