package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sonata-project/devkit/internal/models"
)

// DB represents the run history database. It is an audit trail only; reminder
// decisions are always taken from live forge state.
type DB struct {
	*sql.DB
}

// Run is one execution of the reminder command
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Apply      bool
	Projects   int
	Failed     int
	Flagged    int
}

// Reminder is one flagged pull request
type Reminder struct {
	RunID      string
	Project    string
	Repository string
	Number     int
	Title      string
	Result     string
	CreatedAt  time.Time
}

// RunStats are the counters stored when a run finishes
type RunStats struct {
	Projects int
	Failed   int
	Flagged  int
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Initialize creates the database schema if it doesn't exist
func (db *DB) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		apply BOOLEAN NOT NULL DEFAULT 0,
		projects INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		flagged INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS reminders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		project TEXT NOT NULL,
		repository TEXT NOT NULL,
		number INTEGER NOT NULL,
		title TEXT NOT NULL,
		result TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_reminders_created_at ON reminders(created_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// StartRun records the beginning of a run and returns its id
func (db *DB) StartRun(apply bool) (string, error) {
	id := uuid.NewString()

	_, err := db.Exec(`INSERT INTO runs (id, started_at, apply) VALUES (?, ?, ?)`, id, time.Now().UTC(), apply)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	return id, nil
}

// FinishRun stores the counters of a finished run
func (db *DB) FinishRun(runID string, stats RunStats) error {
	query := `
	UPDATE runs SET
		finished_at = ?,
		projects = ?,
		failed = ?,
		flagged = ?
	WHERE id = ?
	`

	res, err := db.Exec(query, time.Now().UTC(), stats.Projects, stats.Failed, stats.Flagged, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run: unknown run %s", runID)
	}

	return nil
}

// SaveReminder saves a flagged pull request
func (db *DB) SaveReminder(r *Reminder) error {
	query := `
	INSERT INTO reminders (run_id, project, repository, number, title, result, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, r.RunID, r.Project, r.Repository, r.Number, r.Title, r.Result, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save reminder: %w", err)
	}

	return nil
}

// RecentReminders returns the latest flagged pull requests, newest first
func (db *DB) RecentReminders(limit int) ([]Reminder, error) {
	query := `
	SELECT run_id, project, repository, number, title, result, created_at
	FROM reminders
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`

	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.RunID, &r.Project, &r.Repository, &r.Number, &r.Title, &r.Result, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}

	return reminders, rows.Err()
}

// LastRun gets the most recent run, nil if there is none
func (db *DB) LastRun() (*Run, error) {
	query := `
	SELECT id, started_at, finished_at, apply, projects, failed, flagged
	FROM runs
	ORDER BY started_at DESC
	LIMIT 1
	`

	var run Run
	err := db.QueryRow(query).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Apply, &run.Projects, &run.Failed, &run.Flagged)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	return &run, nil
}

// Recorder returns a recorder bound to a run
func (db *DB) Recorder(runID string) *RunRecorder {
	return &RunRecorder{db: db, runID: runID}
}

// RunRecorder saves reminders of a single run
type RunRecorder struct {
	db    *DB
	runID string
}

// RecordReminder saves a flagged pull request for the bound run
func (r *RunRecorder) RecordReminder(project models.Project, pr models.PullRequest, result models.ActionResult) error {
	return r.db.SaveReminder(&Reminder{
		RunID:      r.runID,
		Project:    project.Name,
		Repository: project.Repository.FullName(),
		Number:     pr.Number,
		Title:      pr.Title,
		Result:     result.String(),
		CreatedAt:  time.Now().UTC(),
	})
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
