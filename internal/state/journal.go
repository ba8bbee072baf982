// Package state provides the SQLite-backed run journal.
//
// The journal is observability only: it records what each invocation did
// (ready set, workspaces created, prompts and reviews written, per-task
// failures) for `taskfan history`. Readiness and workspace logic never
// read it; correctness state lives in the external store and the
// filesystem.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Journal wraps an SQLite database recording invocation history.
type Journal struct {
	conn *sql.DB
	path string
}

// DefaultPath returns the project-local journal path.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".taskfan", "journal.db")
}

// Open opens the journal at the given path, creating parent directories
// as needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	j := &Journal{conn: conn, path: path}
	if err := j.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.conn.Close()
}

// migrate creates the schema if it does not exist.
func (j *Journal) migrate() error {
	_, err := j.conn.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			command    TEXT NOT NULL,
			tag        TEXT NOT NULL,
			ready_ids  TEXT NOT NULL,
			started_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS run_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL REFERENCES runs(id),
			task_id    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			detail     TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}

// EventKind classifies a journal event.
type EventKind string

const (
	EventWorkspaceCreated  EventKind = "workspace-created"
	EventWorkspaceExisting EventKind = "workspace-existing"
	EventPromptWritten     EventKind = "prompt-written"
	EventReviewWritten     EventKind = "review-written"
	EventStatusSet         EventKind = "status-set"
	EventAgentLaunched     EventKind = "agent-launched"
	EventError             EventKind = "error"
)

// Run is one recorded invocation.
type Run struct {
	ID        string
	Command   string
	Tag       string
	ReadyIDs  []string
	StartedAt time.Time
}

// Event is one per-task outcome within a run.
type Event struct {
	RunID  string
	TaskID string
	Kind   EventKind
	Detail string
	At     time.Time
}

// BeginRun records the start of an invocation and returns it.
func (j *Journal) BeginRun(command, tag string, readyIDs []string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Command:   command,
		Tag:       tag,
		ReadyIDs:  readyIDs,
		StartedAt: time.Now().UTC(),
	}
	_, err := j.conn.Exec(`
		INSERT INTO runs (id, command, tag, ready_ids, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Command, run.Tag, strings.Join(run.ReadyIDs, " "), formatTime(run.StartedAt))
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// Record appends a per-task event to a run.
func (j *Journal) Record(runID, taskID string, kind EventKind, detail string) error {
	_, err := j.conn.Exec(`
		INSERT INTO run_events (run_id, task_id, kind, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, runID, taskID, string(kind), detail, formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// RecentRuns lists the most recent runs, newest first.
func (j *Journal) RecentRuns(limit int) ([]Run, error) {
	rows, err := j.conn.Query(`
		SELECT id, command, tag, ready_ids, started_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var readyIDs, startedAt string
		if err := rows.Scan(&r.ID, &r.Command, &r.Tag, &readyIDs, &startedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if readyIDs != "" {
			r.ReadyIDs = strings.Fields(readyIDs)
		}
		r.StartedAt, _ = parseTime(startedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Events lists the events of a run in insertion order.
func (j *Journal) Events(runID string) ([]Event, error) {
	rows, err := j.conn.Query(`
		SELECT run_id, task_id, kind, detail, created_at
		FROM run_events WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var kind, at string
		if err := rows.Scan(&e.RunID, &e.TaskID, &kind, &e.Detail, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = EventKind(kind)
		e.At, _ = parseTime(at)
		events = append(events, e)
	}
	return events, rows.Err()
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
