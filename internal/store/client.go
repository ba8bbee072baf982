// Package store adapts the external Task Master store for taskfan.
//
// The store owns all task metadata, statuses, and dependency edges. taskfan
// reads a fresh snapshot from the store's JSON file on every invocation
// (statuses change externally between runs, so nothing is cached) and
// delegates status mutations back to the store's CLI.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/ShayCichocki/taskfan/pkg/models"
)

// UnavailableError indicates the store cannot be reached at all: the tasks
// file is missing or unreadable, or the store CLI is not installed. Fatal
// for the invocation; there is nothing to resolve.
type UnavailableError struct {
	// Resource names what could not be reached (file path or binary).
	Resource string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("task store unavailable: %s: %v", e.Resource, e.Err)
}

// Unwrap returns the underlying cause.
func (e *UnavailableError) Unwrap() error { return e.Err }

// FormatError indicates the store returned malformed records: invalid
// JSON, or tasks missing required fields.
type FormatError struct {
	// Path is the tasks file that failed to parse.
	Path string
	// Detail describes the malformed record.
	Detail string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed task store %s: %s", e.Path, e.Detail)
}

// Snapshot is one read of the store: the active tag and every task under
// it, subtasks flattened in. It is immutable and discarded after use.
type Snapshot struct {
	// Tag is the store namespace the tasks came from.
	Tag string
	// Tasks holds all tasks, parent tasks followed by their subtasks.
	Tasks []*models.Task
}

// Client reads snapshots from the Task Master JSON file and mutates
// statuses through the task-master CLI.
type Client struct {
	// Bin is the task-master binary name.
	Bin string
	// TasksFile is the path to the store's tasks JSON file.
	TasksFile string
	// StateFile is the path to the store's state JSON file, used for tag
	// detection. May be empty.
	StateFile string
	// Tag is the store namespace. Empty means detect.
	Tag string
}

// NewClient creates a store client. Empty fields fall back to the
// Task Master defaults.
func NewClient(bin, tasksFile, stateFile, tag string) *Client {
	if bin == "" {
		bin = "task-master"
	}
	if tasksFile == "" {
		tasksFile = ".taskmaster/tasks/tasks.json"
	}
	if stateFile == "" {
		stateFile = ".taskmaster/state.json"
	}
	return &Client{Bin: bin, TasksFile: tasksFile, StateFile: stateFile, Tag: tag}
}

// Load reads one snapshot from the tasks file. A file with zero tasks
// under the tag yields an empty snapshot, not an error.
func (c *Client) Load() (*Snapshot, error) {
	raw, err := os.ReadFile(c.TasksFile)
	if err != nil {
		return nil, &UnavailableError{Resource: c.TasksFile, Err: err}
	}

	doc, err := parseTasksFile(c.TasksFile, raw)
	if err != nil {
		return nil, err
	}

	tag := c.Tag
	if tag == "" {
		tag = c.detectTag(doc)
	}

	tasks, err := doc.tasksForTag(c.TasksFile, tag)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Tag: tag, Tasks: tasks}, nil
}

// detectTag resolves the active tag: the TAG environment variable first,
// then the store's state file, then the first tag present in the tasks
// file, and finally "master".
func (c *Client) detectTag(doc *tasksFile) string {
	if tag := os.Getenv("TAG"); tag != "" {
		return tag
	}

	if raw, err := os.ReadFile(c.StateFile); err == nil {
		var state struct {
			CurrentTag string `json:"currentTag"`
		}
		if json.Unmarshal(raw, &state) == nil && state.CurrentTag != "" {
			return state.CurrentTag
		}
	}

	if tag := doc.firstTag(); tag != "" {
		return tag
	}
	return "master"
}

// SetStatus delegates a status change for one task back to the store CLI.
// Requires the tag to have been resolved by a prior Load (or configured).
func (c *Client) SetStatus(tag, taskID string, status models.TaskStatus) error {
	if _, err := exec.LookPath(c.Bin); err != nil {
		return &UnavailableError{Resource: c.Bin, Err: err}
	}
	cmd := exec.Command(c.Bin, "set-status", "--tag", tag, "--id", taskID, "--status", string(status))
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("set task %s to %s: %w: %s", taskID, status, err, string(out))
	}
	return nil
}
