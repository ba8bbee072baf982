// Package orchestrator sequences taskfan's components: resolve readiness,
// materialize workspaces, generate prompts and launchers, and collect
// reviews. It holds no state beyond the current invocation; every run
// recomputes from a fresh store snapshot.
package orchestrator

import (
	"fmt"
	"os"

	"github.com/ShayCichocki/taskfan/internal/dispatch"
	"github.com/ShayCichocki/taskfan/internal/graph"
	"github.com/ShayCichocki/taskfan/internal/prompt"
	"github.com/ShayCichocki/taskfan/internal/review"
	"github.com/ShayCichocki/taskfan/internal/state"
	"github.com/ShayCichocki/taskfan/internal/store"
	"github.com/ShayCichocki/taskfan/internal/workspace"
	"github.com/ShayCichocki/taskfan/pkg/models"
)

// Engine wires the components together. All fields except Journal are
// required; a nil Journal disables history recording.
type Engine struct {
	Store      *store.Client
	Workspaces *workspace.Manager
	Prompts    *prompt.Generator
	Reviews    *review.Collector
	Launcher   *dispatch.Launcher
	Journal    *state.Journal
}

// TaskError ties a per-task failure to the offending task id so batch
// reports always name the task. Silent skips are a correctness hazard: a
// dropped task is indistinguishable from "not ready yet".
type TaskError struct {
	// TaskID is the task the failure applies to.
	TaskID string
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.TaskID, e.Err)
}

// Unwrap returns the underlying failure.
func (e *TaskError) Unwrap() error { return e.Err }

// Report aggregates the outcome of one batch operation. Per-task failures
// are collected here rather than aborting the batch; only store
// unavailability or configuration errors abort an invocation.
type Report struct {
	// Tag is the store namespace the run operated on.
	Tag string
	// Ready lists the resolved ready ids (empty when explicit ids were given).
	Ready []string
	// Blocked lists pending tasks waiting on unfinished prerequisites.
	Blocked []graph.BlockedTask
	// Integrity lists data-integrity errors found during resolution.
	Integrity []*graph.IntegrityError
	// Workspaces lists every workspace resolved this run.
	Workspaces []*models.Workspace
	// PromptFiles maps task id to its written prompt file.
	PromptFiles map[string]string
	// ReviewFiles maps task id to its written review document.
	ReviewFiles map[string]string
	// EmptyDiffs lists task ids whose review diff was empty.
	EmptyDiffs []string
	// Launched lists task ids whose agent was dispatched.
	Launched []string
	// Errors holds per-task failures, in processing order.
	Errors []error
}

// fail appends a per-task failure and journals it.
func (r *Report) fail(e *Engine, runID, taskID string, err error) {
	r.Errors = append(r.Errors, &TaskError{TaskID: taskID, Err: err})
	e.record(runID, taskID, state.EventError, err.Error())
}

// record writes a journal event, best-effort. A journal failure is
// reported on stderr but never fails the invocation.
func (e *Engine) record(runID, taskID string, kind state.EventKind, detail string) {
	if e.Journal == nil || runID == "" {
		return
	}
	if err := e.Journal.Record(runID, taskID, kind, detail); err != nil {
		fmt.Fprintf(os.Stderr, "warning: journal: %v\n", err)
	}
}

// beginRun opens a journal entry, best-effort.
func (e *Engine) beginRun(command, tag string, readyIDs []string) string {
	if e.Journal == nil {
		return ""
	}
	run, err := e.Journal.BeginRun(command, tag, readyIDs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: journal: %v\n", err)
		return ""
	}
	return run.ID
}

// Resolve loads a fresh snapshot and computes readiness for it.
func (e *Engine) Resolve() (*store.Snapshot, *graph.Resolution, error) {
	snap, err := e.Store.Load()
	if err != nil {
		return nil, nil, err
	}
	return snap, graph.New(snap.Tasks).Resolve(), nil
}

// selectTasks picks the tasks a batch operates on. Explicit ids bypass
// readiness; unknown ids become per-task errors in the report.
func (e *Engine) selectTasks(snap *store.Snapshot, rep *Report, runID string, ids []string) []*models.Task {
	resolver := graph.New(snap.Tasks)
	var tasks []*models.Task
	for _, id := range ids {
		task := resolver.Task(id)
		if task == nil {
			rep.fail(e, runID, id, fmt.Errorf("unknown task id"))
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// tasksByIDs maps resolved ready ids back to their tasks.
func tasksByIDs(snap *store.Snapshot, ids []string) []*models.Task {
	byID := make(map[string]*models.Task, len(snap.Tasks))
	for _, t := range snap.Tasks {
		byID[t.ID] = t
	}
	var tasks []*models.Task
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tasks = append(tasks, t)
		}
	}
	return tasks
}
