package orchestrator

import (
	"errors"

	"github.com/ShayCichocki/taskfan/internal/graph"
	"github.com/ShayCichocki/taskfan/internal/state"
	"github.com/ShayCichocki/taskfan/internal/store"
	"github.com/ShayCichocki/taskfan/pkg/models"
)

// KickoffOptions controls one kickoff batch.
type KickoffOptions struct {
	// IDs selects explicit tasks, bypassing readiness. Empty means the
	// resolved ready set.
	IDs []string
	// WorkspacesOnly skips prompt generation and status changes.
	WorkspacesOnly bool
	// PromptsOnly skips workspace creation and status changes.
	PromptsOnly bool
	// MarkInProgress sets each processed task to in-progress in the store.
	MarkInProgress bool
	// Dispatch launches the agent per workspace after setup.
	Dispatch bool
}

// Kickoff runs the full preparation flow for a batch of tasks: prompts,
// workspaces, launcher scripts, optional status change, optional agent
// dispatch. Failures on one task never abort processing of the remaining
// tasks; the purpose is maximal parallel unblocking.
func (e *Engine) Kickoff(opts KickoffOptions) (*Report, error) {
	snap, err := e.Store.Load()
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Tag:         snap.Tag,
		PromptFiles: make(map[string]string),
	}

	var tasks []*models.Task
	if len(opts.IDs) > 0 {
		tasks = e.selectTasks(snap, rep, "", opts.IDs)
	} else {
		res := e.resolveInto(snap, rep)
		tasks = tasksByIDs(snap, res)
	}

	if !opts.PromptsOnly {
		if err := e.Workspaces.Preflight(); err != nil {
			return nil, err
		}
	}

	runID := e.beginRun(kickoffCommand(opts), snap.Tag, taskIDs(tasks))
	for _, err := range rep.Errors {
		var te *TaskError
		if errors.As(err, &te) {
			e.record(runID, te.TaskID, state.EventError, te.Err.Error())
		}
	}

	for _, task := range tasks {
		e.kickoffOne(task, opts, rep, runID)
	}

	return rep, nil
}

// kickoffOne prepares a single task. Each step's failure is collected and
// the remaining steps for this task are skipped, but other tasks proceed.
func (e *Engine) kickoffOne(task *models.Task, opts KickoffOptions, rep *Report, runID string) {
	if !opts.WorkspacesOnly {
		path, err := e.Prompts.Write(task)
		if err != nil {
			rep.fail(e, runID, task.ID, err)
			return
		}
		rep.PromptFiles[task.ID] = path
		e.record(runID, task.ID, state.EventPromptWritten, path)
	}

	if opts.PromptsOnly {
		return
	}

	ws, err := e.Workspaces.Ensure(task)
	if err != nil {
		rep.fail(e, runID, task.ID, err)
		return
	}
	rep.Workspaces = append(rep.Workspaces, ws)
	if ws.State == models.WorkspaceCreated {
		e.record(runID, task.ID, state.EventWorkspaceCreated, ws.Path)
	} else {
		e.record(runID, task.ID, state.EventWorkspaceExisting, ws.Path)
	}

	script, err := e.Workspaces.WriteRunnerScript(ws)
	if err != nil {
		rep.fail(e, runID, task.ID, err)
		return
	}

	if opts.MarkInProgress && !opts.WorkspacesOnly {
		if err := e.Store.SetStatus(rep.Tag, task.ID, models.TaskStatusInProgress); err != nil {
			rep.fail(e, runID, task.ID, err)
			// Workspace exists; dispatch can still proceed.
		} else {
			e.record(runID, task.ID, state.EventStatusSet, string(models.TaskStatusInProgress))
		}
	}

	if opts.Dispatch {
		if err := e.Launcher.LaunchAgent(script, ws.Path); err != nil {
			rep.fail(e, runID, task.ID, err)
			return
		}
		rep.Launched = append(rep.Launched, task.ID)
		e.record(runID, task.ID, state.EventAgentLaunched, script)
	}
}

// Start marks the given tasks (or the resolved ready set) in-progress in
// the external store.
func (e *Engine) Start(ids []string) (*Report, error) {
	snap, err := e.Store.Load()
	if err != nil {
		return nil, err
	}

	rep := &Report{Tag: snap.Tag}

	var tasks []*models.Task
	if len(ids) > 0 {
		tasks = e.selectTasks(snap, rep, "", ids)
	} else {
		res := e.resolveInto(snap, rep)
		tasks = tasksByIDs(snap, res)
	}

	runID := e.beginRun("start", snap.Tag, taskIDs(tasks))
	for _, task := range tasks {
		if err := e.Store.SetStatus(snap.Tag, task.ID, models.TaskStatusInProgress); err != nil {
			rep.fail(e, runID, task.ID, err)
			continue
		}
		e.record(runID, task.ID, state.EventStatusSet, string(models.TaskStatusInProgress))
	}
	return rep, nil
}

// resolveInto resolves readiness for a snapshot and folds the outcome
// into the report. Returns the ready ids.
func (e *Engine) resolveInto(snap *store.Snapshot, rep *Report) []string {
	res := graph.New(snap.Tasks).Resolve()
	rep.Ready = res.Ready
	rep.Blocked = res.Blocked
	rep.Integrity = res.Errors
	return res.Ready
}

// taskIDs extracts ids preserving order.
func taskIDs(tasks []*models.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func kickoffCommand(opts KickoffOptions) string {
	switch {
	case opts.WorkspacesOnly:
		return "workspaces"
	case opts.PromptsOnly:
		return "prompts"
	default:
		return "kickoff"
	}
}
