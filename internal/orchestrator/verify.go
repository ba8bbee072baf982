package orchestrator

import (
	"os"

	"github.com/ShayCichocki/taskfan/pkg/models"
)

// VerifyResult reports the observed state of one task's kickoff artifacts.
type VerifyResult struct {
	// TaskID is the task being checked.
	TaskID string
	// DirOK is true when the workspace directory exists.
	DirOK bool
	// BranchOK is true when the workspace branch exists.
	BranchOK bool
	// Status is the task's status in the store snapshot.
	Status models.TaskStatus
}

// Verify checks workspace directory, branch, and store status for the
// given tasks (default: the resolved ready set). It is read-only.
func (e *Engine) Verify(ids []string) ([]VerifyResult, *Report, error) {
	snap, err := e.Store.Load()
	if err != nil {
		return nil, nil, err
	}

	rep := &Report{Tag: snap.Tag}

	var tasks []*models.Task
	if len(ids) > 0 {
		tasks = e.selectTasks(snap, rep, "", ids)
	} else {
		res := e.resolveInto(snap, rep)
		tasks = tasksByIDs(snap, res)
	}

	var results []VerifyResult
	for _, task := range tasks {
		r := VerifyResult{TaskID: task.ID, Status: task.Status}

		if info, err := os.Stat(e.Workspaces.Path(task)); err == nil && info.IsDir() {
			r.DirOK = true
		}
		if exists, err := e.Workspaces.BranchExists(task); err == nil && exists {
			r.BranchOK = true
		}

		results = append(results, r)
	}
	return results, rep, nil
}
