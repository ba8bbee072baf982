package orchestrator

import (
	"github.com/ShayCichocki/taskfan/internal/review"
	"github.com/ShayCichocki/taskfan/internal/state"
	"github.com/ShayCichocki/taskfan/pkg/models"
)

// ReviewOptions controls one review batch.
type ReviewOptions struct {
	// IDs selects explicit tasks. Empty means every in-progress task.
	IDs []string
	// Dispatch feeds each review document to the review agent and saves
	// its response next to the request.
	Dispatch bool
}

// CollectReviews generates review request documents for a batch of tasks.
// A task with no workspace is a per-task NotFoundError; a workspace with
// no changes yet produces a document with an explicitly empty diff
// section. Neither aborts the batch.
func (e *Engine) CollectReviews(opts ReviewOptions) (*Report, error) {
	snap, err := e.Store.Load()
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Tag:         snap.Tag,
		ReviewFiles: make(map[string]string),
	}

	var tasks []*models.Task
	if len(opts.IDs) > 0 {
		tasks = e.selectTasks(snap, rep, "", opts.IDs)
	} else {
		for _, t := range snap.Tasks {
			if t.Status == models.TaskStatusInProgress {
				tasks = append(tasks, t)
			}
		}
	}

	runID := e.beginRun("review", snap.Tag, taskIDs(tasks))

	for _, task := range tasks {
		req, err := e.Reviews.Collect(task)
		if err != nil {
			rep.fail(e, runID, task.ID, err)
			continue
		}
		path, err := e.Reviews.Write(req)
		if err != nil {
			rep.fail(e, runID, task.ID, err)
			continue
		}
		rep.ReviewFiles[task.ID] = path
		if req.Empty() {
			rep.EmptyDiffs = append(rep.EmptyDiffs, task.ID)
		}
		e.record(runID, task.ID, state.EventReviewWritten, path)

		if opts.Dispatch {
			response, err := e.Launcher.Review(review.Render(req))
			if err != nil {
				rep.fail(e, runID, task.ID, err)
				continue
			}
			if _, err := e.Reviews.WriteResponse(task.ID, response); err != nil {
				rep.fail(e, runID, task.ID, err)
				continue
			}
			rep.Launched = append(rep.Launched, task.ID)
		}
	}

	return rep, nil
}
