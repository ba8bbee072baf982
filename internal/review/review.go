// Package review extracts workspace diffs and renders structured review
// request documents.
package review

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ShayCichocki/taskfan/internal/git"
	"github.com/ShayCichocki/taskfan/internal/workspace"
	"github.com/ShayCichocki/taskfan/pkg/models"
)

// NotFoundError indicates a review was requested for a task that has no
// workspace: there is nothing to diff, and no partial artifact is produced.
type NotFoundError struct {
	// TaskID is the task with no known workspace.
	TaskID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no workspace exists for task %s", e.TaskID)
}

// Collector builds review requests from task workspaces.
type Collector struct {
	ws  *workspace.Manager
	git git.Runner
	dir string
}

// NewCollector creates a collector writing review documents under dir.
func NewCollector(ws *workspace.Manager, runner git.Runner, dir string) *Collector {
	return &Collector{ws: ws, git: runner, dir: dir}
}

// Collect extracts the change-set between a task's workspace branch and
// the main line it branched from. An empty diff is a valid result; the
// rendered document flags it explicitly and the caller decides whether to
// proceed.
func (c *Collector) Collect(task *models.Task) (*models.ReviewRequest, error) {
	ws, err := c.ws.Lookup(task)
	if err != nil {
		return nil, fmt.Errorf("look up workspace for task %s: %w", task.ID, err)
	}
	if ws == nil {
		return nil, &NotFoundError{TaskID: task.ID}
	}

	mainline, err := c.git.DefaultBranch()
	if err != nil {
		return nil, fmt.Errorf("resolve main line for task %s: %w", task.ID, err)
	}
	base, err := c.git.MergeBase(mainline, ws.Branch)
	if err != nil {
		return nil, fmt.Errorf("merge base of %s and %s: %w", mainline, ws.Branch, err)
	}
	diff, err := c.git.DiffRange(base, ws.Branch)
	if err != nil {
		return nil, fmt.Errorf("diff %s against %s: %w", ws.Branch, base, err)
	}

	return &models.ReviewRequest{
		TaskID:       task.ID,
		Title:        task.Title,
		Description:  task.Description,
		TestStrategy: task.TestStrategy,
		Branch:       ws.Branch,
		BaseRef:      base,
		Diff:         diff,
	}, nil
}

// ResponsePathFor returns the reviewer-response path for a task id.
func (c *Collector) ResponsePathFor(taskID string) string {
	return filepath.Join(c.dir, "task_"+taskID+"_response.md")
}

// WriteResponse saves the external reviewer's response next to the
// request document. Returns the path.
func (c *Collector) WriteResponse(taskID, response string) (string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("create review directory: %w", err)
	}
	path := c.ResponsePathFor(taskID)
	doc := fmt.Sprintf("# Review Response - Task %s\n\n%s", taskID, response)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return "", fmt.Errorf("write review response for task %s: %w", taskID, err)
	}
	return path, nil
}

// PathFor returns the review document path for a task id.
func (c *Collector) PathFor(taskID string) string {
	return filepath.Join(c.dir, "task_"+taskID+"_review.md")
}

// Write renders the review request and writes it to the task's review
// document, creating the review directory if needed. Returns the path.
func (c *Collector) Write(req *models.ReviewRequest) (string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("create review directory: %w", err)
	}
	path := c.PathFor(req.TaskID)
	if err := os.WriteFile(path, []byte(Render(req)), 0644); err != nil {
		return "", fmt.Errorf("write review for task %s: %w", req.TaskID, err)
	}
	return path, nil
}
