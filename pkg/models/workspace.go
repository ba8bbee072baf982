package models

// WorkspaceState describes how a workspace was resolved on this run.
type WorkspaceState string

const (
	// WorkspaceCreated indicates the worktree and branch were freshly made.
	WorkspaceCreated WorkspaceState = "created"
	// WorkspaceExisting indicates the worktree already existed from a
	// previous run and was returned unchanged.
	WorkspaceExisting WorkspaceState = "existing"
)

// Workspace is an isolated working directory bound to its own branch,
// derived deterministically from a task. It is a fact about the
// filesystem and git state, re-derived on every run, never persisted.
type Workspace struct {
	// TaskID is the task this workspace belongs to.
	TaskID string `json:"task_id"`
	// Branch is the git branch the worktree is bound to.
	Branch string `json:"branch"`
	// Path is the worktree directory.
	Path string `json:"path"`
	// State reports whether this run created the workspace or found it.
	State WorkspaceState `json:"state"`
}
