// Package workspace maps tasks to isolated git worktrees.
//
// Workspace identity (branch name, directory path) is a pure function of
// the task id, its title, and the configured prefix and base directory.
// Nothing is persisted: every run re-derives the identity and probes the
// repository for actual presence, which makes creation idempotent.
package workspace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ShayCichocki/taskfan/internal/git"
	"github.com/ShayCichocki/taskfan/pkg/models"
)

// maxSlugLen bounds the sanitized title portion of branch and directory
// names. The task id is always included separately, so truncation can
// never merge two tasks' workspaces.
const maxSlugLen = 48

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a task title into a filesystem- and git-safe fragment:
// lowercased, runs of non-alphanumerics collapsed to single hyphens,
// trimmed, and truncated to maxSlugLen.
func Slug(title string) string {
	s := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(title, "\r", " "), "\n", " "))
	s = slugPattern.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	if s == "" {
		return "task"
	}
	return s
}

// CreationError indicates the git worktree primitive refused to create a
// workspace for a task. It is reported per task; a silently skipped
// workspace would make the task invisibly drop out of parallel execution.
type CreationError struct {
	// TaskID is the task whose workspace could not be created.
	TaskID string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *CreationError) Error() string {
	return fmt.Sprintf("create workspace for task %s: %v", e.TaskID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CreationError) Unwrap() error { return e.Err }

// Manager derives workspace identities and idempotently materializes the
// underlying worktrees. It assumes single-operator, single-process use;
// concurrent invocations against the same repository may race.
type Manager struct {
	baseDir   string
	prefix    string
	promptDir string
	git       git.Runner
}

// NewManager creates a workspace manager. baseDir is where worktrees are
// created, prefix is prepended to branch names, and promptDir is where the
// per-task prompt files live (referenced by the generated runner scripts).
func NewManager(baseDir, prefix, promptDir string, runner git.Runner) *Manager {
	return &Manager{baseDir: baseDir, prefix: prefix, promptDir: promptDir, git: runner}
}

// Branch returns the deterministic branch name for a task.
func (m *Manager) Branch(task *models.Task) string {
	return m.prefix + task.ID + "-" + Slug(task.Title)
}

// Path returns the deterministic worktree directory for a task.
func (m *Manager) Path(task *models.Task) string {
	return filepath.Join(m.baseDir, task.ID+"-"+Slug(task.Title))
}

// Preflight verifies the repository can host worktrees at all. Run once
// per invocation before ensuring any workspace.
func (m *Manager) Preflight() error {
	if !m.git.IsRepo() {
		return fmt.Errorf("not a git repository")
	}
	if !m.git.HasCommits() {
		return fmt.Errorf("repository has no commits; worktrees need at least one commit to branch from")
	}
	return nil
}

// Ensure resolves the workspace for a task, creating it if absent.
// Calling it twice with no external state change yields the same branch
// and path, the second call reporting WorkspaceExisting. A branch that
// already exists but is bound to a different directory is a CreationError,
// not a silent reuse.
func (m *Manager) Ensure(task *models.Task) (*models.Workspace, error) {
	branch := m.Branch(task)
	path := m.Path(task)

	exists, err := m.git.BranchExists(branch)
	if err != nil {
		return nil, &CreationError{TaskID: task.ID, Err: err}
	}

	if exists {
		bound, err := m.worktreePathFor(branch)
		if err != nil {
			return nil, &CreationError{TaskID: task.ID, Err: err}
		}
		if bound == "" {
			return nil, &CreationError{TaskID: task.ID, Err: fmt.Errorf("branch %s exists but has no worktree", branch)}
		}
		if !samePath(bound, path) {
			return nil, &CreationError{TaskID: task.ID, Err: fmt.Errorf("branch %s is bound to %s, expected %s", branch, bound, path)}
		}
		return &models.Workspace{TaskID: task.ID, Branch: branch, Path: path, State: models.WorkspaceExisting}, nil
	}

	if err := os.MkdirAll(m.baseDir, 0755); err != nil {
		return nil, &CreationError{TaskID: task.ID, Err: fmt.Errorf("create workspace base directory: %w", err)}
	}
	if err := m.git.WorktreeAddNewBranch(path, branch, "HEAD"); err != nil {
		return nil, &CreationError{TaskID: task.ID, Err: err}
	}

	return &models.Workspace{TaskID: task.ID, Branch: branch, Path: path, State: models.WorkspaceCreated}, nil
}

// BranchExists reports whether the task's derived branch exists.
func (m *Manager) BranchExists(task *models.Task) (bool, error) {
	return m.git.BranchExists(m.Branch(task))
}

// Lookup returns the workspace for a task if its branch and worktree
// already exist, without creating anything. Returns nil when absent.
func (m *Manager) Lookup(task *models.Task) (*models.Workspace, error) {
	branch := m.Branch(task)
	exists, err := m.git.BranchExists(branch)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	bound, err := m.worktreePathFor(branch)
	if err != nil {
		return nil, err
	}
	if bound == "" {
		return nil, nil
	}
	return &models.Workspace{TaskID: task.ID, Branch: branch, Path: bound, State: models.WorkspaceExisting}, nil
}

// worktreePathFor returns the directory the branch's worktree is checked
// out at, or "" if no worktree is bound to it.
func (m *Manager) worktreePathFor(branch string) (string, error) {
	out, err := m.git.WorktreeListPorcelain()
	if err != nil {
		return "", fmt.Errorf("list worktrees: %w", err)
	}

	ref := "refs/heads/" + branch
	var current string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "worktree ") {
			current = strings.TrimPrefix(line, "worktree ")
		} else if strings.HasPrefix(line, "branch ") && strings.TrimPrefix(line, "branch ") == ref {
			return current, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("parse worktree list: %w", err)
	}
	return "", nil
}

// samePath compares two paths after normalization.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
