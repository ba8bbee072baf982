package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// ExecRunner implements Runner using exec.Command.
type ExecRunner struct {
	repoPath string
}

// NewRunner creates a new git runner for the repository at the given path.
func NewRunner(repoPath string) *ExecRunner {
	return &ExecRunner{repoPath: repoPath}
}

// run executes a git command and returns its output.
func (r *ExecRunner) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, string(out))
	}
	return strings.TrimSpace(string(out)), nil
}

// runSilent executes a git command and ignores output.
func (r *ExecRunner) runSilent(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.repoPath
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, string(out))
	}
	return nil
}

// Run executes an arbitrary git command with the given arguments.
func (r *ExecRunner) Run(args ...string) (string, error) {
	return r.run(args...)
}

// IsRepo returns true if the runner's directory is inside a git work tree.
func (r *ExecRunner) IsRepo() bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = r.repoPath
	return cmd.Run() == nil
}

// HasCommits returns true if the repository has at least one commit.
// Worktrees cannot be created from an unborn branch.
func (r *ExecRunner) HasCommits() bool {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = r.repoPath
	return cmd.Run() == nil
}

// CurrentBranch returns the name of the current branch.
func (r *ExecRunner) CurrentBranch() (string, error) {
	return r.run("rev-parse", "--abbrev-ref", "HEAD")
}

// DefaultBranch returns the main-line branch name. It prefers "main",
// falls back to "master", and finally to the current branch.
func (r *ExecRunner) DefaultBranch() (string, error) {
	for _, name := range []string{"main", "master"} {
		exists, err := r.BranchExists(name)
		if err != nil {
			return "", err
		}
		if exists {
			return name, nil
		}
	}
	return r.CurrentBranch()
}

// BranchExists returns true if the branch exists.
func (r *ExecRunner) BranchExists(name string) (bool, error) {
	cmd := exec.Command("git", "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	cmd.Dir = r.repoPath
	err := cmd.Run()
	if err != nil {
		// Exit code 1 means the branch doesn't exist (not an error)
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, fmt.Errorf("check branch exists: %w", err)
	}
	return true, nil
}

// WorktreeAddNewBranch creates a worktree at path bound to a new branch
// forked from baseRef.
func (r *ExecRunner) WorktreeAddNewBranch(path, branch, baseRef string) error {
	return r.runSilent("worktree", "add", "-b", branch, path, baseRef)
}

// WorktreeListPorcelain returns the raw porcelain output for detailed parsing.
func (r *ExecRunner) WorktreeListPorcelain() (string, error) {
	return r.run("worktree", "list", "--porcelain")
}

// MergeBase returns the common ancestor of two refs.
func (r *ExecRunner) MergeBase(ref1, ref2 string) (string, error) {
	return r.run("merge-base", ref1, ref2)
}

// DiffRange returns the diff between two refs.
func (r *ExecRunner) DiffRange(base, tip string) (string, error) {
	return r.run("diff", base, tip)
}

// Verify ExecRunner implements Runner at compile time.
var _ Runner = (*ExecRunner)(nil)
