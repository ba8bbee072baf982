// Package git provides an interface for git operations.
package git

// RepoOperations defines the interface for repository-level probes.
type RepoOperations interface {
	// IsRepo returns true if the runner's directory is inside a work tree.
	IsRepo() bool
	// HasCommits returns true if the repository has at least one commit.
	HasCommits() bool
	// CurrentBranch returns the name of the current branch.
	CurrentBranch() (string, error)
	// DefaultBranch returns the main-line branch name (main or master).
	DefaultBranch() (string, error)
}

// BranchOperations defines the interface for git branch operations.
type BranchOperations interface {
	// BranchExists returns true if the branch exists.
	BranchExists(name string) (bool, error)
}

// WorktreeOperations defines the interface for git worktree operations.
type WorktreeOperations interface {
	// WorktreeAddNewBranch creates a worktree at path bound to a new
	// branch forked from baseRef (git worktree add -b <branch> <path> <base>).
	WorktreeAddNewBranch(path, branch, baseRef string) error
	// WorktreeListPorcelain returns the raw porcelain output for parsing.
	WorktreeListPorcelain() (string, error)
}

// DiffOperations defines the interface for git comparison operations.
type DiffOperations interface {
	// MergeBase returns the common ancestor of two refs.
	MergeBase(ref1, ref2 string) (string, error)
	// DiffRange returns the textual diff between two refs.
	DiffRange(base, tip string) (string, error)
}

// Runner defines the complete interface for git operations used by taskfan.
// Consumers should prefer the focused interfaces when possible.
type Runner interface {
	RepoOperations
	BranchOperations
	WorktreeOperations
	DiffOperations
	// Run executes an arbitrary git command with the given arguments.
	// Returns the command output and an error if the command fails.
	Run(args ...string) (string, error)
}
