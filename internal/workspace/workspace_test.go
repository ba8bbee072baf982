package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShayCichocki/taskfan/pkg/models"
)

// fakeRunner is an in-memory git.Runner tracking branches and worktrees.
type fakeRunner struct {
	isRepo     bool
	hasCommits bool
	// worktrees maps branch name to checkout path.
	worktrees map[string]string
	// branches holds branches with no worktree bound.
	branches map[string]bool
	// addErr forces WorktreeAddNewBranch to fail.
	addErr error
	// diff is returned by DiffRange.
	diff string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		isRepo:     true,
		hasCommits: true,
		worktrees:  make(map[string]string),
		branches:   make(map[string]bool),
	}
}

func (f *fakeRunner) IsRepo() bool { return f.isRepo }
func (f *fakeRunner) HasCommits() bool { return f.hasCommits }
func (f *fakeRunner) CurrentBranch() (string, error) { return "main", nil }
func (f *fakeRunner) DefaultBranch() (string, error) { return "main", nil }
func (f *fakeRunner) Run(args ...string) (string, error) {
	return "", fmt.Errorf("unexpected git call: %v", args)
}

func (f *fakeRunner) BranchExists(name string) (bool, error) {
	if _, ok := f.worktrees[name]; ok {
		return true, nil
	}
	return f.branches[name], nil
}

func (f *fakeRunner) WorktreeAddNewBranch(path, branch, baseRef string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.worktrees[branch] = path
	return nil
}

func (f *fakeRunner) WorktreeListPorcelain() (string, error) {
	var sb strings.Builder
	sb.WriteString("worktree /repo\nbranch refs/heads/main\n\n")
	for branch, path := range f.worktrees {
		fmt.Fprintf(&sb, "worktree %s\nbranch refs/heads/%s\n\n", path, branch)
	}
	return sb.String(), nil
}

func (f *fakeRunner) MergeBase(ref1, ref2 string) (string, error) { return "abc123", nil }
func (f *fakeRunner) DiffRange(base, tip string) (string, error) { return f.diff, nil }

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Build auth module", "build-auth-module"},
		{"Fix: DB pooling (v2)", "fix-db-pooling-v2"},
		{"  spaced   out  ", "spaced-out"},
		{"UPPER Case", "upper-case"},
		{"émoji 🎉 title", "moji-title"},
		{"", "task"},
		{"???", "task"},
		{"multi\nline\r\ntitle", "multi-line-title"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := Slug(tt.title); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSlugTruncation(t *testing.T) {
	long := strings.Repeat("word-", 20)
	got := Slug(long)
	if len(got) > maxSlugLen {
		t.Errorf("len(Slug) = %d, want <= %d", len(got), maxSlugLen)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("Slug = %q, want no trailing hyphen after truncation", got)
	}
}

func TestWorkspaceIdentityDeterministic(t *testing.T) {
	m := NewManager("../ws", "ws/", "prompts", newFakeRunner())
	task := &models.Task{ID: "7", Title: "Implement API endpoints"}

	branch := m.Branch(task)
	path := m.Path(task)

	if branch != "ws/7-implement-api-endpoints" {
		t.Errorf("Branch = %q, want ws/7-implement-api-endpoints", branch)
	}
	if path != filepath.Join("../ws", "7-implement-api-endpoints") {
		t.Errorf("Path = %q", path)
	}

	for i := 0; i < 3; i++ {
		if m.Branch(task) != branch || m.Path(task) != path {
			t.Fatal("identity not stable across calls")
		}
	}
}

func TestWorkspaceIdentityDistinguishesTasksWithSameTitle(t *testing.T) {
	m := NewManager("../ws", "ws/", "prompts", newFakeRunner())
	a := &models.Task{ID: "1", Title: "Refactor"}
	b := &models.Task{ID: "2", Title: "Refactor"}

	if m.Branch(a) == m.Branch(b) {
		t.Errorf("branches collide: %q", m.Branch(a))
	}
	if m.Path(a) == m.Path(b) {
		t.Errorf("paths collide: %q", m.Path(a))
	}
}

func TestEnsureIdempotent(t *testing.T) {
	base := t.TempDir()
	runner := newFakeRunner()
	m := NewManager(base, "ws/", "prompts", runner)
	task := &models.Task{ID: "3", Title: "Add caching"}

	first, err := m.Ensure(task)
	if err != nil {
		t.Fatalf("first Ensure() error = %v", err)
	}
	if first.State != models.WorkspaceCreated {
		t.Errorf("first State = %q, want %q", first.State, models.WorkspaceCreated)
	}

	second, err := m.Ensure(task)
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if second.State != models.WorkspaceExisting {
		t.Errorf("second State = %q, want %q", second.State, models.WorkspaceExisting)
	}
	if first.Branch != second.Branch || first.Path != second.Path {
		t.Errorf("identity changed between calls: %+v vs %+v", first, second)
	}
}

func TestEnsureBranchBoundElsewhere(t *testing.T) {
	base := t.TempDir()
	runner := newFakeRunner()
	m := NewManager(base, "ws/", "prompts", runner)
	task := &models.Task{ID: "4", Title: "Migrate schema"}

	runner.worktrees[m.Branch(task)] = "/somewhere/else"

	_, err := m.Ensure(task)
	if err == nil {
		t.Fatal("Ensure() error = nil, want mismatch error")
	}
	var ce *CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *CreationError", err)
	}
	if ce.TaskID != "4" {
		t.Errorf("CreationError.TaskID = %q, want 4", ce.TaskID)
	}
}

func TestEnsureBranchWithoutWorktree(t *testing.T) {
	base := t.TempDir()
	runner := newFakeRunner()
	m := NewManager(base, "ws/", "prompts", runner)
	task := &models.Task{ID: "5", Title: "Ship it"}

	runner.branches[m.Branch(task)] = true

	_, err := m.Ensure(task)
	if err == nil {
		t.Fatal("Ensure() error = nil, want error for branch with no worktree")
	}
}

func TestPreflight(t *testing.T) {
	runner := newFakeRunner()
	m := NewManager(t.TempDir(), "ws/", "prompts", runner)

	if err := m.Preflight(); err != nil {
		t.Errorf("Preflight() error = %v, want nil", err)
	}

	runner.hasCommits = false
	if err := m.Preflight(); err == nil {
		t.Error("Preflight() = nil for empty repository, want error")
	}

	runner.isRepo = false
	if err := m.Preflight(); err == nil {
		t.Error("Preflight() = nil outside a repository, want error")
	}
}

func TestLookup(t *testing.T) {
	base := t.TempDir()
	runner := newFakeRunner()
	m := NewManager(base, "ws/", "prompts", runner)
	task := &models.Task{ID: "6", Title: "Wire metrics"}

	ws, err := m.Lookup(task)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ws != nil {
		t.Fatalf("Lookup() = %+v before creation, want nil", ws)
	}

	if _, err := m.Ensure(task); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	ws, err = m.Lookup(task)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ws == nil {
		t.Fatal("Lookup() = nil after creation")
	}
	if ws.Branch != m.Branch(task) {
		t.Errorf("Lookup Branch = %q, want %q", ws.Branch, m.Branch(task))
	}
}

func TestWriteRunnerScript(t *testing.T) {
	base := t.TempDir()
	promptDir := t.TempDir()
	runner := newFakeRunner()
	m := NewManager(base, "ws/", promptDir, runner)
	task := &models.Task{ID: "9", Title: "Add search"}

	ws, err := m.Ensure(task)
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if err := os.MkdirAll(ws.Path, 0755); err != nil {
		t.Fatal(err)
	}

	path, err := m.WriteRunnerScript(ws)
	if err != nil {
		t.Fatalf("WriteRunnerScript() error = %v", err)
	}
	if filepath.Base(path) != RunnerScriptName {
		t.Errorf("script name = %q, want %q", filepath.Base(path), RunnerScriptName)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat script: %v", err)
	}
	if info.Mode().Perm()&0100 == 0 {
		t.Errorf("script mode = %v, want owner-executable", info.Mode())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(content)
	if !strings.HasPrefix(text, "#!/bin/sh") {
		t.Errorf("script missing shebang: %q", text[:20])
	}
	if !strings.Contains(text, "9.txt") {
		t.Errorf("script does not reference the task prompt file:\n%s", text)
	}
	if !strings.Contains(text, "claude --print --dangerously-skip-permissions") {
		t.Errorf("script missing agent invocation:\n%s", text)
	}
}
