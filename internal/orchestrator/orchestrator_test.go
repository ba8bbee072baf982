package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShayCichocki/taskfan/internal/dispatch"
	"github.com/ShayCichocki/taskfan/internal/prompt"
	"github.com/ShayCichocki/taskfan/internal/review"
	"github.com/ShayCichocki/taskfan/internal/store"
	"github.com/ShayCichocki/taskfan/internal/workspace"
	"github.com/ShayCichocki/taskfan/pkg/models"
)

// fakeRunner simulates the git side: branches, worktrees, diffs. Worktree
// directories are actually created so launcher scripts can be written.
type fakeRunner struct {
	worktrees map[string]string
	diff      string
	// failBranches forces worktree creation to fail for these branches.
	failBranches map[string]bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		worktrees:    make(map[string]string),
		failBranches: make(map[string]bool),
	}
}

func (f *fakeRunner) IsRepo() bool { return true }
func (f *fakeRunner) HasCommits() bool { return true }
func (f *fakeRunner) CurrentBranch() (string, error) { return "main", nil }
func (f *fakeRunner) DefaultBranch() (string, error) { return "main", nil }
func (f *fakeRunner) Run(args ...string) (string, error) {
	return "", fmt.Errorf("unexpected git call: %v", args)
}

func (f *fakeRunner) BranchExists(name string) (bool, error) {
	_, ok := f.worktrees[name]
	return ok, nil
}

func (f *fakeRunner) WorktreeAddNewBranch(path, branch, baseRef string) error {
	if f.failBranches[branch] {
		return fmt.Errorf("worktree add refused for %s", branch)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
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

func (f *fakeRunner) MergeBase(ref1, ref2 string) (string, error) { return "base123", nil }
func (f *fakeRunner) DiffRange(base, tip string) (string, error) { return f.diff, nil }

// newTestEngine builds an engine over a temp store file and a fake git
// runner. No journal, no external processes.
func newTestEngine(t *testing.T, tasksJSON string) (*Engine, *fakeRunner) {
	t.Helper()
	dir := t.TempDir()

	tasksPath := filepath.Join(dir, "tasks.json")
	if err := os.WriteFile(tasksPath, []byte(tasksJSON), 0644); err != nil {
		t.Fatal(err)
	}

	runner := newFakeRunner()
	manager := workspace.NewManager(filepath.Join(dir, "ws"), "ws/", filepath.Join(dir, "prompts"), runner)

	return &Engine{
		Store:      store.NewClient("", tasksPath, filepath.Join(dir, "state.json"), "master"),
		Workspaces: manager,
		Prompts:    prompt.NewGenerator(filepath.Join(dir, "prompts")),
		Reviews:    review.NewCollector(manager, runner, filepath.Join(dir, "reviews")),
		Launcher:   dispatch.NewLauncher(""),
	}, runner
}

const threeTaskSnapshot = `{
	"tags": {
		"master": {
			"tasks": [
				{"id": 1, "title": "Foundation", "status": "done"},
				{"id": 2, "title": "Build API", "status": "pending", "dependencies": [1]},
				{"id": 3, "title": "Build UI", "status": "pending", "dependencies": [1]}
			]
		}
	}
}`

func TestKickoffReadySet(t *testing.T) {
	engine, runner := newTestEngine(t, threeTaskSnapshot)

	rep, err := engine.Kickoff(KickoffOptions{})
	if err != nil {
		t.Fatalf("Kickoff() error = %v", err)
	}

	if len(rep.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", rep.Errors)
	}
	if len(rep.Workspaces) != 2 {
		t.Fatalf("len(Workspaces) = %d, want 2", len(rep.Workspaces))
	}
	if len(rep.PromptFiles) != 2 {
		t.Fatalf("PromptFiles = %v, want entries for 2 and 3", rep.PromptFiles)
	}

	for _, ws := range rep.Workspaces {
		if ws.State != models.WorkspaceCreated {
			t.Errorf("workspace %s State = %q, want created", ws.TaskID, ws.State)
		}
		script := filepath.Join(ws.Path, workspace.RunnerScriptName)
		if _, err := os.Stat(script); err != nil {
			t.Errorf("runner script missing for task %s: %v", ws.TaskID, err)
		}
	}
	if len(runner.worktrees) != 2 {
		t.Errorf("worktrees = %v, want 2 entries", runner.worktrees)
	}
}

func TestKickoffIsIdempotent(t *testing.T) {
	engine, _ := newTestEngine(t, threeTaskSnapshot)

	if _, err := engine.Kickoff(KickoffOptions{}); err != nil {
		t.Fatal(err)
	}
	rep, err := engine.Kickoff(KickoffOptions{})
	if err != nil {
		t.Fatalf("second Kickoff() error = %v", err)
	}

	if len(rep.Errors) != 0 {
		t.Fatalf("Errors = %v, want none on re-run", rep.Errors)
	}
	for _, ws := range rep.Workspaces {
		if ws.State != models.WorkspaceExisting {
			t.Errorf("workspace %s State = %q, want existing", ws.TaskID, ws.State)
		}
	}
}

func TestKickoffCollectsAllFailures(t *testing.T) {
	engine, runner := newTestEngine(t, threeTaskSnapshot)

	// Task 2's worktree creation fails; task 3 must still be processed.
	runner.failBranches["ws/2-build-api"] = true

	rep, err := engine.Kickoff(KickoffOptions{})
	if err != nil {
		t.Fatalf("Kickoff() error = %v, want per-task failure collection", err)
	}

	if len(rep.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", rep.Errors)
	}
	var te *TaskError
	if !errors.As(rep.Errors[0], &te) {
		t.Fatalf("error type = %T, want *TaskError", rep.Errors[0])
	}
	if te.TaskID != "2" {
		t.Errorf("failed task = %q, want 2", te.TaskID)
	}

	if len(rep.Workspaces) != 1 || rep.Workspaces[0].TaskID != "3" {
		t.Errorf("Workspaces = %+v, want task 3 only", rep.Workspaces)
	}
}

func TestKickoffExplicitUnknownID(t *testing.T) {
	engine, _ := newTestEngine(t, threeTaskSnapshot)

	rep, err := engine.Kickoff(KickoffOptions{IDs: []string{"2", "99"}})
	if err != nil {
		t.Fatalf("Kickoff() error = %v", err)
	}

	if len(rep.Errors) != 1 {
		t.Fatalf("Errors = %v, want one for the unknown id", rep.Errors)
	}
	var te *TaskError
	if !errors.As(rep.Errors[0], &te) || te.TaskID != "99" {
		t.Errorf("error = %v, want unknown-id failure for 99", rep.Errors[0])
	}
	if len(rep.Workspaces) != 1 || rep.Workspaces[0].TaskID != "2" {
		t.Errorf("Workspaces = %+v, want task 2 only", rep.Workspaces)
	}
}

func TestKickoffPromptsOnly(t *testing.T) {
	engine, runner := newTestEngine(t, threeTaskSnapshot)

	rep, err := engine.Kickoff(KickoffOptions{PromptsOnly: true})
	if err != nil {
		t.Fatalf("Kickoff() error = %v", err)
	}

	if len(rep.PromptFiles) != 2 {
		t.Errorf("PromptFiles = %v, want 2 entries", rep.PromptFiles)
	}
	if len(rep.Workspaces) != 0 || len(runner.worktrees) != 0 {
		t.Errorf("workspaces created in prompts-only mode: %+v", rep.Workspaces)
	}
}

func TestKickoffWorkspacesOnly(t *testing.T) {
	engine, _ := newTestEngine(t, threeTaskSnapshot)

	rep, err := engine.Kickoff(KickoffOptions{WorkspacesOnly: true})
	if err != nil {
		t.Fatalf("Kickoff() error = %v", err)
	}

	if len(rep.Workspaces) != 2 {
		t.Errorf("Workspaces = %+v, want 2", rep.Workspaces)
	}
	if len(rep.PromptFiles) != 0 {
		t.Errorf("PromptFiles = %v, want none in workspaces-only mode", rep.PromptFiles)
	}
}

func TestKickoffStoreUnavailableAborts(t *testing.T) {
	engine, _ := newTestEngine(t, threeTaskSnapshot)
	engine.Store.TasksFile = filepath.Join(t.TempDir(), "absent.json")

	_, err := engine.Kickoff(KickoffOptions{})
	if err == nil {
		t.Fatal("Kickoff() error = nil, want store-unavailable abort")
	}
	var ue *store.UnavailableError
	if !errors.As(err, &ue) {
		t.Errorf("error type = %T, want *store.UnavailableError", err)
	}
}

func TestKickoffReportsIntegrityProblems(t *testing.T) {
	snapshot := `{
		"tags": {
			"master": {
				"tasks": [
					{"id": 1, "title": "Orphan dep", "status": "pending", "dependencies": [9]},
					{"id": 2, "title": "Fine", "status": "pending"}
				]
			}
		}
	}`
	engine, _ := newTestEngine(t, snapshot)

	rep, err := engine.Kickoff(KickoffOptions{})
	if err != nil {
		t.Fatalf("Kickoff() error = %v", err)
	}

	if len(rep.Integrity) != 1 {
		t.Fatalf("Integrity = %v, want one missing-prerequisite error", rep.Integrity)
	}
	if rep.Integrity[0].TaskID != "1" {
		t.Errorf("integrity TaskID = %q, want 1", rep.Integrity[0].TaskID)
	}
	if len(rep.Workspaces) != 1 || rep.Workspaces[0].TaskID != "2" {
		t.Errorf("Workspaces = %+v, want task 2 only", rep.Workspaces)
	}
}

func TestCollectReviews(t *testing.T) {
	snapshot := `{
		"tags": {
			"master": {
				"tasks": [
					{"id": 1, "title": "Active", "status": "in-progress"},
					{"id": 2, "title": "Waiting", "status": "pending"}
				]
			}
		}
	}`
	engine, runner := newTestEngine(t, snapshot)
	runner.diff = "diff --git a/f b/f\n+line\n"

	// Materialize task 1's workspace so there is something to review.
	if _, err := engine.Kickoff(KickoffOptions{IDs: []string{"1"}}); err != nil {
		t.Fatal(err)
	}

	rep, err := engine.CollectReviews(ReviewOptions{})
	if err != nil {
		t.Fatalf("CollectReviews() error = %v", err)
	}

	if len(rep.Errors) != 0 {
		t.Fatalf("Errors = %v, want none", rep.Errors)
	}
	// Only the in-progress task is reviewed by default.
	if len(rep.ReviewFiles) != 1 {
		t.Fatalf("ReviewFiles = %v, want task 1 only", rep.ReviewFiles)
	}
	path, ok := rep.ReviewFiles["1"]
	if !ok {
		t.Fatalf("ReviewFiles = %v, missing task 1", rep.ReviewFiles)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "+line") {
		t.Errorf("review document missing diff:\n%s", content)
	}
	if len(rep.EmptyDiffs) != 0 {
		t.Errorf("EmptyDiffs = %v, want none", rep.EmptyDiffs)
	}
}

func TestCollectReviewsEmptyDiffFlagged(t *testing.T) {
	snapshot := `{
		"tags": {
			"master": {
				"tasks": [
					{"id": 1, "title": "Idle", "status": "in-progress"}
				]
			}
		}
	}`
	engine, _ := newTestEngine(t, snapshot)

	if _, err := engine.Kickoff(KickoffOptions{IDs: []string{"1"}}); err != nil {
		t.Fatal(err)
	}

	rep, err := engine.CollectReviews(ReviewOptions{})
	if err != nil {
		t.Fatalf("CollectReviews() error = %v", err)
	}
	if len(rep.EmptyDiffs) != 1 || rep.EmptyDiffs[0] != "1" {
		t.Errorf("EmptyDiffs = %v, want [1]", rep.EmptyDiffs)
	}
	if _, ok := rep.ReviewFiles["1"]; !ok {
		t.Error("empty diff did not produce a review document")
	}
}

func TestCollectReviewsNoWorkspace(t *testing.T) {
	snapshot := `{
		"tags": {
			"master": {
				"tasks": [
					{"id": 1, "title": "Never started", "status": "in-progress"}
				]
			}
		}
	}`
	engine, _ := newTestEngine(t, snapshot)

	rep, err := engine.CollectReviews(ReviewOptions{})
	if err != nil {
		t.Fatalf("CollectReviews() error = %v", err)
	}

	if len(rep.Errors) != 1 {
		t.Fatalf("Errors = %v, want one not-found failure", rep.Errors)
	}
	var nf *review.NotFoundError
	if !errors.As(rep.Errors[0], &nf) {
		t.Errorf("error = %v, want *review.NotFoundError", rep.Errors[0])
	}
}

func TestVerify(t *testing.T) {
	engine, _ := newTestEngine(t, threeTaskSnapshot)

	if _, err := engine.Kickoff(KickoffOptions{IDs: []string{"2"}}); err != nil {
		t.Fatal(err)
	}

	results, _, err := engine.Verify([]string{"2", "3"})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	if !results[0].DirOK || !results[0].BranchOK {
		t.Errorf("task 2 verify = %+v, want dir and branch present", results[0])
	}
	if results[1].DirOK || results[1].BranchOK {
		t.Errorf("task 3 verify = %+v, want nothing present", results[1])
	}
	if results[0].Status != models.TaskStatusPending {
		t.Errorf("task 2 status = %q, want pending", results[0].Status)
	}
}

func TestResolve(t *testing.T) {
	engine, _ := newTestEngine(t, threeTaskSnapshot)

	snap, res, err := engine.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if snap.Tag != "master" {
		t.Errorf("Tag = %q, want master", snap.Tag)
	}
	want := []string{"2", "3"}
	if len(res.Ready) != 2 || res.Ready[0] != want[0] || res.Ready[1] != want[1] {
		t.Errorf("Ready = %v, want %v", res.Ready, want)
	}
}
