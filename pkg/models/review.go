package models

// ReviewRequest combines a task's metadata with the code delta produced in
// its workspace. It is generated fresh on demand and has no lifecycle of
// its own beyond the document it renders to.
type ReviewRequest struct {
	// TaskID is the task under review.
	TaskID string `json:"task_id"`
	// Title is the task title at collection time.
	Title string `json:"title"`
	// Description is the task description at collection time.
	Description string `json:"description,omitempty"`
	// TestStrategy is the task's acceptance criteria.
	TestStrategy string `json:"test_strategy,omitempty"`
	// Branch is the workspace branch the diff was taken from.
	Branch string `json:"branch"`
	// BaseRef is the ref the diff is relative to (the merge base).
	BaseRef string `json:"base_ref"`
	// Diff is the textual change-set. Empty when no changes exist yet.
	Diff string `json:"diff"`
}

// Empty returns true when the workspace has no changes relative to its
// base. An empty diff is a valid state, not an error; callers decide
// whether to proceed.
func (r *ReviewRequest) Empty() bool {
	return r.Diff == ""
}
