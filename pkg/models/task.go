// Package models defines the shared data types for taskfan.
package models

// TaskStatus represents the current state of a task in the external store.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in-progress"
	// TaskStatusDone indicates the task completed successfully.
	TaskStatusDone TaskStatus = "done"
	// TaskStatusDeferred indicates the task has been postponed.
	TaskStatusDeferred TaskStatus = "deferred"
	// TaskStatusCancelled indicates the task will not be done.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusDeferred, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Satisfies returns true if a prerequisite with this status unblocks its
// dependents. Only completed work counts; deferred and cancelled
// prerequisites keep their dependents blocked.
func (s TaskStatus) Satisfies() bool {
	return s == TaskStatusDone
}

// Task is a read-only snapshot of a unit of work owned by the external
// task store. taskfan never mutates a Task in place; status changes are
// delegated back to the store.
type Task struct {
	// ID is the store's stable identifier for this task.
	ID string `json:"id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Details holds implementation notes from the store.
	Details string `json:"details,omitempty"`
	// TestStrategy describes how the work should be verified.
	TestStrategy string `json:"testStrategy,omitempty"`
	// Priority is the store's priority label (low, medium, high).
	Priority string `json:"priority,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Dependencies lists task IDs that must complete before this task.
	Dependencies []string `json:"dependencies,omitempty"`
}
