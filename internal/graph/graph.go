// Package graph computes task readiness from a dependency snapshot.
//
// The resolver operates on an immutable snapshot of the external store:
// each invocation builds a fresh Resolver, resolves once, and discards it.
// The dependency graph is held as an explicit adjacency map so integrity
// checks and cycle detection are plain traversals over a value.
package graph

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/ShayCichocki/taskfan/pkg/models"
)

// IntegrityKind classifies a data-integrity problem in the task snapshot.
type IntegrityKind string

const (
	// MissingPrerequisite indicates a dependency id that resolves to no
	// known task.
	MissingPrerequisite IntegrityKind = "missing-prerequisite"
	// DependencyCycle indicates the task sits on a dependency cycle.
	DependencyCycle IntegrityKind = "dependency-cycle"
)

// IntegrityError reports a data-integrity problem for a single task.
// It never aborts resolution of other tasks.
type IntegrityError struct {
	// TaskID is the task the error applies to.
	TaskID string
	// Kind classifies the problem.
	Kind IntegrityKind
	// Detail names the offending ids (the missing prerequisite, or the
	// cycle members).
	Detail string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("task %s: %s: %s", e.TaskID, e.Kind, e.Detail)
}

// BlockedTask describes a pending task whose prerequisites are not yet done.
type BlockedTask struct {
	// TaskID is the blocked task.
	TaskID string
	// BlockedBy lists the prerequisite ids that are not done.
	BlockedBy []string
}

// Resolution is the outcome of resolving one snapshot.
type Resolution struct {
	// Ready lists ids of tasks that are pending with all prerequisites
	// done, in ascending id order.
	Ready []string
	// Blocked lists pending tasks waiting on unfinished prerequisites.
	Blocked []BlockedTask
	// Errors lists per-task integrity problems (missing prerequisite or
	// cycle). Tasks with an integrity error are never ready.
	Errors []*IntegrityError
}

// Resolver holds one immutable task snapshot and its adjacency map.
type Resolver struct {
	// nodes maps task id to the task itself.
	nodes map[string]*models.Task
	// edges maps task id to the ids of its prerequisites.
	edges map[string][]string
	// ids holds all task ids in ascending order for deterministic output.
	ids []string
}

// New builds a resolver from a task snapshot. Duplicate ids keep the first
// occurrence.
func New(tasks []*models.Task) *Resolver {
	r := &Resolver{
		nodes: make(map[string]*models.Task, len(tasks)),
		edges: make(map[string][]string, len(tasks)),
	}
	for _, task := range tasks {
		if _, exists := r.nodes[task.ID]; exists {
			continue
		}
		r.nodes[task.ID] = task
		r.edges[task.ID] = task.Dependencies
		r.ids = append(r.ids, task.ID)
	}
	SortIDs(r.ids)
	return r
}

// Task returns the task for a given id, or nil if not found.
func (r *Resolver) Task(id string) *models.Task {
	return r.nodes[id]
}

// Size returns the number of tasks in the snapshot.
func (r *Resolver) Size() int {
	return len(r.nodes)
}

// Resolve computes the ready set, the blocked set, and all integrity
// errors for the snapshot. A task is ready iff its status is pending and
// every prerequisite id resolves to a known task with status done. A
// missing prerequisite or a dependency cycle excludes the task from the
// ready set and is reported, never silently treated as satisfied.
func (r *Resolver) Resolve() *Resolution {
	res := &Resolution{}
	cyclic := r.cycleMembers()

	for _, id := range r.ids {
		task := r.nodes[id]
		if task.Status != models.TaskStatusPending {
			continue
		}

		if members, ok := cyclic[id]; ok {
			res.Errors = append(res.Errors, &IntegrityError{
				TaskID: id,
				Kind:   DependencyCycle,
				Detail: fmt.Sprintf("cycle through %v", members),
			})
			continue
		}

		var missing, waiting []string
		for _, depID := range r.edges[id] {
			dep, exists := r.nodes[depID]
			if !exists {
				missing = append(missing, depID)
				continue
			}
			if !dep.Status.Satisfies() {
				waiting = append(waiting, depID)
			}
		}

		switch {
		case len(missing) > 0:
			for _, depID := range missing {
				res.Errors = append(res.Errors, &IntegrityError{
					TaskID: id,
					Kind:   MissingPrerequisite,
					Detail: fmt.Sprintf("depends on unknown task %s", depID),
				})
			}
		case len(waiting) > 0:
			res.Blocked = append(res.Blocked, BlockedTask{TaskID: id, BlockedBy: waiting})
		default:
			res.Ready = append(res.Ready, id)
		}
	}

	return res
}

// cycleMembers returns, for every task sitting on a dependency cycle, the
// ids forming its cycle. Uses depth-first search with coloring; a back
// edge to a gray node marks every node on the current path from that node
// as cyclic.
func (r *Resolver) cycleMembers() map[string][]string {
	// Color states: 0 = white (unvisited), 1 = gray (on stack), 2 = black (done).
	colors := make(map[string]int, len(r.nodes))
	members := make(map[string][]string)

	var stack []string
	var visit func(id string)
	visit = func(id string) {
		colors[id] = 1
		stack = append(stack, id)

		for _, depID := range r.edges[id] {
			if _, exists := r.nodes[depID]; !exists {
				// Missing prerequisite, reported separately.
				continue
			}
			switch colors[depID] {
			case 1:
				// Back edge: everything from depID to the top of the
				// stack is on the cycle.
				start := 0
				for i, sid := range stack {
					if sid == depID {
						start = i
						break
					}
				}
				cycle := append([]string(nil), stack[start:]...)
				SortIDs(cycle)
				for _, cid := range cycle {
					members[cid] = cycle
				}
			case 0:
				visit(depID)
			}
		}

		stack = stack[:len(stack)-1]
		colors[id] = 2
	}

	for _, id := range r.ids {
		if colors[id] == 0 {
			visit(id)
		}
	}

	return members
}

// SortIDs orders task ids ascending. Numeric ids (including dotted
// subtask ids like "3.1") sort numerically; anything else falls back to
// lexicographic order after the numeric block.
func SortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, aErr := strconv.ParseFloat(ids[i], 64)
		b, bErr := strconv.ParseFloat(ids[j], 64)
		switch {
		case aErr == nil && bErr == nil:
			if a != b {
				return a < b
			}
			return ids[i] < ids[j]
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
