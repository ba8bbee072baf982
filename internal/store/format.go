package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ShayCichocki/taskfan/pkg/models"
)

// flexID accepts the store's task ids, which appear both as JSON numbers
// and as strings depending on the file's age.
type flexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("task id must be a string or number: %s", string(data))
	}
	*f = flexID(n.String())
	return nil
}

// storeTask mirrors one task record in the tasks file.
type storeTask struct {
	ID           flexID      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Details      string      `json:"details"`
	TestStrategy string      `json:"testStrategy"`
	Priority     string      `json:"priority"`
	Status       string      `json:"status"`
	Dependencies []flexID    `json:"dependencies"`
	Subtasks     []storeTask `json:"subtasks"`
}

// tagBlock is the per-tag container in the tasks file.
type tagBlock struct {
	Tasks []storeTask `json:"tasks"`
}

// tasksFile is the parsed tasks file, tolerating both the current layout
// ({"tags": {"master": {...}}}) and the legacy layout where tags sit at
// the top level next to a "metadata" key.
type tasksFile struct {
	tags map[string]tagBlock
	// order holds tag names sorted ascending so firstTag is deterministic.
	order []string
}

// parseTasksFile decodes the tasks file into a tag map.
func parseTasksFile(path string, raw []byte) (*tasksFile, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, &FormatError{Path: path, Detail: fmt.Sprintf("invalid JSON: %v", err)}
	}

	doc := &tasksFile{tags: make(map[string]tagBlock)}

	if tagged, ok := top["tags"]; ok {
		var tags map[string]tagBlock
		if err := json.Unmarshal(tagged, &tags); err != nil {
			return nil, &FormatError{Path: path, Detail: fmt.Sprintf("invalid tags object: %v", err)}
		}
		for name, block := range tags {
			doc.tags[name] = block
			doc.order = append(doc.order, name)
		}
		sort.Strings(doc.order)
		return doc, nil
	}

	// Legacy layout: each top-level key except "metadata" is a tag.
	for name, rawBlock := range top {
		if name == "metadata" {
			continue
		}
		var block tagBlock
		if err := json.Unmarshal(rawBlock, &block); err != nil {
			// Non-tag top-level values are skipped, matching the store's
			// own tolerance of extra keys.
			continue
		}
		if block.Tasks == nil {
			continue
		}
		doc.tags[name] = block
		doc.order = append(doc.order, name)
	}
	sort.Strings(doc.order)
	return doc, nil
}

// firstTag returns the first tag found in the file, or "".
func (d *tasksFile) firstTag() string {
	if len(d.order) == 0 {
		return ""
	}
	return d.order[0]
}

// tasksForTag converts the records under a tag into model tasks, parents
// first, each parent's subtasks flattened in after it. A record missing
// its id, title, or carrying an unknown status is a FormatError.
func (d *tasksFile) tasksForTag(path, tag string) ([]*models.Task, error) {
	block, ok := d.tags[tag]
	if !ok {
		// Unknown tag is an empty scope, not a format problem.
		return nil, nil
	}

	var out []*models.Task
	for _, st := range block.Tasks {
		parent, err := st.toModel(path, "")
		if err != nil {
			return nil, err
		}
		out = append(out, parent)
		for _, sub := range st.Subtasks {
			child, err := sub.toModel(path, parent.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
	}
	return out, nil
}

// toModel validates and converts one record. Subtask ids and their
// sibling-relative dependencies are qualified with the parent id, the way
// the store itself addresses them (e.g. "5.2").
func (st *storeTask) toModel(path, parentID string) (*models.Task, error) {
	id := string(st.ID)
	if id == "" {
		return nil, &FormatError{Path: path, Detail: fmt.Sprintf("task %q has no id", st.Title)}
	}
	if parentID != "" && !strings.Contains(id, ".") {
		id = parentID + "." + id
	}
	if st.Title == "" {
		return nil, &FormatError{Path: path, Detail: fmt.Sprintf("task %s has no title", id)}
	}
	status := models.TaskStatus(st.Status)
	if !status.Valid() {
		return nil, &FormatError{Path: path, Detail: fmt.Sprintf("task %s has unknown status %q", id, st.Status)}
	}

	deps := make([]string, 0, len(st.Dependencies))
	for _, dep := range st.Dependencies {
		depID := string(dep)
		if parentID != "" && !strings.Contains(depID, ".") {
			depID = parentID + "." + depID
		}
		deps = append(deps, depID)
	}
	if len(deps) == 0 {
		deps = nil
	}

	return &models.Task{
		ID:           id,
		Title:        st.Title,
		Description:  st.Description,
		Details:      st.Details,
		TestStrategy: st.TestStrategy,
		Priority:     st.Priority,
		Status:       status,
		Dependencies: deps,
	}, nil
}
