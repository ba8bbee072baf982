// Package prompt renders task records into self-contained instruction
// documents for an external coding agent.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/ShayCichocki/taskfan/pkg/models"
)

// promptTemplate is the fixed instruction document shape. Rendering is a
// pure function of the task snapshot: the same task always yields the
// same text.
const promptTemplate = `You are an implementation agent for Task #{{.ID}}
Title: {{.Title}}
Status: {{.Status}}  Priority: {{.Priority}}
Dependencies: {{.Dependencies}}
Description:
{{.Description}}

Implementation Details:
{{.Details}}

Test Strategy:
{{.TestStrategy}}

Deliverables:
- [ ] Code commits / PRs
- [ ] README/Notes
- [ ] Tests per strategy

Instructions:
1. Work contract-first. Do not change external contracts unless stated.
2. If blocked by deps, stub/mocks allowed - note the assumptions.
3. Output incremental patches or code blocks.
4. Ask for missing info explicitly.
5. Keep messages short; show only the diff/command snippets.
`

// Generator renders and writes agent prompts.
type Generator struct {
	dir  string
	tmpl *template.Template
}

// NewGenerator creates a generator writing prompt files under dir.
func NewGenerator(dir string) *Generator {
	return &Generator{
		dir:  dir,
		tmpl: template.Must(template.New("prompt").Parse(promptTemplate)),
	}
}

// promptData is the template input, with empty fields already defaulted.
type promptData struct {
	ID           string
	Title        string
	Status       models.TaskStatus
	Priority     string
	Dependencies string
	Description  string
	Details      string
	TestStrategy string
}

// Render produces the instruction document for a task.
func (g *Generator) Render(task *models.Task) (string, error) {
	data := promptData{
		ID:           task.ID,
		Title:        task.Title,
		Status:       task.Status,
		Priority:     orDefault(task.Priority, "medium"),
		Dependencies: strings.Join(task.Dependencies, ", "),
		Description:  orDefault(task.Description, "(none)"),
		Details:      orDefault(task.Details, "(none)"),
		TestStrategy: orDefault(task.TestStrategy, "(none)"),
	}

	var sb strings.Builder
	if err := g.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt for task %s: %w", task.ID, err)
	}
	return sb.String(), nil
}

// PathFor returns the prompt file path for a task id.
func (g *Generator) PathFor(taskID string) string {
	return filepath.Join(g.dir, taskID+".txt")
}

// Write renders the prompt and writes it to the task's prompt file,
// creating the prompt directory if needed. Returns the file path.
func (g *Generator) Write(task *models.Task) (string, error) {
	text, err := g.Render(task)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return "", fmt.Errorf("create prompt directory: %w", err)
	}
	path := g.PathFor(task.ID)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("write prompt for task %s: %w", task.ID, err)
	}
	return path, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
