package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ShayCichocki/taskfan/pkg/models"
)

// RunnerScriptName is the launcher script written into each workspace.
const RunnerScriptName = "run-agent.sh"

// runnerScript is the fixed-shape launcher written into every workspace.
// It is inert data: taskfan never interprets it, it only exists so the
// external agent can be started independently of taskfan's own lifetime.
const runnerScript = `#!/bin/sh
# Launcher for the coding agent working on task %s.
# Generated by taskfan; safe to re-run.

PROMPT=%q

if [ ! -f "$PROMPT" ]; then
    echo "prompt file not found: $PROMPT" >&2
    exit 1
fi

exec claude --print --dangerously-skip-permissions < "$PROMPT"
`

// WriteRunnerScript writes the agent launcher into the workspace,
// pointing at the task's prompt file. Overwrites any previous script so
// re-runs stay consistent with the current prompt location.
func (m *Manager) WriteRunnerScript(ws *models.Workspace) (string, error) {
	promptPath, err := filepath.Abs(filepath.Join(m.promptDir, ws.TaskID+".txt"))
	if err != nil {
		return "", fmt.Errorf("resolve prompt path for task %s: %w", ws.TaskID, err)
	}

	scriptPath := filepath.Join(ws.Path, RunnerScriptName)
	content := fmt.Sprintf(runnerScript, ws.TaskID, promptPath)
	if err := os.WriteFile(scriptPath, []byte(content), 0755); err != nil {
		return "", fmt.Errorf("write runner script for task %s: %w", ws.TaskID, err)
	}
	return scriptPath, nil
}
