// Package dispatch starts external agent processes.
//
// taskfan's boundary ends at handing a prompt or review document to the
// agent CLI. Agent launches are fire-and-forget: once started, the process
// is never supervised, and its lifetime is independent of taskfan's.
package dispatch

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Launcher invokes the external agent CLI.
type Launcher struct {
	bin string
}

// NewLauncher creates a launcher for the given agent binary. Empty means
// the claude CLI.
func NewLauncher(bin string) *Launcher {
	if bin == "" {
		bin = "claude"
	}
	return &Launcher{bin: bin}
}

// Available returns true if the agent CLI is on PATH.
func (l *Launcher) Available() bool {
	_, err := exec.LookPath(l.bin)
	return err == nil
}

// LaunchAgent starts the workspace's runner script detached, with output
// going to agent.log inside the workspace. Returns as soon as the process
// has started; failures after that point belong to the agent, not taskfan.
func (l *Launcher) LaunchAgent(scriptPath, workdir string) error {
	logFile, err := os.Create(filepath.Join(workdir, "agent.log"))
	if err != nil {
		return fmt.Errorf("create agent log: %w", err)
	}

	cmd := exec.Command("/bin/sh", scriptPath)
	cmd.Dir = workdir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return fmt.Errorf("start agent: %w", err)
	}

	// Detach: the agent outlives this invocation.
	logFile.Close()
	return cmd.Process.Release()
}

// Review feeds a review document to the agent CLI and returns its
// response. Unlike LaunchAgent this waits, since the caller wants the
// reviewer's output back.
func (l *Launcher) Review(document string) (string, error) {
	if !l.Available() {
		return "", fmt.Errorf("%s CLI not found in PATH", l.bin)
	}

	cmd := exec.Command(l.bin, "--print", "--dangerously-skip-permissions")
	cmd.Stdin = strings.NewReader(document)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("run review agent: %w", err)
	}
	return string(out), nil
}
