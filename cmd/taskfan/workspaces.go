package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskfan/internal/orchestrator"
	"github.com/ShayCichocki/taskfan/pkg/models"
)

var workspacesCmd = &cobra.Command{
	Use:   "workspaces [ids...]",
	Short: "Create worktree workspaces without prompts or status changes",
	Long: `Materialize a git worktree and branch for each ready task (or the
given ids) without touching prompts or the store. Re-running is safe:
an existing workspace is reported, never recreated.`,
	RunE: runWorkspaces,
}

func runWorkspaces(cmd *cobra.Command, args []string) error {
	engine := newEngine()

	rep, err := engine.Kickoff(orchestrator.KickoffOptions{
		IDs:            args,
		WorkspacesOnly: true,
	})
	if err != nil {
		return err
	}

	if len(rep.Workspaces) == 0 && len(rep.Errors) == 0 && len(rep.Integrity) == 0 {
		fmt.Println("No ready tasks.")
		return nil
	}

	for _, ws := range rep.Workspaces {
		if ws.State == models.WorkspaceCreated {
			printStatus("✓", fmt.Sprintf("Created %s (branch %s)", ws.Path, ws.Branch), color.FgGreen)
		} else {
			printStatus("•", fmt.Sprintf("Exists  %s (branch %s)", ws.Path, ws.Branch), color.FgCyan)
		}
	}

	printReport(rep)
	return reportErr(rep)
}
