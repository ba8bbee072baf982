package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskfan/internal/orchestrator"
	"github.com/ShayCichocki/taskfan/pkg/models"
)

var kickoffDispatch bool
var kickoffNoStart bool

var kickoffCmd = &cobra.Command{
	Use:   "kickoff [ids...]",
	Short: "Prepare workspaces, prompts, and launchers for ready tasks",
	Long: `Full kickoff for a batch of tasks: write the agent prompt, create
the git worktree with its branch, drop a launcher script into the
workspace, and mark the task in-progress in the store.

With explicit ids, readiness is bypassed for those tasks. Failures on one
task never stop the rest of the batch.`,
	RunE: runKickoff,
}

func init() {
	kickoffCmd.Flags().BoolVar(&kickoffDispatch, "dispatch", false, "Launch the agent in each workspace after setup")
	kickoffCmd.Flags().BoolVar(&kickoffNoStart, "no-start", false, "Do not mark tasks in-progress in the store")
}

func runKickoff(cmd *cobra.Command, args []string) error {
	engine := newEngine()

	scope := "all ready tasks"
	if len(args) > 0 {
		scope = strings.Join(args, " ")
	}
	if !confirm(fmt.Sprintf("Proceed with kickoff for %s?", scope)) {
		fmt.Println("Kickoff cancelled.")
		return nil
	}

	dispatch := kickoffDispatch || cfg.Dispatch.Auto
	rep, err := engine.Kickoff(orchestrator.KickoffOptions{
		IDs:            args,
		MarkInProgress: !kickoffNoStart,
		Dispatch:       dispatch,
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
			printStatus("✓", fmt.Sprintf("Created workspace %s (branch %s)", ws.Path, ws.Branch), color.FgGreen)
		} else {
			printStatus("•", fmt.Sprintf("Workspace %s already exists (branch %s)", ws.Path, ws.Branch), color.FgCyan)
		}
	}
	for id, path := range rep.PromptFiles {
		fmt.Printf("Wrote prompt %s for task %s\n", path, id)
	}
	for _, id := range rep.Launched {
		printStatus("✓", fmt.Sprintf("Agent launched for task %s", id), color.FgGreen)
	}

	printReport(rep)
	return reportErr(rep)
}
