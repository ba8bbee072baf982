package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [ids...]",
	Short: "Mark tasks in-progress in the store",
	Long: `Set each given task (or every ready task) to in-progress through
the store CLI. No workspaces or prompts are touched.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	engine := newEngine()

	scope := "all ready tasks"
	if len(args) > 0 {
		scope = strings.Join(args, " ")
	}
	if !confirm(fmt.Sprintf("Mark %s in-progress?", scope)) {
		fmt.Println("Cancelled.")
		return nil
	}

	rep, err := engine.Start(args)
	if err != nil {
		return err
	}

	failed := make(map[string]bool, len(rep.Errors))
	for _, e := range rep.Errors {
		failed[taskIDOf(e)] = true
	}

	started := args
	if len(started) == 0 {
		started = rep.Ready
	}
	for _, id := range started {
		if !failed[id] {
			printStatus("✓", fmt.Sprintf("Task %s in-progress", id), color.FgGreen)
		}
	}
	if len(started) == 0 {
		fmt.Println("No ready tasks.")
	}

	printReport(rep)
	return reportErr(rep)
}
