package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskfan/pkg/models"
)

var setCmd = &cobra.Command{
	Use:   "set <status> <ids...>",
	Short: "Set task statuses in the store",
	Long: `Delegate a status change to the store CLI for each given task.
Valid statuses: pending, in-progress, done, deferred, cancelled.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	status := models.TaskStatus(args[0])
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", args[0])
	}
	ids := args[1:]

	engine := newEngine()
	snap, err := engine.Store.Load()
	if err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Set %s to %s?", strings.Join(ids, " "), status)) {
		fmt.Println("Cancelled.")
		return nil
	}

	var failed int
	for _, id := range ids {
		if err := engine.Store.SetStatus(snap.Tag, id, status); err != nil {
			printStatus("✗", err.Error(), color.FgRed)
			failed++
			continue
		}
		printStatus("✓", fmt.Sprintf("Task %s set to %s", id, status), color.FgGreen)
	}

	if failed > 0 {
		return fmt.Errorf("%d task(s) failed", failed)
	}
	return nil
}
