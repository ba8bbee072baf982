package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskfan/internal/state"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded invocation history",
	Long: `List recent taskfan runs from the local journal. With a run id,
show that run's per-task events instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	journal, err := state.Open(state.DefaultPath("."))
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	if len(args) == 1 {
		return printRunEvents(journal, args[0])
	}

	runs, err := journal.RecentRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		ready := strings.Join(run.ReadyIDs, " ")
		if ready == "" {
			ready = "-"
		}
		fmt.Printf("%s  %-10s tag=%-10s tasks=%s  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Command, run.Tag, ready, run.ID)
	}
	return nil
}

func printRunEvents(journal *state.Journal, runID string) error {
	events, err := journal.Events(runID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No events for this run.")
		return nil
	}
	for _, e := range events {
		fmt.Printf("%s  %-8s %-20s %s\n",
			e.At.Local().Format("15:04:05"), e.TaskID, e.Kind, e.Detail)
	}
	return nil
}
