package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskfan/internal/orchestrator"
)

var reviewDispatch bool

var reviewCmd = &cobra.Command{
	Use:   "review [ids...]",
	Short: "Collect workspace diffs into review request documents",
	Long: `Diff each task's workspace branch against the mainline merge base
and write a structured review request per task. Without ids, every
in-progress task is reviewed. A workspace with no changes yet still gets
a document, flagged as empty.

With --dispatch, each document is fed to the review agent and its
response saved alongside the request.`,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewDispatch, "dispatch", false, "Send each review request to the review agent")
}

func runReview(cmd *cobra.Command, args []string) error {
	engine := newEngine()

	rep, err := engine.CollectReviews(orchestrator.ReviewOptions{
		IDs:      args,
		Dispatch: reviewDispatch,
	})
	if err != nil {
		return err
	}

	if len(rep.ReviewFiles) == 0 && len(rep.Errors) == 0 {
		fmt.Println("No tasks to review.")
		return nil
	}

	empty := make(map[string]bool, len(rep.EmptyDiffs))
	for _, id := range rep.EmptyDiffs {
		empty[id] = true
	}

	for id, path := range rep.ReviewFiles {
		if empty[id] {
			printStatus("!", fmt.Sprintf("Wrote %s for task %s (no changes yet)", path, id), color.FgYellow)
		} else {
			printStatus("✓", fmt.Sprintf("Wrote %s for task %s", path, id), color.FgGreen)
		}
	}
	for _, id := range rep.Launched {
		printStatus("✓", fmt.Sprintf("Review response saved for task %s", id), color.FgGreen)
	}

	printReport(rep)
	return reportErr(rep)
}
