package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [ids...]",
	Short: "Check kickoff artifacts for tasks",
	Long: `Report, for each given task (or every ready task), whether its
workspace directory exists, whether its branch exists, and its current
status in the store. Read-only.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	engine := newEngine()

	results, rep, err := engine.Verify(args)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No tasks to verify.")
		printReport(rep)
		return reportErr(rep)
	}

	fmt.Printf("%-8s %-6s %-8s %s\n", "TASK", "DIR", "BRANCH", "STATUS")
	for _, r := range results {
		fmt.Printf("%-8s %-6s %-8s %s\n", r.TaskID, mark(r.DirOK), mark(r.BranchOK), r.Status)
	}

	printReport(rep)
	return reportErr(rep)
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
