package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskfan/internal/graph"
	"github.com/ShayCichocki/taskfan/internal/orchestrator"
)

var promptsShow string

var promptsCmd = &cobra.Command{
	Use:   "prompts [ids...]",
	Short: "Generate agent prompt files",
	Long: `Write one instruction document per ready task (or the given ids)
into the prompt directory. With --show, render a single task's prompt to
stdout instead of writing files.`,
	RunE: runPrompts,
}

func init() {
	promptsCmd.Flags().StringVar(&promptsShow, "show", "", "Print the rendered prompt for one task id and exit")
}

func runPrompts(cmd *cobra.Command, args []string) error {
	engine := newEngine()

	if promptsShow != "" {
		snap, err := engine.Store.Load()
		if err != nil {
			return err
		}
		task := graph.New(snap.Tasks).Task(promptsShow)
		if task == nil {
			return fmt.Errorf("unknown task id %q", promptsShow)
		}
		text, err := engine.Prompts.Render(task)
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	}

	rep, err := engine.Kickoff(orchestrator.KickoffOptions{
		IDs:         args,
		PromptsOnly: true,
	})
	if err != nil {
		return err
	}

	if len(rep.PromptFiles) == 0 && len(rep.Errors) == 0 && len(rep.Integrity) == 0 {
		fmt.Println("No ready tasks.")
		return nil
	}

	for id, path := range rep.PromptFiles {
		fmt.Printf("Wrote %s for task %s\n", path, id)
	}

	printReport(rep)
	return reportErr(rep)
}
