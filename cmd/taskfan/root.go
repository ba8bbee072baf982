package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskfan/internal/config"
	"github.com/ShayCichocki/taskfan/internal/dispatch"
	"github.com/ShayCichocki/taskfan/internal/git"
	"github.com/ShayCichocki/taskfan/internal/orchestrator"
	"github.com/ShayCichocki/taskfan/internal/prompt"
	"github.com/ShayCichocki/taskfan/internal/review"
	"github.com/ShayCichocki/taskfan/internal/state"
	"github.com/ShayCichocki/taskfan/internal/store"
	"github.com/ShayCichocki/taskfan/internal/workspace"
)

var cfg *config.Config

// assumeYes skips interactive confirmations (--yes).
var assumeYes bool

var rootCmd = &cobra.Command{
	Use:   "taskfan",
	Short: "Fan out ready tasks into parallel agent workspaces",
	Long: `taskfan reads a Task Master project, computes which tasks are
unblocked (pending with every dependency done), and prepares one isolated
git worktree per ready task, each with its own branch, agent prompt, and
launcher script. Later it collects each workspace's diff into a structured
review request.

The real parallelism happens outside taskfan: one external agent process
per workspace, started independently of taskfan's own lifetime.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Skip confirmation prompts")

	rootCmd.AddCommand(readyCmd)
	rootCmd.AddCommand(kickoffCmd)
	rootCmd.AddCommand(workspacesCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// newEngine wires the orchestrator from the loaded config. The journal is
// best-effort: a failure to open it disables history but not the command.
func newEngine() *orchestrator.Engine {
	runner := git.NewRunner(".")
	client := store.NewClient(cfg.Store.Bin, cfg.Store.File, cfg.Store.StateFile, cfg.Store.Tag)
	manager := workspace.NewManager(cfg.Workspace.Base, cfg.Workspace.BranchPrefix, cfg.Prompt.Dir, runner)

	journal, err := state.Open(state.DefaultPath("."))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		journal = nil
	}

	return &orchestrator.Engine{
		Store:      client,
		Workspaces: manager,
		Prompts:    prompt.NewGenerator(cfg.Prompt.Dir),
		Reviews:    review.NewCollector(manager, runner, cfg.Review.Dir),
		Launcher:   dispatch.NewLauncher(cfg.Dispatch.Command),
		Journal:    journal,
	}
}

// confirm asks the operator before a mutating batch. --yes skips it.
func confirm(question string) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("%s (y/N) ", question)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

// printReport prints the shared sections of a batch report: integrity
// problems, per-task failures, nothing else. Callers print their own
// positive output first.
func printReport(rep *orchestrator.Report) {
	for _, ie := range rep.Integrity {
		printStatus("!", ie.Error(), color.FgYellow)
	}
	for _, err := range rep.Errors {
		printStatus("✗", err.Error(), color.FgRed)
	}
}

// taskIDOf extracts the task id from a per-task failure, or "" for
// errors not tied to a task.
func taskIDOf(err error) string {
	var te *orchestrator.TaskError
	if errors.As(err, &te) {
		return te.TaskID
	}
	return ""
}

// reportErr converts a report with failures into a non-zero exit, so
// scripted callers can detect partially failed batches.
func reportErr(rep *orchestrator.Report) error {
	if len(rep.Errors) > 0 {
		return fmt.Errorf("%d task(s) failed", len(rep.Errors))
	}
	return nil
}
