package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/taskfan/internal/graph"
)

var readyOutput string

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Show which tasks are unblocked",
	Long: `Resolve the current snapshot and list ready tasks (pending with
every dependency done), blocked tasks with their blocking ids, and any
data-integrity problems (missing prerequisites, dependency cycles).`,
	RunE: runReady,
}

func init() {
	readyCmd.Flags().StringVarP(&readyOutput, "output", "o", "text", "Output format: text or yaml")
}

// readyReport is the yaml-facing shape of a resolution.
type readyReport struct {
	Tag     string         `yaml:"tag"`
	Ready   []string       `yaml:"ready"`
	Blocked []blockedEntry `yaml:"blocked,omitempty"`
	Errors  []string       `yaml:"errors,omitempty"`
}

type blockedEntry struct {
	ID        string   `yaml:"id"`
	BlockedBy []string `yaml:"blocked_by"`
}

func runReady(cmd *cobra.Command, args []string) error {
	engine := newEngine()
	snap, res, err := engine.Resolve()
	if err != nil {
		return err
	}

	switch readyOutput {
	case "yaml":
		return printReadyYAML(snap.Tag, res)
	case "text":
		printReadyText(snap.Tag, res)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", readyOutput)
	}
}

func printReadyText(tag string, res *graph.Resolution) {
	fmt.Printf("Tag: %s\n", tag)

	if len(res.Ready) == 0 {
		fmt.Println("No ready tasks.")
	} else {
		printStatus("✓", fmt.Sprintf("Ready: %s", strings.Join(res.Ready, " ")), color.FgGreen)
	}

	for _, b := range res.Blocked {
		fmt.Printf("%s\tblocked by: %s\n", b.TaskID, strings.Join(b.BlockedBy, ","))
	}
	for _, ie := range res.Errors {
		printStatus("!", ie.Error(), color.FgYellow)
	}
}

func printReadyYAML(tag string, res *graph.Resolution) error {
	rep := readyReport{Tag: tag, Ready: res.Ready}
	if rep.Ready == nil {
		rep.Ready = []string{}
	}
	for _, b := range res.Blocked {
		rep.Blocked = append(rep.Blocked, blockedEntry{ID: b.TaskID, BlockedBy: b.BlockedBy})
	}
	for _, ie := range res.Errors {
		rep.Errors = append(rep.Errors, ie.Error())
	}

	out, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
