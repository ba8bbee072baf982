package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/taskfan/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the taskfan version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskfan %s\n", version.Get())
	},
}
