package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "techdebt-export",
	Short: "Copy due log applet tech-debt records into Notion",
	Long: `techdebt-export reads log applet comments flagged for export whose action
date has passed, creates one Notion page for each, and flips the source rows
to exported.

Configuration is read from the environment, with a .env file filling the gaps.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd, scheduleCmd, checkCmd)
}
