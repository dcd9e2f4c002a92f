package main

import (
	"fmt"
	"log"

	"techdebt_export/internal/services/exporter"

	"github.com/spf13/cobra"
)

var runFlags struct {
	dryRun bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Export every eligible record once and exit",
	Long: `Run one export pass: fetch eligible rows, create a Notion page for each,
then flag the published rows as exported.

The command exits non-zero when any page could not be created; those rows stay
eligible for the next run.

Examples:
  # Export now
  techdebt-export run

  # Print the page documents without posting or updating anything
  techdebt-export run --dry-run`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "render pages without posting them or updating rows")
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := notifyContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.svc.Run(ctx, exporter.Options{DryRun: runFlags.dryRun})
	log.Printf("[APP] run=%s status=%s fetched=%d published=%d failed=%d marked=%d",
		run.RunID, run.Status, run.Fetched, run.Published, run.Failed, run.Marked)
	if err != nil {
		return fmt.Errorf("export run %s: %w", run.RunID, err)
	}
	return nil
}
