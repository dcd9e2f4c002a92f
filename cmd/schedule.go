package main

import (
	"log"

	"techdebt_export/internal/handlers"
	"techdebt_export/internal/scheduler"
	"techdebt_export/internal/server"

	"github.com/spf13/cobra"
)

var scheduleFlags struct {
	cron string
	port string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Export on a cron schedule and serve health, metrics and manual runs",
	Long: `Keep running and fire an export pass on every tick of a cron expression.
A run still in progress when the next tick fires makes that tick a no-op.

The side server exposes GET /health, GET /metrics, POST /run and GET /runs.
POST /run and GET /runs require EXPORTER_API_TOKEN as a bearer token.

Examples:
  # Use EXPORT_SCHEDULE (default every 15 minutes)
  techdebt-export schedule

  # Every night at 02:30
  techdebt-export schedule --cron "30 2 * * *"`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleFlags.cron, "cron", "", "override EXPORT_SCHEDULE")
	scheduleCmd.Flags().StringVar(&scheduleFlags.port, "port", "", "override SERVER_PORT")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := notifyContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	expr := a.cfg.Schedule
	if scheduleFlags.cron != "" {
		expr = scheduleFlags.cron
	}
	port := a.cfg.Port
	if scheduleFlags.port != "" {
		port = scheduleFlags.port
	}

	sched := scheduler.New(a.svc, expr)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()
	if next := sched.NextRun(); next != nil {
		log.Printf("[APP] next run at %s", next.Format("2006-01-02 15:04:05"))
	}

	if a.cfg.APIToken == "" {
		log.Printf("[APP][WARN] EXPORTER_API_TOKEN not set, /run and /runs are disabled")
	}

	h := handlers.New(ctx, a.svc, a.conns.CheckConnections, a.conns.Mongo)
	srv := server.NewServer(port, a.cfg.APIToken, h, a.registry)
	log.Printf("[APP] listening on :%s", port)

	err = srv.Run(ctx)

	// let API-triggered runs reach their mark step before connections close
	h.Wait()
	return err
}
