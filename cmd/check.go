package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and ping every configured connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := notifyContext()
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := a.conns.CheckConnections(pingCtx); err != nil {
			return fmt.Errorf("connection check failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All connections OK")
		return nil
	},
}

func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
