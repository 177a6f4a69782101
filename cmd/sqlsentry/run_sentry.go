package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/mattn/go-sqlite3"

	"sqlsentry/internal/alertbus"
	"sqlsentry/internal/sentry"
	"sqlsentry/internal/sqlexec"
)

var runSentryCmd = &cobra.Command{
	Use:   "run-sentry",
	Short: "Run the standalone anomaly sentry until interrupted",
	Long: `run-sentry starts C10's AnomalySentry against the configured business
database on its configured interval, printing every fired alert to stdout
as it's published on the AlertBus. It runs until interrupted (Ctrl-C) or
sent SIGTERM, performing a clean Stop() on the way out.`,
	RunE: runRunSentry,
}

func runRunSentry(cmd *cobra.Command, args []string) error {
	bizDB, err := sql.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("opening business database: %w", err)
	}
	defer bizDB.Close()

	executor := sqlexec.New(bizDB)
	bus := alertbus.New()

	s := sentry.New(executor, bus, cfg.Sentry.IntervalMinutes)
	sub := bus.Subscribe()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Start(ctx)
	fmt.Printf("anomaly sentry running (interval=%dm); press Ctrl-C to stop\n", cfg.Sentry.IntervalMinutes)

	for {
		select {
		case alert, ok := <-sub.Alerts:
			if !ok {
				return nil
			}
			fmt.Printf("[%s] %s: %s (%.1f%% vs baseline %.2f)\n", alert.Severity, alert.MetricName, alert.Description, alert.DeviationPercent, alert.BaselineValue)
			if alert.RootCause != "" {
				fmt.Printf("    root cause: %s\n", alert.RootCause)
			}
		case <-ctx.Done():
			s.Stop()
			return nil
		}
	}
}
