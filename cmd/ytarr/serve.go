package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/ytarr/internal/coordinator"
	"github.com/vmunix/ytarr/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run acquisition passes on the configured interval",
	Long: `Runs a pass immediately and then every server.interval until interrupted.
On Unix, send SIGUSR1 to start a pass early.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	lock, err := server.AcquireLock(cfg.Server.LockFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("failed to release lock", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := a.executor.CleanStaging(); err != nil {
		log.Warn("staging cleanup failed", "error", err)
	}

	runner := server.NewRunner(a.coordinator, server.Config{Interval: cfg.Server.Interval}, log)
	runner.OnSummary(func(s *coordinator.Summary) {
		c := s.Counts()
		if c.Failed > 0 || c.SeriesSkipped > 0 {
			log.Warn("pass finished with failures", "failed", c.Failed, "series_skipped", c.SeriesSkipped,
				"next_run", s.Finished.Add(cfg.Server.Interval).Format(time.RFC3339))
		}
	})

	trigger := make(chan os.Signal, 1)
	notifyTrigger(trigger)
	defer signal.Stop(trigger)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				log.Info("run requested by signal")
				runner.Trigger()
			}
		}
	}()

	log.Info("ytarr started", "version", version, "lock", lock.Path(), "series", len(cfg.Series))
	return runner.Run(ctx)
}
