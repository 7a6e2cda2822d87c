package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/ytarr/internal/coordinator"
	"github.com/vmunix/ytarr/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one acquisition pass and print the summary",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

var matchCmd = &cobra.Command{
	Use:   "match <series>",
	Short: "Show how missing episodes of a series match channel uploads (no downloads)",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

var (
	runSeries string
	runDryRun bool
)

func init() {
	runCmd.Flags().StringVar(&runSeries, "series", "", "Only process this series")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Match only, do not download")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(matchCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	return runPass(cmd, coordinator.RunOptions{Series: runSeries, DryRun: runDryRun})
}

func runMatch(cmd *cobra.Command, args []string) error {
	return runPass(cmd, coordinator.RunOptions{Series: args[0], DryRun: true})
}

func runPass(cmd *cobra.Command, opts coordinator.RunOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	// Dry runs write nothing and may overlap a running server.
	if !opts.DryRun {
		lock, err := server.AcquireLock(cfg.Server.LockFile)
		if err != nil {
			return err
		}
		defer func() { _ = lock.Release() }()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	if !opts.DryRun {
		if err := a.executor.CleanStaging(); err != nil {
			log.Warn("staging cleanup failed", "error", err)
		}
	}

	summary, err := a.coordinator.Run(ctx, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := printJSON(out, summary); err != nil {
			return err
		}
	} else {
		writeSummary(out, summary, isTerminal(out))
	}

	if ctx.Err() != nil {
		return fmt.Errorf("interrupted: %w", context.Cause(ctx))
	}
	return nil
}
