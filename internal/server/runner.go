// Package server runs acquisition passes on an interval.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/ytarr/internal/coordinator"
)

// Coordinator performs a single run.
type Coordinator interface {
	Run(ctx context.Context, opts coordinator.RunOptions) (*coordinator.Summary, error)
}

// Config for the runner.
type Config struct {
	Interval time.Duration
}

// Runner schedules coordinator runs. Runs never overlap; ticks and triggers
// that arrive while a run is in progress collapse into one follow-up run.
type Runner struct {
	coord     Coordinator
	config    Config
	logger    *slog.Logger
	pending   chan struct{}
	onSummary func(*coordinator.Summary)
}

// NewRunner creates a new runner.
func NewRunner(coord Coordinator, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Runner{
		coord:   coord,
		config:  cfg,
		logger:  logger.With("component", "runner"),
		pending: make(chan struct{}, 1),
	}
}

// OnSummary registers a callback invoked after every completed run.
func (r *Runner) OnSummary(fn func(*coordinator.Summary)) {
	r.onSummary = fn
}

// Trigger requests a run as soon as the current one, if any, finishes.
func (r *Runner) Trigger() {
	select {
	case r.pending <- struct{}{}:
	default:
	}
}

// Run starts with an immediate pass and then runs every interval.
// It blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(r.config.Interval)
		defer ticker.Stop()
		r.Trigger()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				r.Trigger()
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.pending:
				r.runOnce(ctx)
			}
		}
	})

	r.logger.Info("scheduler started", "interval", r.config.Interval)
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		r.logger.Info("scheduler stopped")
		return nil
	}
	return err
}

func (r *Runner) runOnce(ctx context.Context) {
	summary, err := r.coord.Run(ctx, coordinator.RunOptions{})
	if err != nil {
		r.logger.Error("run failed", "error", err)
		return
	}
	if r.onSummary != nil {
		r.onSummary(summary)
	}
}
