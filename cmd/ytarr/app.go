package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vmunix/ytarr/internal/config"
	"github.com/vmunix/ytarr/internal/coordinator"
	"github.com/vmunix/ytarr/internal/download"
	"github.com/vmunix/ytarr/internal/importer"
	"github.com/vmunix/ytarr/internal/library"
	"github.com/vmunix/ytarr/internal/retry"
	"github.com/vmunix/ytarr/internal/transcode"
	"github.com/vmunix/ytarr/internal/youtube"
	"github.com/vmunix/ytarr/pkg/sonarr"
)

// app holds the wired components of one process.
type app struct {
	coordinator *coordinator.Coordinator
	executor    *download.Executor
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	sc := sonarr.New(cfg.Sonarr.URL, cfg.Sonarr.APIKey,
		sonarr.WithAPIVersion(cfg.Sonarr.APIVersion),
		sonarr.WithTimeout(cfg.Sonarr.Timeout),
		sonarr.WithLogger(log),
	)
	lib := library.NewManager(sc, cfg, log)

	yt := youtube.New(
		youtube.WithBinary(cfg.Download.Binary),
		youtube.WithLogger(log),
	)
	if cfg.Download.AutoInstall && cfg.Download.Binary == "" {
		if err := yt.Install(ctx); err != nil {
			return nil, err
		}
	}

	limits, err := download.LimitsFromConfig(cfg.Download)
	if err != nil {
		return nil, fmt.Errorf("download limits: %w", err)
	}
	policy := retry.FromConfig(cfg.Retry)
	exec := download.NewExecutor(yt, cfg.Download.StagingDir, limits, policy, log)

	tc, err := transcode.New(cfg.Transcode, log)
	if err != nil {
		return nil, err
	}
	fin := importer.NewFinalizer(tc, cfg.Transcode, policy, log)

	return &app{
		coordinator: coordinator.New(lib, yt, exec, fin, cfg, log),
		executor:    exec,
	}, nil
}
