// Package importer moves downloaded episodes into the series folder Sonarr watches.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vmunix/ytarr/internal/config"
	"github.com/vmunix/ytarr/internal/download"
	"github.com/vmunix/ytarr/internal/library"
	"github.com/vmunix/ytarr/internal/retry"
	"github.com/vmunix/ytarr/internal/transcode"
)

// PlacedFile is an episode file in the series folder.
type PlacedFile struct {
	Path     string
	SeriesID int
	Episode  library.Episode
	Size     int64
	Existing bool // the file was already there; nothing was written
}

// Finalizer converts an artifact and places it under its final name.
type Finalizer struct {
	transcoder transcode.Transcoder
	spec       transcode.FormatSpec
	keepExt    bool
	timeout    time.Duration
	policy     retry.Policy
	log        *slog.Logger
}

// NewFinalizer creates a Finalizer. With engine "none" the file keeps the
// container yt-dlp produced.
func NewFinalizer(t transcode.Transcoder, cfg config.TranscodeConfig, policy retry.Policy, log *slog.Logger) *Finalizer {
	return &Finalizer{
		transcoder: t,
		spec:       transcode.SpecFromConfig(cfg),
		keepExt:    cfg.Engine == transcode.EngineNone,
		timeout:    cfg.Timeout,
		policy:     policy,
		log:        log.With("component", "importer"),
	}
}

// Destination returns the absolute path an episode would be placed at.
func (f *Finalizer) Destination(art *download.Artifact, ep library.Episode, series library.TrackedSeries) (string, error) {
	ext := f.spec.Container
	if f.keepExt || ext == "" {
		ext = strings.TrimPrefix(filepath.Ext(art.Path), ".")
	}
	return f.destination(ep, series, art.Metadata.Quality(), ext)
}

// PlannedDestination returns where an episode will be placed before anything
// is downloaded. ok is false when the path depends on the download itself:
// the naming template uses {quality} or the container is kept as fetched.
func (f *Finalizer) PlannedDestination(ep library.Episode, series library.TrackedSeries) (string, bool) {
	if f.keepExt || f.spec.Container == "" || series.Path == "" {
		return "", false
	}
	if usesField(series.Naming, "quality") {
		return "", false
	}
	dest, err := f.destination(ep, series, "", f.spec.Container)
	if err != nil {
		return "", false
	}
	return dest, true
}

func (f *Finalizer) destination(ep library.Episode, series library.TrackedSeries, quality, ext string) (string, error) {
	rel := NewRenamer(series.Naming).EpisodePath(EpisodeVars{
		Series:  series.Title,
		Season:  ep.Season,
		Episode: ep.Episode,
		Title:   ep.Title,
		Quality: quality,
		Ext:     ext,
	})
	dest := filepath.Join(series.Path, rel)
	if err := ValidatePath(dest, series.Path); err != nil {
		return "", fmt.Errorf("%w: %s", err, rel)
	}
	return dest, nil
}

// Finalize transcodes the artifact and places it in the series folder. The
// artifact directory is removed whatever the outcome. When the destination
// already exists nothing is transcoded or written and the returned file has
// Existing set.
func (f *Finalizer) Finalize(ctx context.Context, art *download.Artifact, ep library.Episode, series library.TrackedSeries) (*PlacedFile, error) {
	defer func() {
		if err := art.Cleanup(); err != nil {
			f.log.Warn("failed to remove artifact", "dir", art.Dir, "error", err)
		}
	}()

	log := f.log.With("series", series.Title, "episode", ep.Code())
	start := time.Now()

	if series.Path == "" {
		return nil, fmt.Errorf("%w: series %q has no folder", ErrPlacement, series.Title)
	}
	dest, err := f.Destination(art, ep, series)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPlacement, err)
	}

	if _, err := os.Lstat(dest); err == nil {
		log.Info("destination exists, skipping", "path", dest)
		return &PlacedFile{Path: dest, SeriesID: series.ID, Episode: ep, Existing: true}, nil
	}

	converted, err := f.transcode(ctx, art)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscode, err)
	}

	size, err := placeFile(converted, dest)
	if errors.Is(err, ErrDestinationExists) {
		log.Info("destination appeared during import, skipping", "path", dest)
		return &PlacedFile{Path: dest, SeriesID: series.ID, Episode: ep, Existing: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPlacement, dest, err)
	}

	log.Info("placed",
		"path", dest,
		"size", humanize.Bytes(uint64(size)), //nolint:gosec
		"duration_ms", time.Since(start).Milliseconds())
	return &PlacedFile{Path: dest, SeriesID: series.ID, Episode: ep, Size: size}, nil
}

// transcode runs the transcoder under the configured timeout. Only timeouts
// are retried; any other failure is final.
func (f *Finalizer) transcode(ctx context.Context, art *download.Artifact) (string, error) {
	timedOut := func(err error) bool {
		return errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
	}

	var out string
	err := f.policy.Do(ctx, timedOut, func(attempt int) error {
		tctx := ctx
		if f.timeout > 0 {
			var cancel context.CancelFunc
			tctx, cancel = context.WithTimeout(ctx, f.timeout)
			defer cancel()
		}
		var err error
		out, err = f.transcoder.Convert(tctx, art.Path, art.Dir, f.spec)
		if err != nil {
			f.log.Warn("transcode failed", "input", art.Path, "attempt", attempt, "error", err)
		}
		return err
	})
	return out, err
}
