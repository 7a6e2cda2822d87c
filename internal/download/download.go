// Package download fetches accepted matches into per-attempt staging directories.
package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/vmunix/ytarr/internal/config"
	"github.com/vmunix/ytarr/internal/matcher"
	"github.com/vmunix/ytarr/internal/retry"
	"github.com/vmunix/ytarr/internal/youtube"
)

// Fetcher inspects and downloads single videos.
//
//go:generate mockgen -destination=mocks/fetcher_mock.go -package=mocks . Fetcher
type Fetcher interface {
	Inspect(ctx context.Context, url string, opts youtube.FetchOptions) (*youtube.Metadata, error)
	Fetch(ctx context.Context, url, dir string, opts youtube.FetchOptions) (string, *youtube.Metadata, error)
}

// Artifact is a downloaded file in its attempt directory. The caller owns it
// and must call Cleanup once done.
type Artifact struct {
	Dir      string
	Path     string
	Metadata youtube.Metadata
}

// Cleanup removes the attempt directory and everything in it.
func (a *Artifact) Cleanup() error {
	if a == nil || a.Dir == "" {
		return nil
	}
	return os.RemoveAll(a.Dir)
}

// Limits bound what the executor is willing to download. Zero disables a limit.
type Limits struct {
	MaxDuration     time.Duration
	MaxFilesize     uint64
	MinFreeSpace    uint64
	Timeout         time.Duration // per fetch attempt
	MetadataTimeout time.Duration // per metadata lookup
}

// LimitsFromConfig parses the size fields of the download config.
func LimitsFromConfig(cfg config.DownloadConfig) (Limits, error) {
	maxSize, err := cfg.MaxFilesizeBytes()
	if err != nil {
		return Limits{}, fmt.Errorf("max_filesize: %w", err)
	}
	minFree, err := cfg.MinFreeSpaceBytes()
	if err != nil {
		return Limits{}, fmt.Errorf("min_free_space: %w", err)
	}
	return Limits{
		MaxDuration:     cfg.MaxDuration,
		MaxFilesize:     maxSize,
		MinFreeSpace:    minFree,
		Timeout:         cfg.Timeout,
		MetadataTimeout: cfg.MetadataTimeout,
	}, nil
}

// Executor turns an accepted match into an Artifact. It only writes below
// the staging directory.
type Executor struct {
	fetcher Fetcher
	staging string
	limits  Limits
	policy  retry.Policy
	log     *slog.Logger

	freeSpace func(path string) (uint64, error)
	newID     func() string
}

// NewExecutor creates an executor staging downloads under stagingDir.
func NewExecutor(f Fetcher, stagingDir string, limits Limits, policy retry.Policy, log *slog.Logger) *Executor {
	return &Executor{
		fetcher:   f,
		staging:   stagingDir,
		limits:    limits,
		policy:    policy,
		log:       log.With("component", "download"),
		freeSpace: freeSpace,
		newID:     uuid.NewString,
	}
}

// Download inspects, checks limits and free space, then fetches the accepted
// candidate of m. Transient failures are retried per the policy; every failed
// attempt removes its directory.
func (e *Executor) Download(ctx context.Context, m matcher.Result, opts youtube.FetchOptions) (*Artifact, error) {
	if m.Outcome != matcher.Accepted || m.Candidate == nil {
		return nil, fmt.Errorf("download %s: match not accepted", m.Episode.Code())
	}
	c := m.Candidate
	log := e.log.With("episode", m.Episode.Code(), "video_id", c.ID)
	start := time.Now()

	var meta *youtube.Metadata
	err := e.policy.Do(ctx, youtube.IsTransient, func(attempt int) error {
		var err error
		meta, err = e.inspect(ctx, c.URL, opts)
		if err != nil {
			log.Warn("inspect failed", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, e.wrap(ctx, c.ID, err)
	}

	if err := e.checkLimits(meta); err != nil {
		return nil, &ExtractionError{VideoID: c.ID, Err: err}
	}
	if err := e.checkSpace(meta); err != nil {
		return nil, err
	}

	var art *Artifact
	err = e.policy.Do(ctx, youtube.IsTransient, func(attempt int) error {
		a, err := e.attempt(ctx, c.URL, opts)
		if err != nil {
			log.Warn("fetch failed", "attempt", attempt, "error", err)
			return err
		}
		art = a
		return nil
	})
	if err != nil {
		return nil, e.wrap(ctx, c.ID, err)
	}

	log.Info("downloaded",
		"path", art.Path,
		"size", humanize.Bytes(uint64(max(art.Metadata.Filesize, 0))), //nolint:gosec
		"duration_ms", time.Since(start).Milliseconds())
	return art, nil
}

func (e *Executor) inspect(ctx context.Context, url string, opts youtube.FetchOptions) (*youtube.Metadata, error) {
	pctx, cancel := withTimeout(ctx, e.limits.MetadataTimeout)
	defer cancel()

	meta, err := e.fetcher.Inspect(pctx, url, opts)
	if err != nil {
		return nil, timedOut(ctx, pctx, "inspect", e.limits.MetadataTimeout, err)
	}
	return meta, nil
}

func (e *Executor) attempt(ctx context.Context, url string, opts youtube.FetchOptions) (*Artifact, error) {
	dir := filepath.Join(e.staging, e.newID())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	actx, cancel := withTimeout(ctx, e.limits.Timeout)
	defer cancel()

	path, meta, err := e.fetcher.Fetch(actx, url, dir, opts)
	if err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			e.log.Warn("failed to remove attempt dir", "dir", dir, "error", rmErr)
		}
		return nil, timedOut(ctx, actx, "fetch", e.limits.Timeout, err)
	}

	art := &Artifact{Dir: dir, Path: path}
	if meta != nil {
		art.Metadata = *meta
	}
	return art, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// timedOut marks err transient when the step's own deadline fired while the
// run itself is still alive, whatever the fetcher made of the killed process.
func timedOut(parent, step context.Context, op string, d time.Duration, err error) error {
	if parent.Err() == nil && errors.Is(step.Err(), context.DeadlineExceeded) && !youtube.IsTransient(err) {
		return fmt.Errorf("%w: %s exceeded %s: %w", youtube.ErrTransient, op, d, err)
	}
	return err
}

func (e *Executor) checkLimits(meta *youtube.Metadata) error {
	if e.limits.MaxDuration > 0 && meta.Duration > e.limits.MaxDuration {
		return fmt.Errorf("%w: %s > %s", ErrTooLong, meta.Duration, e.limits.MaxDuration)
	}
	if e.limits.MaxFilesize > 0 && meta.Filesize > 0 && uint64(meta.Filesize) > e.limits.MaxFilesize {
		return fmt.Errorf("%w: %s > %s", ErrTooLarge,
			humanize.Bytes(uint64(meta.Filesize)), humanize.Bytes(e.limits.MaxFilesize))
	}
	return nil
}

func (e *Executor) checkSpace(meta *youtube.Metadata) error {
	if err := os.MkdirAll(e.staging, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if e.limits.MinFreeSpace == 0 {
		return nil
	}
	free, err := e.freeSpace(e.staging)
	if errors.Is(err, errors.ErrUnsupported) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	need := e.limits.MinFreeSpace + uint64(max(meta.Filesize, 0)) //nolint:gosec
	if free < need {
		return fmt.Errorf("%w: %s free, need %s", ErrStorage, humanize.Bytes(free), humanize.Bytes(need))
	}
	return nil
}

func (e *Executor) wrap(ctx context.Context, videoID string, err error) error {
	if errors.Is(err, ErrStorage) {
		return err
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	return &ExtractionError{VideoID: videoID, Transient: youtube.IsTransient(err), Err: err}
}

// CleanStaging removes attempt directories left behind by an interrupted
// process. Only directories named like attempt IDs are touched.
func (e *Executor) CleanStaging() error {
	entries, err := os.ReadDir(e.staging)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(entry.Name()); err != nil {
			continue
		}
		dir := filepath.Join(e.staging, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("%w: %v", ErrStorage, err)
		}
		e.log.Info("removed stale attempt dir", "dir", dir)
	}
	return nil
}
