// Package coordinator drives one acquisition run: for every tracked series it
// fetches missing episodes, matches them against channel uploads, downloads
// and places accepted matches, then asks Sonarr to rescan.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/ytarr/internal/config"
	"github.com/vmunix/ytarr/internal/download"
	"github.com/vmunix/ytarr/internal/importer"
	"github.com/vmunix/ytarr/internal/library"
	"github.com/vmunix/ytarr/internal/matcher"
	"github.com/vmunix/ytarr/internal/youtube"
)

//go:generate mockgen -destination=mocks/coordinator_mock.go -package=mocks . Library,Lister,Downloader,Finalizer

// Library is the library manager.
type Library interface {
	ListTrackedSeries(ctx context.Context) ([]library.TrackedSeries, error)
	ListMissingEpisodes(ctx context.Context, series library.TrackedSeries) ([]library.Episode, error)
	TriggerRescan(ctx context.Context, seriesID int) error
}

// Lister lists channel uploads.
type Lister interface {
	ListRecentUploads(ctx context.Context, src youtube.Source, lookback time.Duration, limit int) ([]matcher.Candidate, error)
}

// Downloader fetches an accepted match into staging.
type Downloader interface {
	Download(ctx context.Context, m matcher.Result, opts youtube.FetchOptions) (*download.Artifact, error)
}

// Finalizer places a downloaded artifact in the series folder.
type Finalizer interface {
	PlannedDestination(ep library.Episode, series library.TrackedSeries) (string, bool)
	Finalize(ctx context.Context, art *download.Artifact, ep library.Episode, series library.TrackedSeries) (*importer.PlacedFile, error)
}

// ErrSeriesNotTracked is returned when a run is limited to a series that is
// not configured or not found in Sonarr.
var ErrSeriesNotTracked = errors.New("series not tracked")

// RunOptions narrow a run.
type RunOptions struct {
	Series string // only this series title (case-insensitive)
	DryRun bool   // match only, no downloads
}

// Coordinator runs acquisition passes. It holds no state between runs.
type Coordinator struct {
	lib    Library
	lister Lister
	dl     Downloader
	fin    Finalizer
	cfg    *config.Config
	log    *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	states map[int]State
}

// New creates a Coordinator.
func New(lib Library, lister Lister, dl Downloader, fin Finalizer, cfg *config.Config, log *slog.Logger) *Coordinator {
	return &Coordinator{
		lib:    lib,
		lister: lister,
		dl:     dl,
		fin:    fin,
		cfg:    cfg,
		log:    log.With("component", "coordinator"),
		now:    time.Now,
		states: make(map[int]State),
	}
}

// Run processes every tracked series, up to parallel_series at a time.
// Per-series and per-episode failures are recorded in the summary; the
// returned error is set only when the run could not start.
func (c *Coordinator) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	summary := &Summary{Started: c.now(), DryRun: opts.DryRun}

	tracked, err := c.lib.ListTrackedSeries(ctx)
	if err != nil {
		summary.Finished = c.now()
		return summary, err
	}
	if opts.Series != "" {
		tracked = filterSeries(tracked, opts.Series)
		if len(tracked) == 0 {
			summary.Finished = c.now()
			return summary, fmt.Errorf("%w: %s", ErrSeriesNotTracked, opts.Series)
		}
	}

	summary.Series = make([]SeriesReport, len(tracked))

	limit := c.cfg.Server.ParallelSeries
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, s := range tracked {
		g.Go(func() error {
			summary.Series[i] = c.runSeries(ctx, s, opts)
			return nil
		})
	}
	_ = g.Wait()

	summary.Finished = c.now()
	counts := summary.Counts()
	c.log.Info("run complete",
		"series", len(summary.Series),
		"missing", counts.Missing,
		"matched", counts.Matched,
		"downloaded", counts.Downloaded,
		"placed", counts.Placed,
		"existing", counts.Existing,
		"failed", counts.Failed,
		"series_skipped", counts.SeriesSkipped,
		"dry_run", opts.DryRun,
		"duration_ms", summary.Duration().Milliseconds())
	return summary, nil
}

func filterSeries(tracked []library.TrackedSeries, title string) []library.TrackedSeries {
	for _, s := range tracked {
		if strings.EqualFold(s.Title, title) || strings.EqualFold(s.Source.Title, title) {
			return []library.TrackedSeries{s}
		}
	}
	return nil
}

// runSeries walks one series through its states. Episodes are processed
// sequentially in match order.
func (c *Coordinator) runSeries(ctx context.Context, s library.TrackedSeries, opts RunOptions) SeriesReport {
	log := c.log.With("series", s.Title, "series_id", s.ID)
	report := SeriesReport{SeriesID: s.ID, Title: s.Title}
	defer c.setState(s.ID, StateIdle, log)

	fail := func(err error) SeriesReport {
		report.Kind = Classify(err)
		report.Error = err.Error()
		report.Stopped = c.state(s.ID)
		log.Error("series skipped", "state", report.Stopped, "kind", report.Kind, "error", err)
		return report
	}

	c.setState(s.ID, StateFetchingMissing, log)
	missing, err := c.lib.ListMissingEpisodes(ctx, s)
	if err != nil {
		return fail(err)
	}
	report.Missing = len(missing)
	if len(missing) == 0 {
		c.setState(s.ID, StateReporting, log)
		report.Stopped = StateReporting
		return report
	}

	candidates, err := c.lister.ListRecentUploads(ctx, c.source(s), s.Matching.Lookback, s.Matching.MaxCandidates)
	if err != nil {
		return fail(err)
	}
	report.Candidates = len(candidates)

	c.setState(s.ID, StateMatching, log)
	if r := s.Source.CandidateRewrite; r != nil {
		candidates = rewriteCandidates(candidates, r)
	}
	prefix := ""
	if s.Source.PrependSeriesTitle {
		prefix = s.Title
	}
	results := matcher.Match(missing, candidates, matcher.PolicyFor(s.Matching, prefix))
	if log.Enabled(ctx, slog.LevelDebug) {
		for _, u := range matcher.Unconsumed(candidates, results) {
			log.Debug("upload not matched", "video_id", u.ID, "title", u.Title)
		}
	}

	fetchOpts := c.fetchOptions(s)
	placed := 0
	for _, m := range results {
		if ctx.Err() != nil {
			report.Episodes = append(report.Episodes, EpisodeReport{
				Episode: m.Episode, Status: StatusFailed, Kind: KindCanceled, Error: ctx.Err().Error(),
			})
			continue
		}
		er := c.processEpisode(ctx, s, m, fetchOpts, opts.DryRun, log)
		if er.Status == StatusPlaced {
			placed++
		}
		report.Episodes = append(report.Episodes, er)
	}

	c.setState(s.ID, StateReporting, log)
	report.Stopped = StateReporting
	switch {
	case placed == 0:
	case ctx.Err() != nil:
		log.Warn("run interrupted, rescan skipped", "placed", placed)
	default:
		if err := c.lib.TriggerRescan(ctx, s.ID); err != nil {
			report.Kind = Classify(err)
			report.Error = err.Error()
			log.Error("rescan failed", "error", err)
		} else {
			report.Rescanned = true
		}
	}
	return report
}

// processEpisode downloads and places one matched episode. Failures are
// recorded in the report and never abort the series. An episode whose file
// is already in the library is reported Existing without downloading when
// its path can be known up front; otherwise Finalize makes the same check.
func (c *Coordinator) processEpisode(ctx context.Context, s library.TrackedSeries, m matcher.Result, opts youtube.FetchOptions, dryRun bool, log *slog.Logger) EpisodeReport {
	er := EpisodeReport{Episode: m.Episode, Rule: string(m.Rule), Reason: m.Reason}
	log = log.With("episode", m.Episode.Code())

	switch m.Outcome {
	case matcher.NoMatch:
		er.Status, er.Kind = StatusSkipped, KindNoMatch
		log.Info("no match", "title", m.Episode.Title)
		return er
	case matcher.Ambiguous:
		er.Status, er.Kind = StatusSkipped, KindAmbiguous
		ids := make([]string, 0, len(m.Contenders))
		for _, cand := range m.Contenders {
			ids = append(ids, cand.ID)
		}
		log.Warn("ambiguous match", "title", m.Episode.Title, "rule", m.Rule, "reason", m.Reason, "contenders", ids)
		return er
	}

	er.VideoID, er.VideoURL = m.Candidate.ID, m.Candidate.URL
	log.Info("matched", "video_id", m.Candidate.ID, "video_title", m.Candidate.Title, "rule", m.Rule)
	if dest, ok := c.fin.PlannedDestination(m.Episode, s); ok {
		if _, err := os.Lstat(dest); err == nil {
			log.Info("destination exists, skipping download", "path", dest)
			er.Status, er.Path = StatusExisting, dest
			return er
		}
	}
	if dryRun {
		er.Status = StatusPlanned
		return er
	}

	c.setState(s.ID, StateDownloading, log)
	art, err := c.dl.Download(ctx, m, opts)
	if err != nil {
		return c.episodeFailed(er, err, log)
	}

	c.setState(s.ID, StateFinalizing, log)
	pf, err := c.fin.Finalize(ctx, art, m.Episode, s)
	if err != nil {
		return c.episodeFailed(er, err, log)
	}

	er.Path = pf.Path
	if pf.Existing {
		er.Status = StatusExisting
	} else {
		er.Status = StatusPlaced
	}
	return er
}

func (c *Coordinator) episodeFailed(er EpisodeReport, err error, log *slog.Logger) EpisodeReport {
	er.Status = StatusFailed
	er.Kind = Classify(err)
	er.Error = err.Error()
	log.Error("episode failed", "kind", er.Kind, "error", err)
	return er
}

func (c *Coordinator) source(s library.TrackedSeries) youtube.Source {
	return youtube.Source{
		URL:         s.Source.URL,
		Lister:      s.Source.Lister,
		CookiesFile: c.cfg.CookiesPath(s.Source),
	}
}

func (c *Coordinator) fetchOptions(s library.TrackedSeries) youtube.FetchOptions {
	opts := youtube.FetchOptions{
		Format:            c.cfg.Download.Format,
		MergeOutputFormat: c.cfg.Download.MergeOutputFormat,
		CookiesFile:       c.cfg.CookiesPath(s.Source),
	}
	if s.Source.Format != "" {
		opts.Format = s.Source.Format
	}
	if sub := s.Source.Subtitles; sub != nil {
		opts.SubtitleLanguages = sub.Languages
		opts.AutoSubtitles = sub.AutoGenerated
	}
	return opts
}

// rewriteCandidates applies the series candidate rewrite to upload titles.
func rewriteCandidates(candidates []matcher.Candidate, r *config.RewriteConfig) []matcher.Candidate {
	// Validated at config load.
	re := regexp.MustCompile(r.Match)
	out := make([]matcher.Candidate, len(candidates))
	for i, cand := range candidates {
		cand.Title = re.ReplaceAllString(cand.Title, r.Replace)
		out[i] = cand
	}
	return out
}
