package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/vmunix/ytarr/internal/matcher"
)

// runFunc executes a prepared yt-dlp command against one URL.
type runFunc func(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error)

func runCommand(ctx context.Context, cmd *ytdlp.Command, url string) (*ytdlp.Result, error) {
	return cmd.Run(ctx, url)
}

// Client lists and downloads videos.
type Client struct {
	binary     string
	httpClient *http.Client
	feedBase   string
	log        *slog.Logger
	now        func() time.Time
	run        runFunc
	playlist   playlistFunc
}

// Option configures a Client.
type Option func(*Client)

// WithBinary sets the yt-dlp executable. Empty means the managed install or $PATH.
func WithBinary(path string) Option {
	return func(c *Client) {
		c.binary = path
	}
}

// WithHTTPClient sets the HTTP client used by the feed lister.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithFeedBaseURL overrides the feed endpoint (for testing).
func WithFeedBaseURL(url string) Option {
	return func(c *Client) {
		c.feedBase = strings.TrimSuffix(url, "/")
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "youtube")
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		feedBase:   defaultFeedBase,
		log:        slog.New(slog.DiscardHandler),
		now:        time.Now,
		run:        runCommand,
		playlist:   ytgetPlaylist,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Install downloads a managed yt-dlp binary if none is cached.
func (c *Client) Install(ctx context.Context) error {
	start := time.Now()
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	c.log.Info("yt-dlp ready", "path", resolved.Executable, "version", resolved.Version, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *Client) command() *ytdlp.Command {
	cmd := ytdlp.New().NoProgress().NoWarnings()
	if c.binary != "" {
		cmd.SetExecutable(c.binary)
	}
	return cmd
}

func applyOptions(cmd *ytdlp.Command, opts FetchOptions) {
	if opts.Format != "" {
		cmd.Format(opts.Format)
	}
	if opts.CookiesFile != "" {
		cmd.Cookies(opts.CookiesFile)
	}
}

// exec runs cmd and classifies a failure.
func (c *Client) exec(ctx context.Context, op string, cmd *ytdlp.Command, url string) (*ytdlp.Result, error) {
	start := time.Now()
	res, err := c.run(ctx, cmd, url)
	if err != nil {
		var stderr string
		if res != nil {
			stderr = res.Stderr
		}
		c.log.Debug("yt-dlp failed", "op", op, "url", url, "error", err, "duration_ms", time.Since(start).Milliseconds())
		// A killed process only reports its exit status; the context says why.
		return nil, classify(op, errors.Join(ctx.Err(), err), stderr)
	}
	c.log.Debug("yt-dlp finished", "op", op, "url", url, "duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

// ListRecentUploads returns up to limit uploads from the source, newest first.
// Uploads published before now-lookback are dropped; a zero lookback keeps all.
// Uploads without a known publish date are always kept.
func (c *Client) ListRecentUploads(ctx context.Context, src Source, lookback time.Duration, limit int) ([]matcher.Candidate, error) {
	var (
		videos []Metadata
		err    error
	)
	switch src.Lister {
	case ListerFeed:
		videos, err = c.listFeed(ctx, src)
	case ListerPlaylist:
		videos, err = c.listPlaylist(ctx, src, limit)
	case ListerYTDLP, "":
		videos, err = c.listYTDLP(ctx, src, lookback, limit)
	default:
		return nil, fmt.Errorf("%w: lister %q", ErrUnsupportedSource, src.Lister)
	}
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if lookback > 0 {
		cutoff = c.now().Add(-lookback)
	}
	candidates := make([]matcher.Candidate, 0, len(videos))
	seen := make(map[string]bool, len(videos))
	for _, v := range videos {
		if !cutoff.IsZero() && !v.Published.IsZero() && v.Published.Before(cutoff) {
			continue
		}
		if v.ID != "" {
			if seen[v.ID] {
				continue
			}
			seen[v.ID] = true
		}
		candidates = append(candidates, matcher.Candidate{
			ID:        v.ID,
			Title:     v.Title,
			Published: v.Published,
			Duration:  v.Duration,
			URL:       watchURL(v.ID),
		})
		if limit > 0 && len(candidates) == limit {
			break
		}
	}

	c.log.Debug("listed uploads", "source", src.URL, "lister", src.Lister, "count", len(candidates))
	return candidates, nil
}

func (c *Client) listYTDLP(ctx context.Context, src Source, lookback time.Duration, limit int) ([]Metadata, error) {
	cmd := c.command().DumpSingleJSON().IgnoreErrors()
	if limit > 0 {
		cmd.PlaylistEnd(limit)
	}
	if lookback > 0 {
		cmd.DateAfter(c.now().Add(-lookback).Format("20060102"))
	}
	applyOptions(cmd, FetchOptions{CookiesFile: src.CookiesFile})

	res, err := c.exec(ctx, "list", cmd, src.URL)
	if err != nil {
		return nil, err
	}
	in, err := parseInfo([]byte(res.Stdout))
	if err != nil {
		return nil, err
	}

	entries := in.flatten()
	videos := make([]Metadata, 0, len(entries))
	for i := range entries {
		videos = append(videos, *entries[i].metadata())
	}
	return videos, nil
}

// Inspect reads video metadata without downloading.
func (c *Client) Inspect(ctx context.Context, url string, opts FetchOptions) (*Metadata, error) {
	cmd := c.command().DumpSingleJSON().SkipDownload().NoPlaylist()
	applyOptions(cmd, opts)

	res, err := c.exec(ctx, "inspect", cmd, url)
	if err != nil {
		return nil, err
	}
	in, err := parseInfo([]byte(res.Stdout))
	if err != nil {
		return nil, err
	}
	if in.ID == "" {
		return nil, fmt.Errorf("%w: inspect %s: no video id in metadata", ErrPermanent, url)
	}
	return in.metadata(), nil
}

// Fetch downloads url into dir and returns the path of the media file.
func (c *Client) Fetch(ctx context.Context, url, dir string, opts FetchOptions) (string, *Metadata, error) {
	cmd := c.command().
		NoPlaylist().
		PrintJSON().
		Output(filepath.Join(dir, "%(id)s.%(ext)s"))
	applyOptions(cmd, opts)
	if opts.MergeOutputFormat != "" {
		cmd.MergeOutputFormat(opts.MergeOutputFormat)
	}
	if len(opts.SubtitleLanguages) > 0 {
		cmd.WriteSubs().SubLangs(strings.Join(opts.SubtitleLanguages, ",")).ConvertSubs("srt").EmbedSubs()
		if opts.AutoSubtitles {
			cmd.WriteAutoSubs()
		}
	}

	res, err := c.exec(ctx, "fetch", cmd, url)
	if err != nil {
		return "", nil, err
	}

	path, size, err := findMedia(dir)
	if err != nil {
		return "", nil, fmt.Errorf("%w: fetch %s: %v", ErrPermanent, url, err)
	}

	meta := &Metadata{Filesize: size, Ext: strings.TrimPrefix(filepath.Ext(path), ".")}
	if in, perr := parseInfo([]byte(lastJSONLine(res.Stdout))); perr == nil {
		meta = in.metadata()
		meta.Filesize = size
		meta.Ext = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	return path, meta, nil
}

// lastJSONLine returns the last line of out that looks like a JSON object.
func lastJSONLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); strings.HasPrefix(line, "{") {
			return line
		}
	}
	return ""
}
