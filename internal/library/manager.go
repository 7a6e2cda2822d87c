package library

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vmunix/ytarr/internal/config"
	"github.com/vmunix/ytarr/pkg/sonarr"
)

// API is the subset of the Sonarr client the manager uses.
type API interface {
	ListSeries(ctx context.Context) ([]sonarr.Series, error)
	ListEpisodes(ctx context.Context, seriesID int) ([]sonarr.Episode, error)
	RescanSeries(ctx context.Context, seriesID int) (*sonarr.Command, error)
}

// Manager resolves configured series against Sonarr.
type Manager struct {
	api        API
	cfg        *config.Config
	log        *slog.Logger
	now        func() time.Time
	remotePath string
	localPath  string
}

// NewManager creates a Manager for the series in cfg.
func NewManager(api API, cfg *config.Config, log *slog.Logger) *Manager {
	return &Manager{
		api:        api,
		cfg:        cfg,
		log:        log.With("component", "library"),
		now:        time.Now,
		remotePath: strings.TrimSuffix(cfg.Sonarr.RemotePath, "/"),
		localPath:  strings.TrimSuffix(cfg.Sonarr.LocalPath, "/"),
	}
}

// ListTrackedSeries returns the configured series that exist in Sonarr, in
// configuration order. Series missing from Sonarr are logged and skipped.
func (m *Manager) ListTrackedSeries(ctx context.Context) ([]TrackedSeries, error) {
	all, err := m.api.ListSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list series: %w", ErrUpstream, err)
	}

	byID := make(map[int]sonarr.Series, len(all))
	byTitle := make(map[string]sonarr.Series, len(all))
	for _, s := range all {
		byID[s.ID] = s
		byTitle[strings.ToLower(s.Title)] = s
	}

	tracked := make([]TrackedSeries, 0, len(m.cfg.Series))
	for _, sc := range m.cfg.Series {
		s, err := m.resolve(sc, byID, byTitle)
		if err != nil {
			m.log.Warn("skipping series", "title", sc.Title, "sonarr_id", sc.SonarrID, "error", err)
			continue
		}
		if !s.Monitored {
			m.log.Warn("series is not monitored", "title", s.Title, "series_id", s.ID)
		}

		naming := sc.Naming
		if naming == "" {
			naming = m.cfg.Library.Naming
		}
		tracked = append(tracked, TrackedSeries{
			ID:        s.ID,
			Title:     s.Title,
			Path:      m.TranslateToLocal(s.Path),
			Monitored: s.Monitored,
			Naming:    naming,
			Matching:  m.cfg.MatchingFor(sc),
			Source:    sc,
		})
	}
	return tracked, nil
}

// resolve finds the Sonarr series for a config entry, by sonarr_id when set
// and by case-insensitive title otherwise.
func (m *Manager) resolve(sc config.SeriesConfig, byID map[int]sonarr.Series, byTitle map[string]sonarr.Series) (sonarr.Series, error) {
	if sc.SonarrID != 0 {
		if s, ok := byID[sc.SonarrID]; ok {
			return s, nil
		}
		return sonarr.Series{}, fmt.Errorf("%w: sonarr_id %d", ErrNotFound, sc.SonarrID)
	}
	if s, ok := byTitle[strings.ToLower(sc.Title)]; ok {
		return s, nil
	}
	return sonarr.Series{}, fmt.Errorf("%w: title %q", ErrNotFound, sc.Title)
}

// ListMissingEpisodes returns the monitored episodes without a file whose
// air date (plus the series offset) has passed, ordered by season and episode.
// Episodes without an air date are included with a zero AirDate.
func (m *Manager) ListMissingEpisodes(ctx context.Context, series TrackedSeries) ([]Episode, error) {
	eps, err := m.api.ListEpisodes(ctx, series.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list episodes for %q: %w", ErrUpstream, series.Title, err)
	}

	var rewrite *regexp.Regexp
	if r := series.Source.TitleRewrite; r != nil {
		// Validated at config load.
		rewrite = regexp.MustCompile(r.Match)
	}

	now := m.now()
	var missing []Episode
	for _, ep := range eps {
		if !ep.Monitored || ep.HasFile {
			continue
		}
		var airDate time.Time
		if ep.AirDateUTC != nil {
			airDate = ep.AirDateUTC.Add(series.Source.AirDateOffset)
			if airDate.After(now) {
				continue
			}
		}
		title := ep.Title
		if rewrite != nil {
			title = rewrite.ReplaceAllString(title, series.Source.TitleRewrite.Replace)
		}
		missing = append(missing, Episode{
			ID:       ep.ID,
			SeriesID: series.ID,
			Season:   ep.SeasonNumber,
			Episode:  ep.EpisodeNumber,
			Title:    title,
			AirDate:  airDate,
		})
	}

	sort.Slice(missing, func(i, j int) bool {
		if missing[i].Season != missing[j].Season {
			return missing[i].Season < missing[j].Season
		}
		return missing[i].Episode < missing[j].Episode
	})

	if len(missing) == 0 {
		m.log.Info("no episodes needed", "series", series.Title)
	} else {
		m.log.Info("missing episodes", "series", series.Title, "count", len(missing))
		for _, ep := range missing {
			m.log.Debug("missing episode", "series", series.Title, "episode", ep.Code(), "title", ep.Title)
		}
	}
	return missing, nil
}

// TriggerRescan asks Sonarr to rescan a series folder.
func (m *Manager) TriggerRescan(ctx context.Context, seriesID int) error {
	cmd, err := m.api.RescanSeries(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("%w: rescan series %d: %w", ErrUpstream, seriesID, err)
	}
	m.log.Info("rescan queued", "series_id", seriesID, "command_id", cmd.ID)
	return nil
}

// TranslateToLocal converts a path as Sonarr sees it to the path on this machine.
func (m *Manager) TranslateToLocal(path string) string {
	if m.localPath == "" || m.remotePath == "" {
		return path
	}
	if path == m.remotePath || strings.HasPrefix(path, m.remotePath+"/") {
		return m.localPath + path[len(m.remotePath):]
	}
	return path
}
