// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := &Config{
		Sonarr: SonarrConfig{URL: "http://sonarr:8989", APIKey: "k"},
		Series: []SeriesConfig{{Title: "Show", URL: "https://youtube.com/@show"}},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_MinimalValid(t *testing.T) {
	errs := validConfig().Validate()
	assert.Empty(t, errs, "expected no errors for minimal valid config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"no series", func(c *Config) { c.Series = nil }, "at least one series"},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "verbose" }, "log_level"},
		{"parallel zero", func(c *Config) { c.Server.ParallelSeries = 0 }, "parallel_series"},
		{"no sonarr url", func(c *Config) { c.Sonarr.URL = "" }, "sonarr.url: required"},
		{"relative sonarr url", func(c *Config) { c.Sonarr.URL = "sonarr:8989" }, "sonarr.url: invalid"},
		{"no api key", func(c *Config) { c.Sonarr.APIKey = "" }, "sonarr.api_key"},
		{"bad api version", func(c *Config) { c.Sonarr.APIVersion = "v2" }, "api_version"},
		{"half path mapping", func(c *Config) { c.Sonarr.RemotePath = "/tv" }, "set together"},
		{"bad size", func(c *Config) { c.Download.MaxFilesize = "lots" }, "max_filesize"},
		{"bad free space", func(c *Config) { c.Download.MinFreeSpace = "x" }, "min_free_space"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max_attempts"},
		{"bad backoff", func(c *Config) { c.Retry.Backoff = "fibonacci" }, "retry.backoff"},
		{"bad delays", func(c *Config) { c.Retry.MaxDelay = c.Retry.InitialDelay / 2 }, "max_delay"},
		{"bad engine", func(c *Config) { c.Transcode.Engine = "handbrake" }, "transcode.engine"},
		{"drapto mp4", func(c *Config) { c.Transcode.Engine = "drapto"; c.Transcode.Container = "mp4" }, "drapto only produces mkv"},
		{"dotted container", func(c *Config) { c.Transcode.Container = ".mkv" }, "bare extension"},
		{"naming without episode", func(c *Config) { c.Library.Naming = "{series} S{season:02}.{ext}" }, "must contain episode"},
		{"absolute naming", func(c *Config) { c.Library.Naming = "/x/{season}{episode}.{ext}" }, "relative"},
		{"unknown rule", func(c *Config) { c.Matching.Rules = []string{"title", "vibes"} }, "unknown rule"},
		{"duplicate rule", func(c *Config) { c.Matching.Rules = []string{"date", "date"} }, "duplicate rule"},
		{"threshold too high", func(c *Config) { c.Matching.FuzzyThreshold = 1.5 }, "fuzzy_threshold"},
		{"bad disagreement", func(c *Config) { c.Matching.OnDisagreement = "lenient" }, "on_disagreement"},
		{"series without identity", func(c *Config) { c.Series[0].Title = "" }, "title or sonarr_id"},
		{"series without url", func(c *Config) { c.Series[0].URL = "" }, ".url: required"},
		{"bad lister", func(c *Config) { c.Series[0].Lister = "scrape" }, "lister"},
		{"duplicate series", func(c *Config) {
			c.Series = append(c.Series, SeriesConfig{Title: "SHOW", URL: "u", Lister: "ytdlp"})
		}, "duplicate series"},
		{"bad rewrite", func(c *Config) {
			c.Series[0].TitleRewrite = &RewriteConfig{Match: "("}
		}, "title_rewrite.match"},
		{"series matching override", func(c *Config) {
			c.Series[0].Matching = &MatchingConfig{Rules: []string{"nope"}}
		}, `series["Show"].matching.rules`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			errs := cfg.Validate()
			assert.True(t, containsError(errs, tt.want), "expected error containing %q, got %v", tt.want, errs)
		})
	}
}

func TestValidate_SonarrIDOnly(t *testing.T) {
	cfg := validConfig()
	cfg.Series[0].Title = ""
	cfg.Series[0].SonarrID = 42
	assert.Empty(t, cfg.Validate())
}

func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
