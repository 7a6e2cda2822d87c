package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "failed to write test config")
	return path
}

const minimalConfig = `
[sonarr]
url = "http://sonarr:8989"
api_key = "test-key"

[[series]]
title = "Bluey Shorts"
url = "https://www.youtube.com/@bluey/videos"
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 60*time.Minute, cfg.Server.Interval)
	assert.Equal(t, 1, cfg.Server.ParallelSeries)
	assert.Equal(t, "v3", cfg.Sonarr.APIVersion)
	assert.Equal(t, "bestvideo*+bestaudio/best", cfg.Download.Format)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "exponential", cfg.Retry.Backoff)
	assert.Equal(t, "ffmpeg", cfg.Transcode.Engine)
	assert.Equal(t, "mkv", cfg.Transcode.Container)
	assert.Equal(t, DefaultNaming, cfg.Library.Naming)
	assert.Equal(t, []string{"title", "episode_number", "fuzzy", "date"}, cfg.Matching.Rules)
	assert.Equal(t, 72*time.Hour, cfg.Matching.DateTolerance)
	assert.Equal(t, "ambiguous", cfg.Matching.OnDisagreement)
	assert.Equal(t, filepath.Join(cfg.Download.StagingDir, "ytarr.lock"), cfg.Server.LockFile)

	require.Len(t, cfg.Series, 1)
	assert.Equal(t, "ytdlp", cfg.Series[0].Lister)
}

func TestLoad_Sizes(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
[download]
max_filesize = "2 GiB"
min_free_space = "500MB"
`))
	require.NoError(t, err)

	maxSize, err := cfg.Download.MaxFilesizeBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(2<<30), maxSize)

	free, err := cfg.Download.MinFreeSpaceBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), free)
}

func TestLoad_ZeroSizeDisables(t *testing.T) {
	d := DownloadConfig{MaxFilesize: "0"}
	n, err := d.MaxFilesizeBytes()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoad_SeriesOptions(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[sonarr]
url = "http://sonarr:8989"
api_key = "k"

[[series]]
title = "Critical Role"
url = "https://www.youtube.com/playlist?list=PL1"
lister = "playlist"
cookies_file = "cookies.txt"
prepend_series_title = true
air_date_offset = "24h"

[series.title_rewrite]
match = "^Part (\\d+)$"
replace = "Chapter $1"

[series.subtitles]
languages = ["en", "de"]

[series.matching]
rules = ["episode_number"]
`))
	require.NoError(t, err)

	s := cfg.Series[0]
	assert.Equal(t, "playlist", s.Lister)
	assert.True(t, s.PrependSeriesTitle)
	assert.Equal(t, 24*time.Hour, s.AirDateOffset)
	require.NotNil(t, s.TitleRewrite)
	assert.Equal(t, `^Part (\d+)$`, s.TitleRewrite.Match)
	require.NotNil(t, s.Subtitles)
	assert.Equal(t, []string{"en", "de"}, s.Subtitles.Languages)

	assert.Equal(t, filepath.Join(cfg.Dir, "cookies.txt"), cfg.CookiesPath(s))

	m := cfg.MatchingFor(s)
	assert.Equal(t, []string{"episode_number"}, m.Rules)
	assert.Equal(t, 0.9, m.FuzzyThreshold, "unset override fields inherit the global value")
}

func TestCookiesPath_Absolute(t *testing.T) {
	cfg := &Config{Dir: "/etc/ytarr"}
	assert.Equal(t, "/var/lib/cookies.txt", cfg.CookiesPath(SeriesConfig{CookiesFile: "/var/lib/cookies.txt"}))
	assert.Empty(t, cfg.CookiesPath(SeriesConfig{}))
}

func TestLoad_MissingEnvVar(t *testing.T) {
	_, err := Load(writeConfig(t, `
[sonarr]
url = "http://sonarr:8989"
api_key = "${YTARR_TEST_NEVER_SET_KEY}"

[[series]]
title = "X"
url = "https://youtube.com/@x"
`))
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr), "expected *Error, got %T", err)
	assert.Equal(t, []string{"YTARR_TEST_NEVER_SET_KEY"}, cfgErr.Missing)
}

func TestLoad_ValidationError(t *testing.T) {
	_, err := Load(writeConfig(t, `
[sonarr]
url = "http://sonarr:8989"
`))
	require.Error(t, err)

	var cfgErr *Error
	require.True(t, errors.As(err, &cfgErr))
	assert.True(t, containsError(cfgErr.Errors, "sonarr.api_key"))
	assert.True(t, containsError(cfgErr.Errors, "at least one series"))
}

func TestLoad_InvalidTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[sonarr\nurl="))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
