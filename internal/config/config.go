// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
)

// Default naming template, relative to the series folder.
const DefaultNaming = "Season {season:02}/{series} - S{season:02}E{episode:02} - {title}.{ext}"

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Sonarr    SonarrConfig    `toml:"sonarr"`
	Download  DownloadConfig  `toml:"download"`
	Retry     RetryConfig     `toml:"retry"`
	Transcode TranscodeConfig `toml:"transcode"`
	Library   LibraryConfig   `toml:"library"`
	Matching  MatchingConfig  `toml:"matching"`
	Series    []SeriesConfig  `toml:"series"`

	// Dir is the directory of the loaded file. Relative cookie paths resolve against it.
	Dir string `toml:"-"`
}

type ServerConfig struct {
	LogLevel       string        `toml:"log_level"`
	Interval       time.Duration `toml:"interval"`
	ParallelSeries int           `toml:"parallel_series"`
	LockFile       string        `toml:"lock_file"`
}

type SonarrConfig struct {
	URL        string        `toml:"url"`
	APIKey     string        `toml:"api_key"`
	APIVersion string        `toml:"api_version"` // "v3" or "legacy"
	Timeout    time.Duration `toml:"timeout"`
	RemotePath string        `toml:"remote_path"` // Path prefix as seen by Sonarr
	LocalPath  string        `toml:"local_path"`  // Same location on this machine
}

type DownloadConfig struct {
	StagingDir        string        `toml:"staging_dir"`
	Format            string        `toml:"format"`
	MergeOutputFormat string        `toml:"merge_output_format"`
	MaxDuration       time.Duration `toml:"max_duration"`
	MaxFilesize       string        `toml:"max_filesize"`
	MinFreeSpace      string        `toml:"min_free_space"`
	Timeout           time.Duration `toml:"timeout"`
	MetadataTimeout   time.Duration `toml:"metadata_timeout"`
	Binary            string        `toml:"binary"`
	AutoInstall       bool          `toml:"auto_install"`
}

// MaxFilesizeBytes parses max_filesize. Zero means unlimited.
func (d DownloadConfig) MaxFilesizeBytes() (uint64, error) {
	return parseSize(d.MaxFilesize)
}

// MinFreeSpaceBytes parses min_free_space. Zero disables the check.
func (d DownloadConfig) MinFreeSpaceBytes() (uint64, error) {
	return parseSize(d.MinFreeSpace)
}

func parseSize(s string) (uint64, error) {
	if strings.TrimSpace(s) == "" || s == "0" {
		return 0, nil
	}
	return humanize.ParseBytes(s)
}

type RetryConfig struct {
	MaxAttempts  int           `toml:"max_attempts"`
	Backoff      string        `toml:"backoff"` // constant, linear, exponential
	InitialDelay time.Duration `toml:"initial_delay"`
	MaxDelay     time.Duration `toml:"max_delay"`
}

type TranscodeConfig struct {
	Engine     string        `toml:"engine"` // ffmpeg, drapto, none
	Binary     string        `toml:"binary"`
	Container  string        `toml:"container"`
	VideoCodec string        `toml:"video_codec"`
	AudioCodec string        `toml:"audio_codec"`
	Timeout    time.Duration `toml:"timeout"`
}

type LibraryConfig struct {
	Naming string `toml:"naming"`
}

type MatchingConfig struct {
	Rules          []string      `toml:"rules"`
	DateTolerance  time.Duration `toml:"date_tolerance"`
	FuzzyThreshold float64       `toml:"fuzzy_threshold"`
	OnDisagreement string        `toml:"on_disagreement"` // ambiguous or strictest
	Lookback       time.Duration `toml:"lookback"`
	MaxCandidates  int           `toml:"max_candidates"`
}

// SeriesConfig maps one Sonarr series to its source channel.
type SeriesConfig struct {
	Title              string           `toml:"title"`
	SonarrID           int              `toml:"sonarr_id"`
	URL                string           `toml:"url"`
	Lister             string           `toml:"lister"` // ytdlp, feed, playlist
	Format             string           `toml:"format"`
	CookiesFile        string           `toml:"cookies_file"`
	Naming             string           `toml:"naming"`
	PrependSeriesTitle bool             `toml:"prepend_series_title"`
	AirDateOffset      time.Duration    `toml:"air_date_offset"`
	TitleRewrite       *RewriteConfig   `toml:"title_rewrite"`
	CandidateRewrite   *RewriteConfig   `toml:"candidate_rewrite"`
	Subtitles          *SubtitlesConfig `toml:"subtitles"`
	Matching           *MatchingConfig  `toml:"matching"`
}

// RewriteConfig is a regular expression substitution applied to titles.
type RewriteConfig struct {
	Match   string `toml:"match"`
	Replace string `toml:"replace"`
}

type SubtitlesConfig struct {
	Languages     []string `toml:"languages"`
	AutoGenerated bool     `toml:"auto_generated"`
}

// MatchingFor returns the global matching config with the series override applied.
func (c *Config) MatchingFor(s SeriesConfig) MatchingConfig {
	m := c.Matching
	if s.Matching == nil {
		return m
	}
	o := s.Matching
	if len(o.Rules) > 0 {
		m.Rules = o.Rules
	}
	if o.DateTolerance != 0 {
		m.DateTolerance = o.DateTolerance
	}
	if o.FuzzyThreshold != 0 {
		m.FuzzyThreshold = o.FuzzyThreshold
	}
	if o.OnDisagreement != "" {
		m.OnDisagreement = o.OnDisagreement
	}
	if o.Lookback != 0 {
		m.Lookback = o.Lookback
	}
	if o.MaxCandidates != 0 {
		m.MaxCandidates = o.MaxCandidates
	}
	return m
}

// CookiesPath resolves a series cookies file against the config directory.
func (c *Config) CookiesPath(s SeriesConfig) string {
	if s.CookiesFile == "" || filepath.IsAbs(s.CookiesFile) {
		return s.CookiesFile
	}
	return filepath.Join(c.Dir, s.CookiesFile)
}

// Load reads, parses and validates the configuration file.
// Returns *Error if environment variables are missing or validation fails.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cfgErr := &Error{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cfgErr.HasErrors() {
		return nil, cfgErr
	}
	return cfg, nil
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.Dir = filepath.Dir(abs)
	cfg.applyDefaults()

	return &cfg, missing, nil
}

func (c *Config) applyDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.Interval == 0 {
		c.Server.Interval = 60 * time.Minute
	}
	if c.Server.ParallelSeries == 0 {
		c.Server.ParallelSeries = 1
	}

	if c.Sonarr.APIVersion == "" {
		c.Sonarr.APIVersion = "v3"
	}
	if c.Sonarr.Timeout == 0 {
		c.Sonarr.Timeout = 30 * time.Second
	}

	if c.Download.StagingDir == "" {
		c.Download.StagingDir = filepath.Join(os.TempDir(), "ytarr")
	}
	if c.Download.Format == "" {
		c.Download.Format = "bestvideo*+bestaudio/best"
	}
	if c.Download.MergeOutputFormat == "" {
		c.Download.MergeOutputFormat = "mkv"
	}
	if c.Download.MaxDuration == 0 {
		c.Download.MaxDuration = 4 * time.Hour
	}
	if c.Download.MaxFilesize == "" {
		c.Download.MaxFilesize = "10GB"
	}
	if c.Download.MinFreeSpace == "" {
		c.Download.MinFreeSpace = "1GB"
	}
	if c.Download.Timeout == 0 {
		c.Download.Timeout = time.Hour
	}
	if c.Download.MetadataTimeout == 0 {
		c.Download.MetadataTimeout = 2 * time.Minute
	}

	if c.Server.LockFile == "" {
		c.Server.LockFile = filepath.Join(c.Download.StagingDir, "ytarr.lock")
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = "exponential"
	}
	if c.Retry.InitialDelay == 0 {
		c.Retry.InitialDelay = 10 * time.Second
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 5 * time.Minute
	}

	if c.Transcode.Engine == "" {
		c.Transcode.Engine = "ffmpeg"
	}
	if c.Transcode.Binary == "" && c.Transcode.Engine == "ffmpeg" {
		c.Transcode.Binary = "ffmpeg"
	}
	if c.Transcode.Container == "" {
		c.Transcode.Container = "mkv"
	}
	if c.Transcode.VideoCodec == "" {
		c.Transcode.VideoCodec = "copy"
	}
	if c.Transcode.AudioCodec == "" {
		c.Transcode.AudioCodec = "copy"
	}
	if c.Transcode.Timeout == 0 {
		c.Transcode.Timeout = 2 * time.Hour
	}

	if c.Library.Naming == "" {
		c.Library.Naming = DefaultNaming
	}

	if len(c.Matching.Rules) == 0 {
		c.Matching.Rules = []string{"title", "episode_number", "fuzzy", "date"}
	}
	if c.Matching.DateTolerance == 0 {
		c.Matching.DateTolerance = 72 * time.Hour
	}
	if c.Matching.FuzzyThreshold == 0 {
		c.Matching.FuzzyThreshold = 0.9
	}
	if c.Matching.OnDisagreement == "" {
		c.Matching.OnDisagreement = "ambiguous"
	}
	if c.Matching.MaxCandidates == 0 {
		c.Matching.MaxCandidates = 100
	}

	for i := range c.Series {
		if c.Series[i].Lister == "" {
			c.Series[i].Lister = "ytdlp"
		}
	}
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces environment references with their values.
// Unresolved references are left in place and reported in missing. Whole-line
// comments are copied verbatim so documentation can show the syntax.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	lines := strings.SplitAfter(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines[i] = envVarPattern.ReplaceAllStringFunc(line, func(match string) string {
			parts := envVarPattern.FindStringSubmatch(match)
			name, op, arg := parts[1], parts[2], parts[3]

			value, ok := os.LookupEnv(name)
			switch op {
			case ":-":
				if !ok || value == "" {
					return arg
				}
				return value
			case ":?":
				if !ok || value == "" {
					missing = append(missing, name+": "+arg)
					return match
				}
				return value
			default:
				if !ok {
					missing = append(missing, name)
					return match
				}
				return value
			}
		})
	}
	return strings.Join(lines, ""), missing
}
