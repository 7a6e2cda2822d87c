// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validAPIVersions = map[string]bool{"v3": true, "legacy": true}

var validBackoffs = map[string]bool{"constant": true, "linear": true, "exponential": true}

var validEngines = map[string]bool{"ffmpeg": true, "drapto": true, "none": true}

var validListers = map[string]bool{"ytdlp": true, "feed": true, "playlist": true}

var validRules = map[string]bool{"title": true, "fuzzy": true, "date": true, "episode_number": true}

var validDisagreement = map[string]bool{"ambiguous": true, "strictest": true}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}
	if c.Server.Interval < 0 {
		errs = append(errs, "server.interval: must be positive")
	}
	if c.Server.ParallelSeries < 1 {
		errs = append(errs, fmt.Sprintf("server.parallel_series: must be at least 1, got %d", c.Server.ParallelSeries))
	}

	// Sonarr
	if c.Sonarr.URL == "" {
		errs = append(errs, "sonarr.url: required")
	} else if u, err := url.Parse(c.Sonarr.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("sonarr.url: invalid URL %q", c.Sonarr.URL))
	}
	if c.Sonarr.APIKey == "" {
		errs = append(errs, "sonarr.api_key: required")
	}
	if !validAPIVersions[c.Sonarr.APIVersion] {
		errs = append(errs, fmt.Sprintf("sonarr.api_version: must be v3 or legacy; got %q", c.Sonarr.APIVersion))
	}
	if (c.Sonarr.RemotePath == "") != (c.Sonarr.LocalPath == "") {
		errs = append(errs, "sonarr.remote_path and sonarr.local_path: must be set together")
	}

	// Download
	if _, err := c.Download.MaxFilesizeBytes(); err != nil {
		errs = append(errs, fmt.Sprintf("download.max_filesize: %v", err))
	}
	if _, err := c.Download.MinFreeSpaceBytes(); err != nil {
		errs = append(errs, fmt.Sprintf("download.min_free_space: %v", err))
	}
	if c.Download.MaxDuration < 0 {
		errs = append(errs, "download.max_duration: must be positive")
	}
	if c.Download.Timeout < 0 {
		errs = append(errs, "download.timeout: must be positive")
	}
	if c.Download.MetadataTimeout < 0 {
		errs = append(errs, "download.metadata_timeout: must be positive")
	}

	// Retry
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("retry.max_attempts: must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if !validBackoffs[c.Retry.Backoff] {
		errs = append(errs, fmt.Sprintf("retry.backoff: must be one of constant, linear, exponential; got %q", c.Retry.Backoff))
	}
	if c.Retry.MaxDelay < c.Retry.InitialDelay {
		errs = append(errs, "retry.max_delay: must not be shorter than retry.initial_delay")
	}

	// Transcode
	if !validEngines[c.Transcode.Engine] {
		errs = append(errs, fmt.Sprintf("transcode.engine: must be one of ffmpeg, drapto, none; got %q", c.Transcode.Engine))
	}
	if c.Transcode.Engine == "drapto" && c.Transcode.Container != "mkv" {
		errs = append(errs, "transcode.container: drapto only produces mkv")
	}
	if strings.ContainsAny(c.Transcode.Container, "./\\ ") {
		errs = append(errs, fmt.Sprintf("transcode.container: must be a bare extension, got %q", c.Transcode.Container))
	}

	errs = append(errs, validateNaming("library.naming", c.Library.Naming)...)
	errs = append(errs, validateMatching("matching", c.Matching)...)

	// Series
	if len(c.Series) == 0 {
		errs = append(errs, "series: at least one series must be configured")
	}
	seen := make(map[string]bool)
	for i, s := range c.Series {
		name := fmt.Sprintf("series[%d]", i)
		if s.Title != "" {
			name = fmt.Sprintf("series[%q]", s.Title)
		}
		if s.Title == "" && s.SonarrID == 0 {
			errs = append(errs, name+": title or sonarr_id required")
		}
		key := strings.ToLower(s.Title)
		if s.Title != "" && seen[key] {
			errs = append(errs, name+": duplicate series")
		}
		seen[key] = true
		if s.URL == "" {
			errs = append(errs, name+".url: required")
		}
		if !validListers[s.Lister] {
			errs = append(errs, fmt.Sprintf("%s.lister: must be one of ytdlp, feed, playlist; got %q", name, s.Lister))
		}
		errs = append(errs, validateRewrite(name+".title_rewrite", s.TitleRewrite)...)
		errs = append(errs, validateRewrite(name+".candidate_rewrite", s.CandidateRewrite)...)
		if s.Naming != "" {
			errs = append(errs, validateNaming(name+".naming", s.Naming)...)
		}
		if s.Matching != nil {
			errs = append(errs, validateMatching(name+".matching", c.MatchingFor(s))...)
		}
	}

	return errs
}

func validateNaming(field, tmpl string) []string {
	var errs []string
	for _, required := range []string{"{season", "{episode", "{ext}"} {
		if !strings.Contains(tmpl, required) {
			errs = append(errs, fmt.Sprintf("%s: template must contain %s", field, strings.TrimPrefix(required, "{")))
		}
	}
	if strings.HasPrefix(tmpl, "/") || strings.Contains(tmpl, "..") {
		errs = append(errs, fmt.Sprintf("%s: template must be relative to the series folder", field))
	}
	return errs
}

func validateMatching(field string, m MatchingConfig) []string {
	var errs []string
	if len(m.Rules) == 0 {
		errs = append(errs, field+".rules: at least one rule required")
	}
	seen := make(map[string]bool)
	for _, r := range m.Rules {
		if !validRules[r] {
			errs = append(errs, fmt.Sprintf("%s.rules: unknown rule %q (title, episode_number, fuzzy, date)", field, r))
		}
		if seen[r] {
			errs = append(errs, fmt.Sprintf("%s.rules: duplicate rule %q", field, r))
		}
		seen[r] = true
	}
	if m.FuzzyThreshold <= 0 || m.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Sprintf("%s.fuzzy_threshold: must be in (0, 1], got %v", field, m.FuzzyThreshold))
	}
	if m.DateTolerance < 0 {
		errs = append(errs, field+".date_tolerance: must be positive")
	}
	if !validDisagreement[m.OnDisagreement] {
		errs = append(errs, fmt.Sprintf("%s.on_disagreement: must be ambiguous or strictest; got %q", field, m.OnDisagreement))
	}
	if m.MaxCandidates < 0 {
		errs = append(errs, field+".max_candidates: must be positive")
	}
	return errs
}

func validateRewrite(field string, r *RewriteConfig) []string {
	if r == nil {
		return nil
	}
	if r.Match == "" {
		return []string{field + ".match: required"}
	}
	if _, err := regexp.Compile(r.Match); err != nil {
		return []string{fmt.Sprintf("%s.match: %v", field, err)}
	}
	return nil
}
