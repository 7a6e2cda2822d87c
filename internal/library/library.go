// Package library reads wanted episodes from the library manager (Sonarr)
// and reports newly placed files back to it.
package library

import (
	"fmt"
	"time"

	"github.com/vmunix/ytarr/internal/config"
)

// TrackedSeries is a Sonarr series configured for acquisition from a channel.
type TrackedSeries struct {
	ID        int
	Title     string
	Path      string // Local series folder, after path mapping
	Monitored bool
	Naming    string // Naming template relative to Path
	Matching  config.MatchingConfig
	Source    config.SeriesConfig
}

// Episode is an episode Sonarr reports as missing.
type Episode struct {
	ID       int
	SeriesID int
	Season   int
	Episode  int
	Title    string    // After the series title rewrite
	AirDate  time.Time // Offset applied; zero when Sonarr has no air date
}

// Code returns the SxxEyy form of the episode number.
func (e Episode) Code() string {
	return fmt.Sprintf("S%02dE%02d", e.Season, e.Episode)
}
