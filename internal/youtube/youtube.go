// Package youtube lists channel uploads and downloads videos through yt-dlp.
package youtube

import (
	"errors"
	"time"
)

// Lister kinds.
const (
	ListerYTDLP    = "ytdlp"
	ListerFeed     = "feed"
	ListerPlaylist = "playlist"
)

var (
	// ErrTransient marks failures worth retrying: rate limits, timeouts, resets.
	ErrTransient = errors.New("transient extraction failure")

	// ErrPermanent marks failures that will not improve within a run:
	// removed, private or geo-blocked videos, bad metadata.
	ErrPermanent = errors.New("permanent extraction failure")

	// ErrUnsupportedSource indicates the lister cannot handle the source URL.
	ErrUnsupportedSource = errors.New("unsupported source")
)

// Source is a channel, playlist or feed to list uploads from.
type Source struct {
	URL         string
	Lister      string
	CookiesFile string
}

// Metadata describes a single video as reported by the extractor.
type Metadata struct {
	ID        string
	Title     string
	Published time.Time
	Duration  time.Duration
	Width     int
	Height    int
	Filesize  int64 // exact or approximate, 0 when unknown
	Ext       string
}

// FetchOptions control format selection and side files for Inspect and Fetch.
type FetchOptions struct {
	Format            string
	MergeOutputFormat string
	CookiesFile       string
	SubtitleLanguages []string
	AutoSubtitles     bool
}

// Quality returns a short label such as "1080p" for naming templates.
func (m Metadata) Quality() string {
	if m.Height <= 0 {
		return ""
	}
	switch {
	case m.Height >= 2160:
		return "2160p"
	case m.Height >= 1440:
		return "1440p"
	case m.Height >= 1080:
		return "1080p"
	case m.Height >= 720:
		return "720p"
	case m.Height >= 480:
		return "480p"
	default:
		return "SD"
	}
}
