package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/vmunix/ytarr/internal/download"
	"github.com/vmunix/ytarr/internal/importer"
	"github.com/vmunix/ytarr/internal/library"
	"github.com/vmunix/ytarr/internal/youtube"
)

// Kind is the failure or skip category recorded per episode and series.
type Kind string

const (
	KindNone                Kind = ""
	KindAmbiguous           Kind = "ambiguous_match"
	KindNoMatch             Kind = "no_match"
	KindExtractionTransient Kind = "extraction_transient"
	KindExtractionPermanent Kind = "extraction_permanent"
	KindStorage             Kind = "storage"
	KindTranscode           Kind = "transcode"
	KindPlacement           Kind = "placement"
	KindUpstream            Kind = "upstream_api"
	KindCanceled            Kind = "canceled"
	KindUnknown             Kind = "unknown"
)

// Classify maps an error from any pipeline stage to its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var xerr *download.ExtractionError
	switch {
	case errors.Is(err, library.ErrUpstream):
		return KindUpstream
	case errors.Is(err, download.ErrStorage):
		return KindStorage
	case errors.As(err, &xerr):
		if xerr.Transient {
			return KindExtractionTransient
		}
		return KindExtractionPermanent
	case errors.Is(err, importer.ErrTranscode):
		return KindTranscode
	case errors.Is(err, importer.ErrPlacement):
		return KindPlacement
	case errors.Is(err, youtube.ErrTransient):
		return KindExtractionTransient
	case errors.Is(err, youtube.ErrPermanent), errors.Is(err, youtube.ErrUnsupportedSource):
		return KindExtractionPermanent
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// Status is what happened to one missing episode.
type Status string

const (
	StatusPlaced   Status = "placed"
	StatusExisting Status = "existing" // destination already present
	StatusPlanned  Status = "planned"  // dry run: would download
	StatusSkipped  Status = "skipped"  // no match or ambiguous
	StatusFailed   Status = "failed"
)

// EpisodeReport records the outcome for one missing episode.
type EpisodeReport struct {
	Episode  library.Episode `json:"episode"`
	Status   Status          `json:"status"`
	Kind     Kind            `json:"kind,omitempty"`
	Rule     string          `json:"rule,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	VideoID  string          `json:"video_id,omitempty"`
	VideoURL string          `json:"video_url,omitempty"`
	Path     string          `json:"path,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// SeriesReport records one series run.
type SeriesReport struct {
	SeriesID   int             `json:"series_id"`
	Title      string          `json:"title"`
	Missing    int             `json:"missing"`
	Candidates int             `json:"candidates"`
	Episodes   []EpisodeReport `json:"episodes,omitempty"`
	Rescanned  bool            `json:"rescanned"`
	Stopped    State           `json:"stopped"` // last state reached
	Kind       Kind            `json:"kind,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Skipped reports whether the series was abandoned before matching.
func (r SeriesReport) Skipped() bool {
	return r.Error != "" && r.Stopped != StateReporting
}

// Summary is the result of one run over all tracked series.
type Summary struct {
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	DryRun   bool           `json:"dry_run"`
	Series   []SeriesReport `json:"series"`
}

// Counts aggregates the episode outcomes of a run.
type Counts struct {
	Missing       int `json:"missing"`
	Matched       int `json:"matched"`
	Downloaded    int `json:"downloaded"`
	Placed        int `json:"placed"`
	Existing      int `json:"existing"`
	Unmatched     int `json:"unmatched"`
	Failed        int `json:"failed"`
	SeriesSkipped int `json:"series_skipped"`
}

// Counts tallies the episode reports.
func (s *Summary) Counts() Counts {
	var c Counts
	for _, sr := range s.Series {
		c.Missing += sr.Missing
		if sr.Skipped() {
			c.SeriesSkipped++
		}
		for _, ep := range sr.Episodes {
			switch ep.Status {
			case StatusPlaced:
				c.Matched++
				c.Downloaded++
				c.Placed++
			case StatusExisting:
				c.Matched++
				c.Downloaded++
				c.Existing++
			case StatusPlanned:
				c.Matched++
			case StatusSkipped:
				c.Unmatched++
			case StatusFailed:
				c.Matched++
				if ep.Kind == KindTranscode || ep.Kind == KindPlacement {
					c.Downloaded++
				}
				c.Failed++
			}
		}
	}
	return c
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}
