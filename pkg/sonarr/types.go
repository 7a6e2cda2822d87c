// Package sonarr provides a client for the Sonarr REST API.
package sonarr

import "time"

// Series represents a series tracked by Sonarr.
type Series struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Path      string `json:"path"`
	Monitored bool   `json:"monitored"`
	TVDBID    int    `json:"tvdbId"`
	Year      int    `json:"year"`
}

// Episode represents a single episode record.
type Episode struct {
	ID            int        `json:"id"`
	SeriesID      int        `json:"seriesId"`
	SeasonNumber  int        `json:"seasonNumber"`
	EpisodeNumber int        `json:"episodeNumber"`
	Title         string     `json:"title"`
	AirDateUTC    *time.Time `json:"airDateUtc,omitempty"` // nil when unannounced
	HasFile       bool       `json:"hasFile"`
	Monitored     bool       `json:"monitored"`
}

// Command is the response to a queued command.
type Command struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// commandRequest is the body of POST /command.
type commandRequest struct {
	Name     string `json:"name"`
	SeriesID int    `json:"seriesId,omitempty"`
}

// systemStatus is the subset of /system/status we read.
type systemStatus struct {
	Version string `json:"version"`
}
