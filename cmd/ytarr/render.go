package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/vmunix/ytarr/internal/coordinator"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    60,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func statusColor(s coordinator.Status) string {
	switch s {
	case coordinator.StatusPlaced:
		return ansiGreen
	case coordinator.StatusFailed:
		return ansiRed
	case coordinator.StatusSkipped:
		return ansiYellow
	default:
		return ""
	}
}

func formatStatus(ep coordinator.EpisodeReport, colorize bool) string {
	s := string(ep.Status)
	if ep.Kind != coordinator.KindNone {
		s += " (" + string(ep.Kind) + ")"
	}
	if colorize {
		if c := statusColor(ep.Status); c != "" {
			return c + s + ansiReset
		}
	}
	return s
}

func episodeDetail(ep coordinator.EpisodeReport) string {
	switch {
	case ep.Error != "":
		return ep.Error
	case ep.Path != "":
		return ep.Path
	case ep.VideoURL != "":
		return ep.VideoURL
	default:
		return ep.Reason
	}
}

// writeSummary renders a run summary: a table on a terminal, one line per
// episode otherwise.
func writeSummary(w io.Writer, summary *coordinator.Summary, tty bool) {
	counts := summary.Counts()

	if tty {
		var rows [][]string
		for _, sr := range summary.Series {
			if sr.Skipped() {
				rows = append(rows, []string{sr.Title, "", formatStatus(coordinator.EpisodeReport{Status: coordinator.StatusFailed, Kind: sr.Kind}, true), sr.Error})
				continue
			}
			for _, ep := range sr.Episodes {
				rows = append(rows, []string{sr.Title, ep.Episode.Code(), formatStatus(ep, true), episodeDetail(ep)})
			}
		}
		if len(rows) > 0 {
			_, _ = fmt.Fprintln(w, renderTable([]string{"Series", "Episode", "Status", "Detail"}, rows, nil))
		}
	} else {
		for _, sr := range summary.Series {
			if sr.Skipped() {
				_, _ = fmt.Fprintf(w, "%s\t-\tskipped (%s)\t%s\n", sr.Title, sr.Kind, sr.Error)
				continue
			}
			for _, ep := range sr.Episodes {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sr.Title, ep.Episode.Code(), formatStatus(ep, false), episodeDetail(ep))
			}
		}
	}

	parts := []string{
		"missing " + strconv.Itoa(counts.Missing),
		"matched " + strconv.Itoa(counts.Matched),
	}
	if summary.DryRun {
		parts = append(parts, "dry run")
	} else {
		parts = append(parts,
			"downloaded "+strconv.Itoa(counts.Downloaded),
			"placed "+strconv.Itoa(counts.Placed),
			"existing "+strconv.Itoa(counts.Existing),
			"failed "+strconv.Itoa(counts.Failed))
	}
	if counts.SeriesSkipped > 0 {
		parts = append(parts, "series skipped "+strconv.Itoa(counts.SeriesSkipped))
	}
	_, _ = fmt.Fprintf(w, "%d series: %s (%s)\n", len(summary.Series), strings.Join(parts, ", "), summary.Duration().Round(time.Second))
}
