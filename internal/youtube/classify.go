package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var transientMarkers = []string{
	"http error 429",
	"too many requests",
	"timed out",
	"timeout",
	"connection reset",
	"connection refused",
	"temporary failure in name resolution",
	"http error 500",
	"http error 502",
	"http error 503",
	"http error 504",
	"incompleteread",
	"unable to download webpage",
	"unable to download video data",
}

var permanentMarkers = []string{
	"video unavailable",
	"private video",
	"has been removed",
	"available in your country",
	"geo restriction",
	"members-only",
	"join this channel",
	"sign in to confirm your age",
	"is not a valid url",
	"unsupported url",
	"premieres in",
	"this live event will begin",
}

// classify wraps a yt-dlp failure in ErrTransient or ErrPermanent. Cancellation
// is returned unchanged so callers stop instead of retrying.
func classify(op string, err error, stderr string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrTransient, op, err)
	}

	msg := lastErrorLine(stderr)
	if msg == "" && err != nil {
		msg = err.Error()
	}
	lower := strings.ToLower(stderr + " " + msg)

	// Permanent markers win: an unavailable video also logs webpage fetch noise.
	for _, m := range permanentMarkers {
		if strings.Contains(lower, m) {
			return fmt.Errorf("%w: %s: %s", ErrPermanent, op, msg)
		}
	}
	for _, m := range transientMarkers {
		if strings.Contains(lower, m) {
			return fmt.Errorf("%w: %s: %s", ErrTransient, op, msg)
		}
	}
	return fmt.Errorf("%w: %s: %s", ErrPermanent, op, msg)
}

// lastErrorLine returns the last "ERROR:" line yt-dlp printed.
func lastErrorLine(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); strings.HasPrefix(line, "ERROR:") {
			return line
		}
	}
	return ""
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
