package download

import (
	"errors"
	"fmt"
)

// Sentinel errors for the download package.
var (
	// ErrExtraction is returned when the video cannot be inspected or fetched.
	ErrExtraction = errors.New("extraction failed")

	// ErrStorage is returned when the staging volume cannot hold the download.
	ErrStorage = errors.New("staging storage unavailable")

	// ErrTooLong is returned when the video exceeds max_duration.
	ErrTooLong = errors.New("video exceeds maximum duration")

	// ErrTooLarge is returned when the size estimate exceeds max_filesize.
	ErrTooLarge = errors.New("video exceeds maximum file size")
)

// ExtractionError reports a failed inspect or fetch and whether it was
// still considered transient when retries ran out.
type ExtractionError struct {
	VideoID   string
	Transient bool
	Err       error
}

func (e *ExtractionError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("extraction of %s failed (%s): %v", e.VideoID, kind, e.Err)
}

// Unwrap exposes both ErrExtraction and the underlying cause.
func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}
