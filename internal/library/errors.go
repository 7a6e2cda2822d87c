package library

import "errors"

var (
	// ErrNotFound indicates a configured series does not exist in Sonarr.
	ErrNotFound = errors.New("not found")

	// ErrUpstream indicates the library manager could not be reached or rejected a call.
	ErrUpstream = errors.New("library manager unavailable")
)
