package importer

import "errors"

var (
	// ErrTranscode indicates the downloaded file could not be converted.
	ErrTranscode = errors.New("transcode failed")

	// ErrPlacement indicates the file could not be written into the series folder.
	ErrPlacement = errors.New("placement failed")

	// ErrDestinationExists indicates the destination file already exists.
	ErrDestinationExists = errors.New("destination file already exists")

	// ErrPathTraversal indicates a naming template resolved outside the series folder.
	ErrPathTraversal = errors.New("path traversal detected")
)
