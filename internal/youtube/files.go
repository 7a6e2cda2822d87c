package youtube

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoMediaFile indicates yt-dlp exited cleanly without leaving a media file.
var ErrNoMediaFile = errors.New("no media file produced")

var mediaExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".webm": true, ".m4v": true,
	".mov": true, ".avi": true, ".flv": true, ".ts": true,
}

// IsMediaFile reports whether path has a video container extension.
func IsMediaFile(path string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}

// findMedia returns the largest finished media file in dir. Intermediate
// format streams (name.f137.mp4) and partial downloads are ignored.
func findMedia(dir string) (string, int64, error) {
	var largestPath string
	var largestSize int64

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !IsMediaFile(path) {
			return nil
		}
		if isFormatStream(info.Name()) {
			return nil
		}
		if info.Size() > largestSize {
			largestSize = info.Size()
			largestPath = path
		}
		return nil
	})
	if err != nil {
		return "", 0, fmt.Errorf("walk directory: %w", err)
	}
	if largestPath == "" {
		return "", 0, ErrNoMediaFile
	}
	return largestPath, largestSize, nil
}

// isFormatStream matches yt-dlp's per-format intermediates such as "id.f137.mp4".
func isFormatStream(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	ext := filepath.Ext(stem)
	if len(ext) < 3 || ext[1] != 'f' {
		return false
	}
	for _, r := range ext[2:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
