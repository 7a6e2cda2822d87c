// internal/importer/place.go
package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// placeFile copies src to a hidden temp file beside dst, syncs it and hard
// links it to dst. Linking fails when dst exists, so an existing file is
// never overwritten. On any failure the temp file and every directory this
// call created are removed. Returns the bytes written.
func placeFile(src, dst string) (int64, error) {
	created, err := mkdirAllTracked(filepath.Dir(dst), 0o755)
	if err != nil {
		removeDirs(created)
		return 0, fmt.Errorf("create directory: %w", err)
	}

	size, err := placeInDir(src, dst)
	if err != nil && !errors.Is(err, ErrDestinationExists) {
		removeDirs(created)
	}
	return size, err
}

func placeInDir(src, dst string) (int64, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	size, err := io.Copy(tmp, srcFile)
	if err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("copy content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return 0, fmt.Errorf("chmod: %w", err)
	}

	if err := os.Link(tmpPath, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, ErrDestinationExists
		}
		return 0, fmt.Errorf("link: %w", err)
	}
	return size, nil
}

// mkdirAllTracked behaves like os.MkdirAll and returns the directories it
// created, deepest last.
func mkdirAllTracked(dir string, perm os.FileMode) ([]string, error) {
	var missing []string
	for d := filepath.Clean(dir); ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}

	var created []string
	for i := len(missing) - 1; i >= 0; i-- {
		if err := os.Mkdir(missing[i], perm); err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return created, err
		}
		created = append(created, missing[i])
	}
	return created, nil
}

// removeDirs removes created directories deepest first. Directories that
// gained other content in the meantime are left alone.
func removeDirs(created []string) {
	for i := len(created) - 1; i >= 0; i-- {
		_ = os.Remove(created[i])
	}
}
