package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig names the environment variable that overrides discovery.
const EnvConfig = "YTARR_CONFIG"

const systemPath = "/etc/ytarr/config.toml"

// ErrNotFound is returned by Discover when no config file exists.
var ErrNotFound = errors.New("config not found")

// DefaultPath is where `ytarr config init` writes: $XDG_CONFIG_HOME/ytarr/config.toml,
// falling back to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return systemPath
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ytarr", "config.toml")
}

// SearchPaths lists the files Discover tries, in order.
func SearchPaths() []string {
	return []string{"config.toml", DefaultPath(), systemPath}
}

// Discover returns $YTARR_CONFIG when set, otherwise the first regular file
// among SearchPaths.
func Discover() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfig, p, err)
		}
		return p, nil
	}

	paths := SearchPaths()
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (tried %s); create one with 'ytarr config init'", ErrNotFound, strings.Join(paths, ", "))
}
