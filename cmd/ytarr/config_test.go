package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/ytarr/internal/config"
	"github.com/vmunix/ytarr/pkg/sonarr"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testCommand(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd
}

func TestRunConfigTest_Valid(t *testing.T) {
	path := writeTestConfig(t, `
[sonarr]
url = "http://sonarr:8989"
api_key = "secret"

[[series]]
title = "Example Show"
url = "https://www.youtube.com/@example/videos"
lister = "feed"
`)

	var out bytes.Buffer
	require.NoError(t, runConfigTest(testCommand(&out), []string{path}))

	s := out.String()
	assert.Contains(t, s, "Configuration Summary:")
	assert.Contains(t, s, "http://sonarr:8989 (api v3)")
	assert.Contains(t, s, "Example Show [feed]")
	assert.Contains(t, s, "title > episode_number > fuzzy > date")
	assert.Contains(t, s, "Configuration valid!")
	assert.NotContains(t, s, "secret")
}

func TestRunConfigTest_Invalid(t *testing.T) {
	path := writeTestConfig(t, `
[sonarr]
url = "http://sonarr:8989"
api_key = "${YTARR_TEST_UNSET_KEY}"

[matching]
rules = ["title", "vibes"]
`)

	var out bytes.Buffer
	err := runConfigTest(testCommand(&out), []string{path})
	require.Error(t, err)

	s := out.String()
	assert.Contains(t, s, "Missing environment variables:")
	assert.Contains(t, s, "YTARR_TEST_UNSET_KEY")
	assert.Contains(t, s, "Validation errors:")
	assert.Contains(t, s, `unknown rule "vibes"`)
	assert.Contains(t, s, "at least one series")
}

func TestRunConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytarr", "config.toml")

	var out bytes.Buffer
	require.NoError(t, runConfigInit(testCommand(&out), []string{path}))
	assert.FileExists(t, path)
	assert.Contains(t, out.String(), path)

	err := runConfigInit(testCommand(&out), []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func fakeSonarr(t *testing.T) *httptest.Server {
	t.Helper()
	series := []sonarr.Series{
		{ID: 1, Title: "Example Show", Monitored: true},
		{ID: 2, Title: "Paused Show", Monitored: false},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/system/status", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"version": "4.0.11"})
	})
	mux.HandleFunc("GET /api/v3/series", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(series)
	})
	mux.HandleFunc("GET /api/v3/series/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "2" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(series[1])
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckSonarr(t *testing.T) {
	srv := fakeSonarr(t)
	cfg := &config.Config{
		Sonarr: config.SonarrConfig{URL: srv.URL, APIKey: "k", APIVersion: "v3"},
		Series: []config.SeriesConfig{
			{Title: "example show"},
			{SonarrID: 2},
		},
	}

	var out bytes.Buffer
	require.NoError(t, checkSonarr(context.Background(), &out, cfg))

	s := out.String()
	assert.Contains(t, s, "Sonarr 4.0.11 reachable.")
	assert.Contains(t, s, "Example Show (id 1): ok")
	assert.Contains(t, s, "Paused Show (id 2): not monitored")
}

func TestCheckSonarr_UnknownSeries(t *testing.T) {
	srv := fakeSonarr(t)
	cfg := &config.Config{
		Sonarr: config.SonarrConfig{URL: srv.URL, APIKey: "k", APIVersion: "v3"},
		Series: []config.SeriesConfig{
			{Title: "Not There"},
			{SonarrID: 9},
		},
	}

	var out bytes.Buffer
	err := checkSonarr(context.Background(), &out, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 configured series")
	assert.Contains(t, out.String(), "Not There: not found in Sonarr")
	assert.Contains(t, out.String(), "#9: not found in Sonarr")
}

func TestCheckSonarr_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{Sonarr: config.SonarrConfig{URL: srv.URL, APIKey: "bad", APIVersion: "v3"}}
	err := checkSonarr(context.Background(), &bytes.Buffer{}, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, sonarr.ErrUnauthorized)
}
