package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/ytarr/internal/config"
	"github.com/vmunix/ytarr/pkg/sonarr"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, required fields and environment variable substitution. With --connect it also checks that Sonarr answers.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigTest,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configConnect bool

func init() {
	configTestCmd.Flags().BoolVar(&configConnect, "connect", false, "Also query the Sonarr API")
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		var err error
		if path, err = config.Discover(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.Error
		if errors.As(err, &configErr) {
			printConfigErrors(out, configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(out, cfg)

	if configConnect {
		if err := checkSonarr(cmd.Context(), out, cfg); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration valid!")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.WriteDefault(path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists", path)
		}
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nSet SONARR_API_KEY (or edit the file) and add your series.\n", path)
	return nil
}

func printConfigErrors(w io.Writer, e *config.Error) {
	if len(e.Missing) > 0 {
		_, _ = fmt.Fprintln(w, "Missing environment variables:")
		for _, m := range e.Missing {
			_, _ = fmt.Fprintf(w, "  - %s\n", m)
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(e.Errors) > 0 {
		_, _ = fmt.Fprintln(w, "Validation errors:")
		for _, err := range e.Errors {
			_, _ = fmt.Fprintf(w, "  - %s\n", err)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	_, _ = fmt.Fprintln(w, "Configuration Summary:")
	_, _ = fmt.Fprintf(w, "  Sonarr:     %s (api %s)\n", cfg.Sonarr.URL, cfg.Sonarr.APIVersion)
	if cfg.Sonarr.RemotePath != "" {
		_, _ = fmt.Fprintf(w, "  Paths:      %s -> %s\n", cfg.Sonarr.RemotePath, cfg.Sonarr.LocalPath)
	}
	_, _ = fmt.Fprintf(w, "  Schedule:   every %s, %d series at a time (log: %s)\n",
		cfg.Server.Interval, cfg.Server.ParallelSeries, cfg.Server.LogLevel)

	maxSize, _ := cfg.Download.MaxFilesizeBytes()
	size := "unlimited"
	if maxSize > 0 {
		size = humanize.Bytes(maxSize)
	}
	_, _ = fmt.Fprintf(w, "  Staging:    %s (max %s, %s per file)\n", cfg.Download.StagingDir, cfg.Download.MaxDuration, size)
	_, _ = fmt.Fprintf(w, "  Transcode:  %s -> %s\n", cfg.Transcode.Engine, cfg.Transcode.Container)
	_, _ = fmt.Fprintf(w, "  Matching:   %s (on disagreement: %s)\n",
		strings.Join(cfg.Matching.Rules, " > "), cfg.Matching.OnDisagreement)

	titles := make([]string, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		label := s.Title
		if label == "" {
			label = fmt.Sprintf("#%d", s.SonarrID)
		}
		titles = append(titles, fmt.Sprintf("%s [%s]", label, s.Lister))
	}
	_, _ = fmt.Fprintf(w, "  Series:     %s\n", strings.Join(titles, ", "))
}

// checkSonarr verifies Sonarr answers and knows every configured series.
func checkSonarr(ctx context.Context, w io.Writer, cfg *config.Config) error {
	client := sonarr.New(cfg.Sonarr.URL, cfg.Sonarr.APIKey,
		sonarr.WithAPIVersion(cfg.Sonarr.APIVersion),
		sonarr.WithTimeout(cfg.Sonarr.Timeout))

	v, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("sonarr: %w", err)
	}
	_, _ = fmt.Fprintf(w, "\nSonarr %s reachable.\n", v)

	all, err := client.ListSeries(ctx)
	if err != nil {
		return fmt.Errorf("sonarr: %w", err)
	}

	unknown := 0
	for _, sc := range cfg.Series {
		var found *sonarr.Series
		if sc.SonarrID != 0 {
			found, err = client.GetSeries(ctx, sc.SonarrID)
			if err != nil && !errors.Is(err, sonarr.ErrNotFound) {
				return fmt.Errorf("sonarr: %w", err)
			}
		} else {
			for i := range all {
				if strings.EqualFold(all[i].Title, sc.Title) {
					found = &all[i]
					break
				}
			}
		}

		switch {
		case found == nil:
			unknown++
			label := sc.Title
			if label == "" {
				label = fmt.Sprintf("#%d", sc.SonarrID)
			}
			_, _ = fmt.Fprintf(w, "  - %s: not found in Sonarr\n", label)
		case !found.Monitored:
			_, _ = fmt.Fprintf(w, "  - %s (id %d): not monitored\n", found.Title, found.ID)
		default:
			_, _ = fmt.Fprintf(w, "  - %s (id %d): ok\n", found.Title, found.ID)
		}
	}
	if unknown > 0 {
		return fmt.Errorf("%d configured series not found in Sonarr", unknown)
	}
	return nil
}
