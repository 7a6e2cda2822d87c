package transcode

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// FFmpeg remuxes or re-encodes with the ffmpeg CLI.
type FFmpeg struct {
	binary string
	log    *slog.Logger
}

// NewFFmpeg returns an FFmpeg transcoder. An empty binary means "ffmpeg" on $PATH.
func NewFFmpeg(binary string, log *slog.Logger) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary, log: log.With("component", "ffmpeg")}
}

func (f *FFmpeg) args(input, output string, spec FormatSpec) []string {
	vcodec := spec.VideoCodec
	if vcodec == "" {
		vcodec = "copy"
	}
	acodec := spec.AudioCodec
	if acodec == "" {
		acodec = "copy"
	}
	scodec := "copy"
	if spec.Container == "mp4" || spec.Container == "m4v" {
		scodec = "mov_text"
	}
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-i", input,
		"-map", "0",
		"-c:v", vcodec,
		"-c:a", acodec,
		"-c:s", scodec,
		"-y", output,
	}
}

// Convert runs ffmpeg. A failed run leaves no output file behind.
func (f *FFmpeg) Convert(ctx context.Context, input, outDir string, spec FormatSpec) (string, error) {
	if err := checkInput(input, outDir); err != nil {
		return "", err
	}
	start := time.Now()
	output := outputPath(input, outDir, spec.Container)

	var stderr bytes.Buffer
	cmd := commandContext(ctx, f.binary, f.args(input, output, spec)...) //nolint:gosec
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(output)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("ffmpeg: %w", ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("ffmpeg: %s", msg)
	}

	if _, err := os.Stat(output); err != nil {
		return "", fmt.Errorf("ffmpeg produced no output: %w", err)
	}

	f.log.Debug("converted", "input", input, "output", output, "duration_ms", time.Since(start).Milliseconds())
	return output, nil
}
