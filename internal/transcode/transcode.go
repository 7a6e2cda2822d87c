// Package transcode normalizes downloaded media to the library container and codecs.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vmunix/ytarr/internal/config"
)

// Engine names.
const (
	EngineFFmpeg = "ffmpeg"
	EngineDrapto = "drapto"
	EngineNone   = "none"
)

// ErrInvalidInput indicates a missing input file or output directory.
var ErrInvalidInput = errors.New("invalid transcode input")

// FormatSpec is the target container and codecs.
type FormatSpec struct {
	Container  string // file extension without dot
	VideoCodec string // ffmpeg encoder name or "copy"
	AudioCodec string
}

// Transcoder converts a media file into outDir and returns the output path.
//
//go:generate mockgen -destination=mocks/transcode_mock.go -package=mocks . Transcoder
type Transcoder interface {
	Convert(ctx context.Context, input, outDir string, spec FormatSpec) (string, error)
}

// SpecFromConfig extracts the target format from the transcode config.
func SpecFromConfig(cfg config.TranscodeConfig) FormatSpec {
	return FormatSpec{Container: cfg.Container, VideoCodec: cfg.VideoCodec, AudioCodec: cfg.AudioCodec}
}

// New returns the Transcoder for the configured engine.
func New(cfg config.TranscodeConfig, log *slog.Logger) (Transcoder, error) {
	switch cfg.Engine {
	case EngineFFmpeg, "":
		return NewFFmpeg(cfg.Binary, log), nil
	case EngineDrapto:
		return NewDrapto(log), nil
	case EngineNone:
		return Passthrough{}, nil
	default:
		return nil, fmt.Errorf("unknown transcode engine %q", cfg.Engine)
	}
}

func checkInput(input, outDir string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%w: input path required", ErrInvalidInput)
	}
	if strings.TrimSpace(outDir) == "" {
		return fmt.Errorf("%w: output directory required", ErrInvalidInput)
	}
	return nil
}

// outputPath names the converted file so it never collides with the input.
func outputPath(input, outDir, container string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outDir), stem+".converted."+container)
}

// Passthrough keeps the downloaded file as is.
type Passthrough struct{}

// Convert returns input unchanged.
func (Passthrough) Convert(_ context.Context, input, outDir string, _ FormatSpec) (string, error) {
	if err := checkInput(input, outDir); err != nil {
		return "", err
	}
	return input, nil
}
