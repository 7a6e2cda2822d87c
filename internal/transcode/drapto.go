package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	draptolib "github.com/five82/drapto"
)

// Drapto encodes to AV1/Opus in MKV with the drapto library. Codec fields of
// the FormatSpec are ignored; drapto picks its own settings per resolution.
type Drapto struct {
	log *slog.Logger
}

// NewDrapto returns a Drapto transcoder.
func NewDrapto(log *slog.Logger) *Drapto {
	return &Drapto{log: log.With("component", "drapto")}
}

// Convert encodes input into outDir/<stem>.mkv.
func (d *Drapto) Convert(ctx context.Context, input, outDir string, _ FormatSpec) (string, error) {
	if err := checkInput(input, outDir); err != nil {
		return "", err
	}
	if _, err := os.Stat(input); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	start := time.Now()
	encodeDir, output := draptoOutput(input, outDir)

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", fmt.Errorf("drapto: %w", err)
	}
	if _, err := encoder.EncodeWithReporter(ctx, input, encodeDir, nil); err != nil {
		return "", fmt.Errorf("drapto: %w", err)
	}

	d.log.Debug("encoded", "input", input, "output", output, "duration_ms", time.Since(start).Milliseconds())
	return output, nil
}

// draptoOutput returns the directory drapto encodes into and the file it
// writes there. drapto names its output after the input stem, which would be
// the input itself for an mkv download, so it gets a subdirectory.
func draptoOutput(input, outDir string) (encodeDir, output string) {
	encodeDir = filepath.Join(strings.TrimSpace(outDir), "encoded")
	base := filepath.Base(input)
	return encodeDir, filepath.Join(encodeDir, strings.TrimSuffix(base, filepath.Ext(base))+".mkv")
}
