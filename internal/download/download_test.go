package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/ytarr/internal/config"
	"github.com/vmunix/ytarr/internal/download/mocks"
	"github.com/vmunix/ytarr/internal/library"
	"github.com/vmunix/ytarr/internal/matcher"
	"github.com/vmunix/ytarr/internal/retry"
	"github.com/vmunix/ytarr/internal/youtube"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const videoURL = "https://www.youtube.com/watch?v=abc123"

func accepted() matcher.Result {
	return matcher.Result{
		Episode:   library.Episode{SeriesID: 1, Season: 1, Episode: 5, Title: "The Heist"},
		Candidate: &matcher.Candidate{ID: "abc123", Title: "The Heist", URL: videoURL},
		Outcome:   matcher.Accepted,
	}
}

// fakeSleep records delays instead of waiting.
type fakeSleep struct{ delays []time.Duration }

func (f *fakeSleep) sleep(_ context.Context, d time.Duration) error {
	f.delays = append(f.delays, d)
	return nil
}

func newTestExecutor(t *testing.T, f Fetcher, limits Limits, attempts int) (*Executor, *fakeSleep, string) {
	t.Helper()
	staging := filepath.Join(t.TempDir(), "staging")
	sleeper := &fakeSleep{}
	policy := retry.Policy{MaxAttempts: attempts, Backoff: retry.Constant(time.Second), Sleep: sleeper.sleep}
	e := NewExecutor(f, staging, limits, policy, testLogger())
	e.freeSpace = func(string) (uint64, error) { return 1 << 40, nil }
	return e, sleeper, staging
}

// writeVideo simulates yt-dlp writing a file into the attempt dir.
func writeVideo(dir string) (string, *youtube.Metadata, error) {
	path := filepath.Join(dir, "abc123.mkv")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		return "", nil, err
	}
	return path, &youtube.Metadata{ID: "abc123", Height: 1080, Filesize: 5, Ext: "mkv"}, nil
}

func stagingEntries(t *testing.T, staging string) []string {
	t.Helper()
	entries, err := os.ReadDir(staging)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDownload_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	opts := youtube.FetchOptions{Format: "best"}

	f.EXPECT().Inspect(gomock.Any(), videoURL, opts).Return(&youtube.Metadata{ID: "abc123", Duration: 20 * time.Minute}, nil)
	f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), opts).
		DoAndReturn(func(_ context.Context, _, dir string, _ youtube.FetchOptions) (string, *youtube.Metadata, error) {
			return writeVideo(dir)
		})

	e, _, staging := newTestExecutor(t, f, Limits{MaxDuration: time.Hour}, 3)
	art, err := e.Download(context.Background(), accepted(), opts)
	require.NoError(t, err)

	assert.Equal(t, staging, filepath.Dir(art.Dir))
	assert.Equal(t, filepath.Join(art.Dir, "abc123.mkv"), art.Path)
	assert.Equal(t, 1080, art.Metadata.Height)
	assert.FileExists(t, art.Path)

	require.NoError(t, art.Cleanup())
	assert.Empty(t, stagingEntries(t, staging))
}

func TestDownload_NotAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)

	e, _, _ := newTestExecutor(t, f, Limits{}, 1)
	m := accepted()
	m.Outcome = matcher.Ambiguous
	_, err := e.Download(context.Background(), m, youtube.FetchOptions{})
	require.Error(t, err)
}

func TestDownload_Limits(t *testing.T) {
	tests := []struct {
		name    string
		meta    youtube.Metadata
		limits  Limits
		wantErr error
	}{
		{
			name:    "too long",
			meta:    youtube.Metadata{Duration: 5 * time.Hour},
			limits:  Limits{MaxDuration: 4 * time.Hour},
			wantErr: ErrTooLong,
		},
		{
			name:    "too large",
			meta:    youtube.Metadata{Filesize: 20 << 30},
			limits:  Limits{MaxFilesize: 10 << 30},
			wantErr: ErrTooLarge,
		},
		{
			name:    "not enough free space",
			meta:    youtube.Metadata{Filesize: 600 << 30},
			limits:  Limits{MinFreeSpace: 1 << 30},
			wantErr: ErrStorage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			f := mocks.NewMockFetcher(ctrl)
			meta := tt.meta
			f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).Return(&meta, nil)
			// No Fetch expected: rejection happens before any transfer.

			e, sleeper, staging := newTestExecutor(t, f, tt.limits, 3)
			e.freeSpace = func(string) (uint64, error) { return 512 << 30, nil }

			_, err := e.Download(context.Background(), accepted(), youtube.FetchOptions{})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, sleeper.delays)
			assert.Empty(t, stagingEntries(t, staging))

			if tt.wantErr != ErrStorage {
				var xerr *ExtractionError
				require.ErrorAs(t, err, &xerr)
				assert.False(t, xerr.Transient)
				assert.ErrorIs(t, err, ErrExtraction)
			}
		})
	}
}

func TestDownload_FreeSpaceUnsupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).Return(&youtube.Metadata{}, nil)
	f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, dir string, _ youtube.FetchOptions) (string, *youtube.Metadata, error) {
			return writeVideo(dir)
		})

	e, _, _ := newTestExecutor(t, f, Limits{MinFreeSpace: 1 << 30}, 1)
	e.freeSpace = func(string) (uint64, error) { return 0, errors.ErrUnsupported }

	_, err := e.Download(context.Background(), accepted(), youtube.FetchOptions{})
	require.NoError(t, err)
}

func TestDownload_TransientThenSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).Return(&youtube.Metadata{}, nil)

	var dirs []string
	gomock.InOrder(
		f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, dir string, _ youtube.FetchOptions) (string, *youtube.Metadata, error) {
				dirs = append(dirs, dir)
				_ = os.WriteFile(filepath.Join(dir, "abc123.mkv.part"), []byte("par"), 0o644)
				return "", nil, fmt.Errorf("%w: fetch: HTTP Error 429", youtube.ErrTransient)
			}),
		f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, dir string, _ youtube.FetchOptions) (string, *youtube.Metadata, error) {
				dirs = append(dirs, dir)
				return writeVideo(dir)
			}),
	)

	e, sleeper, staging := newTestExecutor(t, f, Limits{}, 3)
	art, err := e.Download(context.Background(), accepted(), youtube.FetchOptions{})
	require.NoError(t, err)

	require.Len(t, dirs, 2)
	assert.NotEqual(t, dirs[0], dirs[1], "each attempt gets a fresh directory")
	assert.NoDirExists(t, dirs[0])
	assert.Equal(t, dirs[1], art.Dir)
	assert.Equal(t, []string{filepath.Base(art.Dir)}, stagingEntries(t, staging))
	assert.Equal(t, []time.Duration{time.Second}, sleeper.delays)
}

func TestDownload_RetryExhaustionLeavesStagingEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).Return(&youtube.Metadata{}, nil)
	f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, dir string, _ youtube.FetchOptions) (string, *youtube.Metadata, error) {
			_ = os.WriteFile(filepath.Join(dir, "abc123.f137.mp4"), []byte("partial"), 0o644)
			return "", nil, fmt.Errorf("%w: fetch: connection reset by peer", youtube.ErrTransient)
		}).
		Times(3)

	e, sleeper, staging := newTestExecutor(t, f, Limits{}, 3)
	_, err := e.Download(context.Background(), accepted(), youtube.FetchOptions{})

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.True(t, xerr.Transient)
	assert.Equal(t, "abc123", xerr.VideoID)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, youtube.ErrTransient)
	assert.Len(t, sleeper.delays, 2, "no sleep after the final attempt")
	assert.Empty(t, stagingEntries(t, staging))
}

func TestDownload_PermanentFailureNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).Return(&youtube.Metadata{}, nil)
	f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), gomock.Any()).
		Return("", nil, fmt.Errorf("%w: fetch: Private video", youtube.ErrPermanent))

	e, sleeper, staging := newTestExecutor(t, f, Limits{}, 3)
	_, err := e.Download(context.Background(), accepted(), youtube.FetchOptions{})

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.False(t, xerr.Transient)
	assert.Empty(t, sleeper.delays)
	assert.Empty(t, stagingEntries(t, staging))
}

func TestDownload_InspectRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	gomock.InOrder(
		f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).
			Return(nil, fmt.Errorf("%w: inspect: timed out", youtube.ErrTransient)),
		f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).
			Return(&youtube.Metadata{}, nil),
	)
	f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, dir string, _ youtube.FetchOptions) (string, *youtube.Metadata, error) {
			return writeVideo(dir)
		})

	e, sleeper, _ := newTestExecutor(t, f, Limits{}, 2)
	_, err := e.Download(context.Background(), accepted(), youtube.FetchOptions{})
	require.NoError(t, err)
	assert.Len(t, sleeper.delays, 1)
}

func TestDownload_AttemptTimeoutRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).Return(&youtube.Metadata{}, nil)

	var dirs []string
	gomock.InOrder(
		f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _, dir string, _ youtube.FetchOptions) (string, *youtube.Metadata, error) {
				dirs = append(dirs, dir)
				deadline, ok := ctx.Deadline()
				require.True(t, ok)
				assert.WithinDuration(t, time.Now().Add(30*time.Millisecond), deadline, time.Second)
				<-ctx.Done()
				// yt-dlp killed by the deadline reports only its exit status.
				return "", nil, fmt.Errorf("%w: fetch: exit code -1: signal: killed", youtube.ErrPermanent)
			}),
		f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _, dir string, _ youtube.FetchOptions) (string, *youtube.Metadata, error) {
				dirs = append(dirs, dir)
				return writeVideo(dir)
			}),
	)

	e, sleeper, _ := newTestExecutor(t, f, Limits{Timeout: 30 * time.Millisecond}, 2)
	art, err := e.Download(context.Background(), accepted(), youtube.FetchOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = art.Cleanup() })

	assert.Len(t, sleeper.delays, 1)
	require.Len(t, dirs, 2)
	assert.NoDirExists(t, dirs[0])
	assert.Equal(t, dirs[1], art.Dir)
}

func TestDownload_AttemptTimeoutExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).Return(&youtube.Metadata{}, nil)
	f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string, _ youtube.FetchOptions) (string, *youtube.Metadata, error) {
			<-ctx.Done()
			return "", nil, errors.New("exit code -1: signal: killed")
		}).
		Times(2)

	e, _, staging := newTestExecutor(t, f, Limits{Timeout: 10 * time.Millisecond}, 2)
	_, err := e.Download(context.Background(), accepted(), youtube.FetchOptions{})

	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.True(t, xerr.Transient)
	assert.Contains(t, err.Error(), "fetch exceeded 10ms")
	assert.Empty(t, stagingEntries(t, staging))
}

func TestDownload_MetadataTimeoutRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)
	gomock.InOrder(
		f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ string, _ youtube.FetchOptions) (*youtube.Metadata, error) {
				_, ok := ctx.Deadline()
				require.True(t, ok, "inspect runs under its own deadline")
				<-ctx.Done()
				return nil, errors.New("exit code -1: signal: killed")
			}),
		f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).Return(&youtube.Metadata{}, nil),
	)
	f.EXPECT().Fetch(gomock.Any(), videoURL, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, dir string, _ youtube.FetchOptions) (string, *youtube.Metadata, error) {
			return writeVideo(dir)
		})

	e, sleeper, _ := newTestExecutor(t, f, Limits{MetadataTimeout: 10 * time.Millisecond}, 2)
	art, err := e.Download(context.Background(), accepted(), youtube.FetchOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = art.Cleanup() })
	assert.Len(t, sleeper.delays, 1)
}

func TestDownload_CancelledStopsRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFetcher(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	f.EXPECT().Inspect(gomock.Any(), videoURL, gomock.Any()).
		DoAndReturn(func(context.Context, string, youtube.FetchOptions) (*youtube.Metadata, error) {
			cancel()
			return nil, context.Canceled
		})

	e, sleeper, _ := newTestExecutor(t, f, Limits{}, 3)
	_, err := e.Download(ctx, accepted(), youtube.FetchOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrExtraction)
	assert.Empty(t, sleeper.delays)
}

func TestCleanStaging(t *testing.T) {
	ctrl := gomock.NewController(t)
	e, _, staging := newTestExecutor(t, mocks.NewMockFetcher(ctrl), Limits{}, 1)

	stale := filepath.Join(staging, "0b7f3c5e-8f7a-4d59-9a0e-6f1d2b3c4d5e")
	keep := filepath.Join(staging, "keep-me")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.MkdirAll(keep, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "x.part"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "ytarr.lock"), nil, 0o644))

	require.NoError(t, e.CleanStaging())
	assert.NoDirExists(t, stale)
	assert.DirExists(t, keep)
	assert.FileExists(t, filepath.Join(staging, "ytarr.lock"))
}

func TestCleanStaging_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	e, _, _ := newTestExecutor(t, mocks.NewMockFetcher(ctrl), Limits{}, 1)
	assert.NoError(t, e.CleanStaging())
}

func TestLimitsFromConfig(t *testing.T) {
	limits, err := LimitsFromConfig(config.DownloadConfig{
		MaxDuration:     4 * time.Hour,
		MaxFilesize:     "10GB",
		MinFreeSpace:    "1 GiB",
		Timeout:         time.Hour,
		MetadataTimeout: 2 * time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, Limits{
		MaxDuration:     4 * time.Hour,
		MaxFilesize:     10_000_000_000,
		MinFreeSpace:    1 << 30,
		Timeout:         time.Hour,
		MetadataTimeout: 2 * time.Minute,
	}, limits)

	_, err = LimitsFromConfig(config.DownloadConfig{MaxFilesize: "lots"})
	require.Error(t, err)
}

func TestExtractionError(t *testing.T) {
	err := &ExtractionError{VideoID: "abc", Transient: true, Err: youtube.ErrTransient}
	assert.Contains(t, err.Error(), "transient")
	assert.ErrorIs(t, err, ErrExtraction)
	assert.ErrorIs(t, err, youtube.ErrTransient)
}
