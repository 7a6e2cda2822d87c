package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/ytarr/internal/config"
)

var errTransient = errors.New("transient")

func fakeSleep(slept *[]time.Duration) Sleeper {
	return func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
}

func TestBackoffs(t *testing.T) {
	tests := []struct {
		name    string
		backoff func(int) time.Duration
		want    []time.Duration
	}{
		{"constant", Constant(time.Second), []time.Duration{time.Second, time.Second, time.Second}},
		{"linear", Linear(time.Second, 0), []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}},
		{"exponential", Exponential(time.Second, 0), []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}},
		{"exponential capped", Exponential(time.Second, 3*time.Second), []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.want {
				assert.Equal(t, want, tt.backoff(i+1), "attempt %d", i+1)
			}
		})
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	var slept []time.Duration
	p := Policy{MaxAttempts: 3, Backoff: Constant(time.Minute), Sleep: fakeSleep(&slept)}

	calls := 0
	err := p.Do(context.Background(), func(error) bool { return true }, func(attempt int) error {
		calls++
		if attempt < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Minute, time.Minute}, slept)
}

func TestDo_Exhausted(t *testing.T) {
	var slept []time.Duration
	p := Policy{MaxAttempts: 4, Backoff: Exponential(time.Second, 0), Sleep: fakeSleep(&slept)}

	calls := 0
	err := p.Do(context.Background(), func(error) bool { return true }, func(int) error {
		calls++
		return errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 4, calls)
	assert.Len(t, slept, 3, "no sleep after the final attempt")
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	var slept []time.Duration
	p := Policy{MaxAttempts: 5, Sleep: fakeSleep(&slept)}
	permanent := errors.New("video unavailable")

	calls := 0
	err := p.Do(context.Background(), func(err error) bool { return errors.Is(err, errTransient) }, func(int) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.Empty(t, slept)
}

func TestDo_CancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, Sleep: func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}}

	err := p.Do(ctx, func(error) bool { return true }, func(int) error { return errTransient })
	assert.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "retry interrupted")
}

func TestDo_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Once().Do(ctx, func(error) bool { return true }, func(int) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{MaxAttempts: 2, Backoff: "linear", InitialDelay: time.Second, MaxDelay: time.Minute})
	assert.Equal(t, 2, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.Backoff(2))
	assert.NotNil(t, p.Sleep)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))
}
