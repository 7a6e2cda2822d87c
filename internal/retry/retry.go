// Package retry provides the backoff policy shared by the download and import stages.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/vmunix/ytarr/internal/config"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy decides how many times an operation runs and how long to wait between runs.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration // attempt is 1-based, the delay before attempt+1
	Sleep       Sleeper
}

// Constant waits d between every attempt.
func Constant(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// Linear waits initial*attempt, capped at maxDelay.
func Linear(initial, maxDelay time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return capDelay(initial*time.Duration(attempt), maxDelay)
	}
}

// Exponential doubles the delay after each attempt, capped at maxDelay.
func Exponential(initial, maxDelay time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt > 30 {
			return maxDelay
		}
		return capDelay(initial*time.Duration(1<<uint(attempt-1)), maxDelay)
	}
}

func capDelay(d, maxDelay time.Duration) time.Duration {
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}

// FromConfig builds a policy that sleeps on the wall clock.
func FromConfig(cfg config.RetryConfig) Policy {
	p := Policy{MaxAttempts: cfg.MaxAttempts, Sleep: SleepContext}
	switch cfg.Backoff {
	case "constant":
		p.Backoff = Constant(cfg.InitialDelay)
	case "linear":
		p.Backoff = Linear(cfg.InitialDelay, cfg.MaxDelay)
	default:
		p.Backoff = Exponential(cfg.InitialDelay, cfg.MaxDelay)
	}
	return p
}

// Once runs the operation a single time.
func Once() Policy {
	return Policy{MaxAttempts: 1}
}

// SleepContext sleeps for d unless ctx is cancelled first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs op until it succeeds, returns an error that retryable rejects, or
// the attempts run out. The last error is returned. op receives the 1-based
// attempt number.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, op func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}
		err = op(attempt)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == attempts {
			break
		}
		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return fmt.Errorf("%w (retry interrupted: %v)", err, sleepErr)
		}
	}
	return err
}
