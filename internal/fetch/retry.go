package fetch

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryPolicy controls how transient fetch failures are retried.
// Delays double each attempt starting at BaseDelay, capped at MaxDelay.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps any single wait.
	MaxDelay time.Duration

	// Jitter multiplies each wait by a uniform factor in [0.5, 1.5) so that
	// sessions retrying against the same origin spread out.
	Jitter bool
}

// DefaultRetryPolicy returns 3 attempts with exponential backoff from 1s,
// capped at 30s, with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
		Jitter:      true,
	}
}

// NoRetry performs a single attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// Delay returns the wait before retry number attempt (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.delay(attempt, rand.Float64)
}

func (p RetryPolicy) delay(attempt int, random func() float64) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		d = time.Duration(float64(d) * (0.5 + random()))
	}
	return d
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// sleeper waits between attempts; tests replace it to avoid real delays.
type sleeper interface {
	sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do calls fn until it succeeds, returns a Permanent error, the context is
// done, or the policy runs out of attempts. onRetry, if non-nil, is called
// before each retry with the attempt that just failed.
// It returns the number of attempts made and the last error.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error, onRetry func(attempt int, err error)) (int, error) {
	return p.do(ctx, fn, onRetry, timerSleeper{})
}

func (p RetryPolicy) do(ctx context.Context, fn func(attempt int) error, onRetry func(attempt int, err error), s sleeper) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	attempts := 0
	for attempt := range maxAttempts {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return attempts, lastErr
			}
			return attempts, err
		}

		attempts++
		lastErr = fn(attempt)
		if lastErr == nil {
			return attempts, nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return attempts, perm.err
		}

		if attempt == maxAttempts-1 {
			break
		}
		if onRetry != nil {
			onRetry(attempt, lastErr)
		}
		if err := s.sleep(ctx, p.Delay(attempt)); err != nil {
			return attempts, lastErr
		}
	}

	return attempts, lastErr
}
