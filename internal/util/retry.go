// ABOUTME: Retry utilities for provider API calls with exponential backoff and jitter
// ABOUTME: Do retries a context-aware operation until success, a permanent error, or exhaustion
package util

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// maxBackoff caps a single wait between attempts
const maxBackoff = 30 * time.Second

// CalculateBackoff returns exponential backoff with jitter
// Base delay is doubled each attempt, with random jitter up to 25%
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}
	if backoff < 4 {
		return backoff
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}

// Policy describes how an operation is retried
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// Timeout bounds each attempt; zero leaves attempts bounded only by the parent context
	Timeout time.Duration
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
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

// Do runs op up to MaxRetries+1 times, backing off between attempts
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := Sleep(ctx, CalculateBackoff(p.BaseDelay, attempt)); err != nil {
				return zero, fmt.Errorf("retry aborted after %d attempts: %w", attempt, errors.Join(err, lastErr))
			}
		}

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		v, err := op(attemptCtx)
		cancel()

		if err == nil {
			return v, nil
		}
		if IsPermanent(err) {
			return zero, err
		}
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxRetries+1, lastErr)
}
