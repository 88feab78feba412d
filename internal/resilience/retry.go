// Package resilience provides bounded retry for transient failures.
// Retry belongs here, at the orchestration layer, rather than inside
// the transport client, so page sequencing and transport behavior stay
// independently testable.
package resilience

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry behavior.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first
	// try. A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// Delay is the pause between attempts. Default: 500ms.
	Delay time.Duration

	// ShouldRetry optionally overrides the default transient check.
	// If nil, IsTransient is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with the upcoming
	// attempt number and the error that triggered it.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns the retry settings used for page fetches.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Delay:       500 * time.Millisecond,
	}
}

// retryable is implemented by errors that are safe to retry.
type retryable interface {
	Retryable() bool
}

// IsTransient reports whether err is safe to retry: either it declares
// itself retryable or it is a network-level timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// DoVal executes fn with bounded retry, preserving the value from the
// successful call. Non-transient errors and context cancellation stop
// retries immediately; the last error is returned unmodified once
// attempts are exhausted.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 500 * time.Millisecond
	}
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt >= cfg.MaxAttempts-1 {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(component, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("component", component),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
