// Package utils provides small shared helpers.
package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryWithResult executes fn with exponential backoff. A non-nil retryable
// classifier limits which errors are retried; errors it rejects are returned
// immediately.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error), retryable func(error) bool) (T, error) {
	var zero T
	var lastErr error
	delay := cfg.InitialDelay

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return zero, err
		}

		select {
		case <-ctx.Done():
			// Keep the last attempt's error as the cause so callers can
			// still classify what went wrong before the cancellation.
			return zero, fmt.Errorf("%w (%w)", lastErr, ctx.Err())
		default:
		}

		if attempt < attempts-1 {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * cfg.BackoffFactor)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return zero, lastErr
}
