package client

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig configures retries of failed requests.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// Retryable decides whether an error triggers another attempt.
	// Defaults to transport errors and 5xx/429 answers.
	Retryable func(error) bool
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Retryable:     retryable,
	}
}

// NoRetry performs every request exactly once.
func NoRetry() *RetryConfig {
	return &RetryConfig{MaxAttempts: 1, Retryable: retryable}
}

// do runs fn until it succeeds, returns a non-retryable error, or the attempts
// are exhausted.
func (rc *RetryConfig) do(ctx context.Context, fn func() error) error {
	attempts := max(rc.MaxAttempts, 1)
	shouldRetry := rc.Retryable
	if shouldRetry == nil {
		shouldRetry = retryable
	}

	var lastErr error
	delay := rc.InitialDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		default:
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr) || attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * rc.BackoffFactor)
			if rc.MaxDelay > 0 {
				delay = min(delay, rc.MaxDelay)
			}
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled during backoff: %w", ctx.Err())
		}
	}
	return lastErr
}
