package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryConfig_StopsOnNonRetryable(t *testing.T) {
	rc := fastRetry()
	calls := 0
	err := rc.do(context.Background(), func() error {
		calls++
		return &APIError{StatusCode: 400, Message: "bad"}
	})
	assert.EqualError(t, err, "bad")
	assert.Equal(t, 1, calls)
}

func TestRetryConfig_CustomPredicate(t *testing.T) {
	rc := fastRetry()
	rc.MaxAttempts = 5
	rc.Retryable = func(error) bool { return true }
	calls := 0
	err := rc.do(context.Background(), func() error {
		calls++
		return ErrInvalidResponse
	})
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, 5, calls)
}

func TestRetryConfig_CancelDuringBackoff(t *testing.T) {
	rc := DefaultRetryConfig()
	rc.InitialDelay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := rc.do(ctx, func() error {
		calls++
		cancel()
		return errors.New("connection refused")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(nil))
	assert.True(t, retryable(errors.New("dial tcp: connection refused")))
	assert.True(t, retryable(&APIError{StatusCode: 502}))
	assert.True(t, retryable(&APIError{StatusCode: 429}))
	assert.False(t, retryable(&APIError{StatusCode: 404}))
	assert.False(t, retryable(ErrServiceUnavailable))
	assert.True(t, IsNotFound(&APIError{StatusCode: 404}))
}
