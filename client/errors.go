package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidResponse is returned when a response body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrServiceUnavailable is returned while the circuit breaker is open.
	ErrServiceUnavailable = errors.New("inference service unavailable")
)

// APIError is a non-2xx answer of the inference service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Temporary reports whether the failure is worth retrying.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// newAPIError builds an APIError from a status code and the decoded error body.
// The body's detail field is used when it is a string.
func newAPIError(status int, body map[string]any) *APIError {
	if detail, ok := body["detail"].(string); ok && detail != "" {
		return &APIError{StatusCode: status, Message: detail}
	}
	return &APIError{StatusCode: status, Message: fmt.Sprintf("HTTP error! status: %d", status)}
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// retryable reports whether err may succeed on another attempt. Client-side
// errors never do.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return !errors.Is(err, ErrInvalidRequest) && !errors.Is(err, ErrServiceUnavailable) &&
		!errors.Is(err, ErrInvalidResponse)
}
