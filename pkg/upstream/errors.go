package upstream

import (
	"fmt"
	"time"
)

// ConnectionError represents a failure to reach the upstream server
// (connection refused, DNS failure, reset mid-transfer).
type ConnectionError struct {
	// URL is the upstream endpoint that could not be reached.
	URL string

	// Cause is the underlying transport error.
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("upstream %s unreachable: %v", e.URL, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents a request that exceeded the configured timeout.
type TimeoutError struct {
	// URL is the upstream endpoint.
	URL string

	// Timeout is the configured timeout duration.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream %s request timeout after %s", e.URL, e.Timeout)
}

// StatusError represents a non-2xx response from the upstream.
type StatusError struct {
	// URL is the upstream endpoint.
	URL string

	// StatusCode is the HTTP status the upstream returned.
	StatusCode int

	// Body is the upstream error body, truncated for logging.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}
