package anbima

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrUnimplemented is returned by operations the ANBIMA API declares but
	// this client does not support. No request is made.
	ErrUnimplemented = errors.New("anbima: operation not implemented")

	// ErrRetryBudgetExceeded matches any *RetryBudgetError via errors.Is.
	ErrRetryBudgetExceeded = errors.New("anbima: retry budget exceeded")
)

// RequestError represents a non-2xx, non-429 response from a resource endpoint.
type RequestError struct {
	StatusCode int
	Body       string
	URL        string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("anbima request failed: %d - %s at %s", e.StatusCode, e.Body, e.URL)
}

// AuthError represents a failed client-credentials handshake. It is never retried.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	msg := fmt.Sprintf("anbima auth error (%d): %s", e.StatusCode, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(" - %v", e.Err)
	}
	return msg
}

// Unwrap implements errors.Unwrap.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when the API answers with 429 Too Many Requests.
type RateLimitError struct {
	URL  string
	Body string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("anbima rate limit exceeded at %s", e.URL)
}

// TransientError wraps a network-level failure (connection reset, timeout)
// that is worth retrying.
type TransientError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("anbima transient error on %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// RetryBudgetError is returned once a logical operation has spent its whole
// retry budget. It wraps the last error seen, so errors.As still finds the
// underlying *RateLimitError or *TransientError.
type RetryBudgetError struct {
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// Error implements the error interface.
func (e *RetryBudgetError) Error() string {
	return fmt.Sprintf("anbima: gave up after %d attempts in %s: %v", e.Attempts, e.Elapsed.Round(time.Millisecond), e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *RetryBudgetError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRetryBudgetExceeded.
func (e *RetryBudgetError) Is(target error) bool {
	return target == ErrRetryBudgetExceeded
}

// IsRetryable reports whether err is a rate-limit or transient failure.
// It is the default predicate used by RetryPolicy.
func IsRetryable(err error) bool {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var te *TransientError
	return errors.As(err, &te)
}

// mapResourceError converts an unsuccessful resource response into a typed error.
func mapResourceError(resp *Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{URL: resp.URL, Body: string(resp.Body)}
	}
	return &RequestError{
		StatusCode: resp.StatusCode,
		Body:       string(resp.Body),
		URL:        resp.URL,
	}
}

// mapAuthError converts an unsuccessful authentication response into a typed error.
func mapAuthError(resp *Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{URL: resp.URL, Body: string(resp.Body)}
	}
	return &AuthError{
		StatusCode: resp.StatusCode,
		Message:    "authentication failed",
		Err:        &RequestError{StatusCode: resp.StatusCode, Body: string(resp.Body), URL: resp.URL},
	}
}
