package model

import (
	"errors"
	"fmt"
	"time"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Validation failures: bad or missing caller input. Surfaced verbatim
// with a 400, never retried.
var (
	ErrEmptyQuery       = errors.New("jobType is required")
	ErrEmptyLocation    = errors.New("location is required")
	ErrInvalidRecipient = errors.New("invalid recipient email address")
	ErrNoPostings       = errors.New("no postings to deliver")
)

// ErrTransportUnconfigured means no delivery transport is configured.
// Mapped to 503 at the API surface.
var ErrTransportUnconfigured = errors.New("email transport not configured")

// DeliveryError wraps a transport rejection so it can be told apart from
// validation failures and from pipeline failures.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
