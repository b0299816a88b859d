package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNetwork is returned when the backend could not be reached at
	// all (DNS, connection refused, connectivity change). Distinct from
	// an HTTP error so callers can show "check your connection".
	ErrNetwork = errors.New("network error")

	// ErrVerificationRequired is returned when login needs a secondary
	// verification step. It is a flow signal, not a failure.
	ErrVerificationRequired = errors.New("phone verification required")
)

// NetworkError is a transport-level failure with no HTTP response.
// Status is always 0, mirroring the zero-status rejection the console
// uses to distinguish connectivity loss from a real HTTP error.
type NetworkError struct {
	// Status is always 0 for network-level failures.
	Status int
	// Cause is the underlying transport error.
	Cause error
}

// Error returns a human-readable description of the failure.
func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("network error: %v", e.Cause)
	}
	return "network error"
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrNetwork).
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// APIError is a non-2xx HTTP response from the backend.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Body is the raw response body, for diagnostics.
	Body string
	// RequestID is the X-Request-ID the request carried.
	RequestID string
}

// Error returns a human-readable description of the response.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d (request %s)", e.Status, e.RequestID)
}

// VerificationRequiredError signals that login must continue through the
// secondary (phone/SMS) verification flow. No token was issued.
type VerificationRequiredError struct {
	// VerificationID identifies the pending verification on the backend.
	VerificationID string
}

// Error returns a human-readable description of the signal.
func (e *VerificationRequiredError) Error() string {
	return fmt.Sprintf("phone verification required (verification %s)", e.VerificationID)
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrVerificationRequired).
func (e *VerificationRequiredError) Is(target error) bool {
	return target == ErrVerificationRequired
}
