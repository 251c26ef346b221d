package pdp

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when the resolved configuration fails validation.
	ErrInvalidConfig = errors.New("invalid pdp configuration")

	// ErrMalformedEndpoint is returned when no URL can be built from the
	// schema/hostname combination. It is never retried.
	ErrMalformedEndpoint = errors.New("malformed pdp endpoint")

	// ErrMalformedResponse is returned when the PDP body is not valid JSON,
	// or not an object where a map was requested.
	ErrMalformedResponse = errors.New("malformed pdp response")

	// ErrRetryExhausted matches every *RetryExhaustedError.
	ErrRetryExhausted = errors.New("pdp retries exhausted")
)

// TransportError is a single failed attempt: the request never produced a
// complete HTTP response (refused, reset, timed out, DNS failure, ...).
type TransportError struct {
	Attempt int
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pdp attempt %d failed: %v", e.Attempt, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RetryExhaustedError wraps the error of the final attempt once every
// attempt allowed by the retry policy has failed.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("pdp request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
