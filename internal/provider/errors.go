package provider

import (
	"errors"
	"fmt"
)

// UpstreamError means the provider answered but rejected the call.
// It preserves the provider's status code and detail message verbatim
// so they can be surfaced to the caller unchanged.
type UpstreamError struct {
	Status int
	Code   string
	Detail string
}

func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("provider returned %d (%s): %s", e.Status, e.Code, e.Detail)
	}
	return fmt.Sprintf("provider returned %d (%s)", e.Status, e.Code)
}

// UnreachableError means the provider could not be reached at all:
// a timeout, a refused connection, or an open circuit breaker.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("provider unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// IsUnreachable reports whether err is a transport-level provider failure.
func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}

// IsUpstreamError reports whether err is a provider-side rejection.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
