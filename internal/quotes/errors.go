package quotes

import (
	"errors"
	"fmt"
)

// Kind discriminates gateway failures for status mapping and metrics.
type Kind string

const (
	KindUnauthorized        Kind = "unauthorized"
	KindRateLimited         Kind = "rate_limited"
	KindInvalidRequest      Kind = "invalid_request"
	KindNoData              Kind = "no_data"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindQuotaExceeded       Kind = "quota_exceeded"
	KindUpstreamCallFailed  Kind = "upstream_call_failed"
	KindEmptyUpstreamResult Kind = "empty_upstream_result"
)

// Error is the gateway's request-level error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf extracts the Kind from err, or "" when err is not a gateway error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Common error constructors
func NewUnauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NewRateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

func NewInvalidRequest(message string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: message}
}

func NewNoData(message string) *Error {
	return &Error{Kind: KindNoData, Message: message}
}

func NewUpstreamUnavailable(message string) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: message}
}

func NewQuotaExceeded(message string) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: message}
}

func NewUpstreamCallFailed(message string, cause error) *Error {
	return &Error{Kind: KindUpstreamCallFailed, Message: message, Cause: cause}
}

func NewEmptyUpstreamResult(message string) *Error {
	return &Error{Kind: KindEmptyUpstreamResult, Message: message}
}
