package core

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures surfaced across the system boundary.
type ErrorKind string

const (
	// KindConfiguration means required provider credentials are absent. No call is attempted.
	KindConfiguration ErrorKind = "configuration_error"
	// KindUpstreamRequest covers network failures and non-success responses from an external service.
	KindUpstreamRequest ErrorKind = "upstream_request_failed"
	// KindMalformedUpstream means the upstream answered but an expected field was absent.
	KindMalformedUpstream ErrorKind = "malformed_upstream_response"
	// KindInvalidInput rejects a request before any outbound call.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindInvalidState rejects an operation not allowed in the current lifecycle state.
	KindInvalidState ErrorKind = "invalid_state"
)

// Error is the typed error used by every parlance component.
type Error struct {
	Kind    ErrorKind
	Op      string // operation, e.g. "realtime.provision"
	Message string
	// Status is the upstream HTTP status when known.
	Status int
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError constructs an Error of the given kind.
func NewError(kind ErrorKind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// ConfigurationError reports missing provider configuration.
func ConfigurationError(op, message string) *Error {
	return NewError(KindConfiguration, op, message, nil)
}

// InvalidInputError reports a rejected request.
func InvalidInputError(op, message string) *Error {
	return NewError(KindInvalidInput, op, message, nil)
}

// InvalidStateError reports an operation issued in the wrong lifecycle state.
func InvalidStateError(op, message string) *Error {
	return NewError(KindInvalidState, op, message, nil)
}

// UpstreamError reports a failed outbound call.
func UpstreamError(op string, status int, err error) *Error {
	e := NewError(KindUpstreamRequest, op, "upstream request failed", err)
	e.Status = status
	return e
}

// MalformedUpstreamError reports an upstream response missing an expected field.
func MalformedUpstreamError(op, message string) *Error {
	return NewError(KindMalformedUpstream, op, message, nil)
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
