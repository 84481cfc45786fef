// Package errors provides a coded error type shared by every layer
package errors

// Import as perr so it never shadows the stdlib errors package

import (
	stderrs "errors"
	"fmt"
	"maps"
	"net/http"
)

// ErrorCode is the machine facing classification of an error
// values are part of the wire format, append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for panics recovered by middleware
	ErrorCodePanic

	// ErrorCodeUnavailable is for a dependency that is down or disabled
	ErrorCodeUnavailable

	// ErrorCodeTooManyRequests is for rate limited callers
	ErrorCodeTooManyRequests

	// ErrorCodeConflict is for conflicts other than a unique violation
	ErrorCodeConflict

	// ErrorCodeUnauthorized is for callers whose identity cannot be resolved
	ErrorCodeUnauthorized

	// ErrorCodeForbidden is for requests refused by a guard (anti forgery etc)
	ErrorCodeForbidden

	// ErrorCodeInvalidArgument is for well formed input that references nothing usable
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for input the caller must correct
	ErrorCodeValidation

	// ErrorCodeJSON is for bodies that do not decode
	ErrorCodeJSON

	// ErrorCodeNotFound is for missing or inactive resources
	ErrorCodeNotFound

	// ErrorCodeDuplicateKey is for unique constraint violations
	ErrorCodeDuplicateKey

	// ErrorCodeDB is for unexpected persistence failures
	ErrorCodeDB

	// ErrorCodeConfiguration is for missing server side configuration
	ErrorCodeConfiguration
)

// String names the code for logs and metrics labels
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodePanic:
		return "panic"
	case ErrorCodeUnavailable:
		return "unavailable"
	case ErrorCodeTooManyRequests:
		return "too_many_requests"
	case ErrorCodeConflict:
		return "conflict"
	case ErrorCodeUnauthorized:
		return "unauthorized"
	case ErrorCodeForbidden:
		return "forbidden"
	case ErrorCodeInvalidArgument:
		return "invalid_argument"
	case ErrorCodeValidation:
		return "validation"
	case ErrorCodeJSON:
		return "json"
	case ErrorCodeNotFound:
		return "not_found"
	case ErrorCodeDuplicateKey:
		return "duplicate_key"
	case ErrorCodeDB:
		return "db"
	case ErrorCodeConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// HTTPStatusCode turns an ErrorCode into an http status code
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument, ErrorCodeValidation, ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeDuplicateKey, ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrNotFound is returned by store helpers when a single row lookup finds nothing
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a code, a caller facing message and optional metadata
// field names the offending input, details holds one message per field
type Error struct {
	orig    error
	msg     string
	code    ErrorCode
	field   string
	details map[string]string
}

// Wire is the JSON form of an Error
type Wire struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Message returns the caller facing message without the wrapped cause
func (e *Error) Message() string { return e.msg }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Details returns a copy of the per field messages
func (e *Error) Details() map[string]string { return maps.Clone(e.details) }

// ToWire converts an *Error to its wire payload
// the wrapped cause never leaves the process through this path
func (e *Error) ToWire() Wire {
	return Wire{Code: e.code, Message: e.msg, Field: e.field, Details: maps.Clone(e.details)}
}

// WireFrom converts any error into a Wire payload
// foreign errors become Unknown with their text
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// As returns the outermost *Error in the chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// WithField attaches a field to an *Error (copy on write)
// foreign errors are returned unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithDetails merges per field messages into an *Error (copy on write)
func WithDetails(err error, details map[string]string) error {
	if len(details) == 0 {
		return err
	}
	if e, ok := As(err); ok {
		c := *e
		c.details = maps.Clone(e.details)
		if c.details == nil {
			c.details = make(map[string]string, len(details))
		}
		maps.Copy(c.details, details)
		return &c
	}
	return err
}

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}
