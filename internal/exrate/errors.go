package exrate

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of error that occurred during a run
type ErrorKind string

const (
	// KindConnectivity indicates a network failure, a timeout or a non-2xx HTTP status
	KindConnectivity ErrorKind = "connectivity"
	// KindDataFormat indicates the body could not be decoded as tabular data
	KindDataFormat ErrorKind = "data_format"
	// KindSchema indicates the expected columns could not be located or inferred
	KindSchema ErrorKind = "schema"
	// KindNoData indicates a well-formed but empty result
	KindNoData ErrorKind = "no_data"
	// KindValidation indicates contradictory or missing user filters
	KindValidation ErrorKind = "validation"
)

// Error is the structured error returned by every stage of a run
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewConnectivityError creates a connectivity error carrying the transport cause
func NewConnectivityError(cause error) *Error {
	return &Error{
		Kind:    KindConnectivity,
		Message: "request to rate source failed",
		Cause:   cause,
	}
}

// NewDataFormatError creates a data format error
func NewDataFormatError(message string, cause error) *Error {
	return &Error{
		Kind:    KindDataFormat,
		Message: message,
		Cause:   cause,
	}
}

// NewSchemaError creates a schema error
func NewSchemaError(message string) *Error {
	return &Error{
		Kind:    KindSchema,
		Message: message,
	}
}

// NewNoDataError creates a no-data error
func NewNoDataError(message string) *Error {
	return &Error{
		Kind:    KindNoData,
		Message: message,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
	}
}

// ClassifyHTTPError turns a non-2xx status code into a connectivity error
func ClassifyHTTPError(statusCode int) *Error {
	var msg string
	switch {
	case statusCode == 429:
		msg = "rate limit exceeded"
	case statusCode >= 500:
		msg = "server returned an error"
	case statusCode >= 400:
		msg = fmt.Sprintf("client error: HTTP %d", statusCode)
	default:
		msg = fmt.Sprintf("unexpected status code: %d", statusCode)
	}
	return &Error{
		Kind:       KindConnectivity,
		StatusCode: statusCode,
		Message:    msg,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
