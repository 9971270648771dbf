// Package errors provides the coded error type used across magsearch.
// Codes give log lines and HTTP responses a stable identifier while the
// wrapped cause keeps the full chain available to errors.Is/As.
package errors

import "fmt"

// Error codes.
const (
	CodeConfigInvalid = "ERR_CONFIG_INVALID"
	CodeIngestParse   = "ERR_INGEST_PARSE"
	CodeIngestLocked  = "ERR_INGEST_LOCKED"
	CodeStore         = "ERR_STORE"
	CodeQuery         = "ERR_QUERY"
)

// Error is the structured error type for magsearch.
type Error struct {
	// Code is the stable error code (e.g. ERR_INGEST_PARSE).
	Code string

	// Message is the human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is against sentinel values.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new Error with the given code and message.
func New(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Newf creates a new Error with a formatted message.
func Newf(code string, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Wrap creates an Error from an existing error, reusing its message.
// Returns nil if err is nil.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: err.Error(), Cause: err}
}

// GetCode extracts the code from an Error, or "" for other error types.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
