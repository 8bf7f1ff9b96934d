package tablescrape

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	EINVALID           = "invalid"
	EINTERNAL          = "internal"
	ENOTFOUND          = "not_found"
	ETRANSPORT         = "transport"
	ETIMEOUT           = "timeout"
	EAUTOMATION        = "automation"
	ETABLENOTFOUND     = "table_not_found"
	ENOHEADERS         = "no_headers"
	ENOROWS            = "no_rows"
	EMALFORMED         = "malformed"
	EPAGINATIONSTALLED = "pagination_stalled"
	EIO                = "io"
	EEXHAUSTED         = "exhausted"
)

// Error represents an application-specific error. Code is one of the
// constants above, Message is human readable, and Err is the optional
// underlying cause.
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause so errors.Is and errors.As see through
// application errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrapf returns an Error with the given code that wraps err.
func Wrapf(err error, code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// Retryable reports whether a failed attempt may be repeated with fresh
// resources. Configuration faults and local write faults are never retried:
// repeating the acquisition cannot fix either.
func Retryable(err error) bool {
	switch ErrorCode(err) {
	case "", EINVALID, EIO:
		return false
	}
	return true
}
