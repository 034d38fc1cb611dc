package tutordb

import (
	"errors"
	"fmt"
)

// ErrorCode classifies engine errors into the kinds a caller can react to.
type ErrorCode uint

const (
	ErrSyntax ErrorCode = iota
	ErrUnsupported
	ErrUnknownEntity
	ErrConstraint
	ErrReferentialAction
)

func (c ErrorCode) String() string {
	switch c {
	case ErrSyntax:
		return "SYNTAX"
	case ErrUnsupported:
		return "UNSUPPORTED"
	case ErrUnknownEntity:
		return "UNKNOWN_ENTITY"
	case ErrConstraint:
		return "CONSTRAINT"
	case ErrReferentialAction:
		return "REFERENTIAL_ACTION"
	}
	return "ERROR"
}

// Error is a structured engine error carrying a code, a human-readable
// message, and an optional wrapped underlying error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error. Two *Error values match when
// their codes are equal.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Errorf creates a new *Error with the given code and a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCodeOf returns the code carried by err, or ErrSyntax for a plain error.
func ErrorCodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return ErrSyntax, false
}

// IsErrorCode reports whether err carries the given error code.
func IsErrorCode(err error, code ErrorCode) bool {
	c, ok := ErrorCodeOf(err)
	return ok && c == code
}
