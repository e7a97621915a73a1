// Package types provides shared type definitions used across AutoUSB packages.
// It holds the error taxonomy so the core packages and the CLI agree on failure kinds
// without importing each other.
package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the presentation layer can react to it.
type ErrorKind string

const (
	// KindInvalidInput is a user error: missing drive, empty script, missing source file.
	KindInvalidInput ErrorKind = "invalid_input"

	// KindNotFound means a volume or referenced file does not exist.
	KindNotFound ErrorKind = "not_found"

	// KindToolMissing means a required compiler or bundler is not installed.
	KindToolMissing ErrorKind = "tool_missing"

	// KindToolFailure means a toolchain ran but failed or produced no artifact.
	KindToolFailure ErrorKind = "tool_failure"

	// KindIOFailure is a copy or write error.
	KindIOFailure ErrorKind = "io_failure"

	// KindUnknown is reported for errors that carry no kind.
	KindUnknown ErrorKind = "unknown"
)

// Error is a classified, human-readable failure.
type Error struct {
	Kind    ErrorKind
	Op      string // operation that failed, e.g. "autorun.write"
	Message string // text suitable for direct display
	Err     error  // underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error.
func NewError(kind ErrorKind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// Errorf builds a classified error with a formatted message and no cause.
func Errorf(kind ErrorKind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
