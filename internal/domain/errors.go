package domain

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can react without parsing messages.
type Kind string

const (
	// KindValidation is a missing or malformed input, reported before any
	// filesystem access.
	KindValidation Kind = "validation"
	// KindNotFound means a source file or directory is absent.
	KindNotFound Kind = "not_found"
	// KindIO covers permission, cross-device, disk-full and similar failures.
	KindIO Kind = "io"
	// KindEmpty is an informational result: a scan found no videos.
	KindEmpty Kind = "empty"
	// KindConflict means the operation cannot run in the current state
	// (destination exists, another operation is in flight).
	KindConflict Kind = "conflict"
)

// Error is the error type returned by every I/O-touching operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a KindNotFound error wrapping err.
func NotFound(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Msg: msg, Err: err}
}

// IO builds a KindIO error wrapping err.
func IO(msg string, err error) *Error {
	return &Error{Kind: KindIO, Msg: msg, Err: err}
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Empty builds a KindEmpty error.
func Empty(msg string) *Error {
	return &Error{Kind: KindEmpty, Msg: msg}
}

// KindOf returns the Kind of err, or KindIO for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// Details returns the underlying cause message, if any.
func Details(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Message returns the human-readable part of err without its cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
