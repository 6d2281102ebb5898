package domainerrors

import (
	"errors"
	"time"
)

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in enrollment or verification terms, not HTTP terms.
type Code string

const (
	CodeNotFound             Code = "not_found"
	CodeInvalidInput         Code = "invalid_input"
	CodeValidation           Code = "validation_failed"
	CodeInternal             Code = "internal_error"
	CodeConflict             Code = "conflict"
	CodeTimeout              Code = "timeout"
	CodeInvariantViolation   Code = "invariant_violation"
	CodeIncompleteEnrollment Code = "incomplete_enrollment"
	CodeProfileLocked        Code = "profile_locked"
	CodeProfileNotActive     Code = "profile_not_active"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and handler layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Lockout carries the instant a locked profile may retry.
// It travels as the wrapped cause of a CodeProfileLocked error.
type Lockout struct {
	Until time.Time
}

func (l *Lockout) Error() string {
	return "locked until " + l.Until.UTC().Format(time.RFC3339)
}

// Locked builds a CodeProfileLocked error that exposes the retry instant.
func Locked(until time.Time) error {
	return &Error{Code: CodeProfileLocked, Message: "profile is locked", Err: &Lockout{Until: until}}
}

// LockedUntil extracts the retry instant from a CodeProfileLocked error.
func LockedUntil(err error) (time.Time, bool) {
	var l *Lockout
	if errors.As(err, &l) {
		return l.Until, true
	}
	return time.Time{}, false
}
