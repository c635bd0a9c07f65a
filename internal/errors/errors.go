// Package errors consolidates error definitions for the hived pipeline.
//
// This package provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - Error wrapping utilities
package errors

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel errors
// =============================================================================

var (
	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreClosed      = errors.New("store is closed")

	// Validation errors
	ErrInvalidRecord   = errors.New("invalid record")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidPolicy   = errors.New("invalid retention policy")
	ErrInvalidConfig   = errors.New("invalid configuration")

	// Stream errors
	ErrDecode         = errors.New("payload decode failed")
	ErrConnectionLost = errors.New("connection lost")
	ErrAlreadyRunning = errors.New("already running")
	ErrNotRunning     = errors.New("not running")
)

// =============================================================================
// Category checks
// =============================================================================

// IsFatal reports whether err is unrecoverable for the whole pipeline.
// Only a store that cannot be opened is fatal; everything else is either
// a caller error or recovered locally.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsInvalid reports whether err is a synchronous caller error that caused
// no state change.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidPolicy) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsTransient reports whether err is expected to resolve on its own
// (dropped payloads, transport-level disconnects).
func IsTransient(err error) bool {
	return errors.Is(err, ErrDecode) || errors.Is(err, ErrConnectionLost)
}

// =============================================================================
// Wrapping utilities
// =============================================================================

// Wrap wraps err with a message, preserving the sentinel for errors.Is.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps err with a formatted message, preserving the sentinel.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is re-exports errors.Is so callers need only one errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As re-exports errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New re-exports errors.New.
func New(text string) error {
	return errors.New(text)
}
