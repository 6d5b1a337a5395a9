package engine

import (
	"errors"
	"fmt"
)

// RejectionError reports a command whose precondition did not hold.
//
// A rejected command never changes state. Rejections are ordinary user input
// mistakes (empty name, acting while casting, ...) so callers are free to
// ignore them; the presentation layer decides whether to surface them.
type RejectionError struct {
	// Code identifies the violated precondition.
	Code RejectionCode

	// Message is a human-readable description.
	Message string

	// UnitID identifies the unit involved, when there is one.
	UnitID string
}

// RejectionCode categorizes rejections.
type RejectionCode string

const (
	// ErrCodeEmptyName: the unit name was empty after trimming.
	ErrCodeEmptyName RejectionCode = "EMPTY_NAME"

	// ErrCodeInvalidDelta: a step delta was not positive.
	ErrCodeInvalidDelta RejectionCode = "INVALID_DELTA"

	// ErrCodeNoTarget: no unit was selected and nobody is ready.
	ErrCodeNoTarget RejectionCode = "NO_TARGET"

	// ErrCodeUnknownUnit: the id does not name a unit on the roster.
	ErrCodeUnknownUnit RejectionCode = "UNKNOWN_UNIT"

	// ErrCodeNotReady: the unit is casting or recovering.
	ErrCodeNotReady RejectionCode = "NOT_READY"

	// ErrCodeRosterEmpty: auto-advance needs at least one unit.
	ErrCodeRosterEmpty RejectionCode = "ROSTER_EMPTY"

	// ErrCodeAlreadyAdvancing: an auto-advance run is already in flight.
	ErrCodeAlreadyAdvancing RejectionCode = "ALREADY_ADVANCING"

	// ErrCodeAlreadyReady: a unit is ready, there is nothing to advance to.
	ErrCodeAlreadyReady RejectionCode = "ALREADY_READY"
)

// Error implements the error interface.
func (e *RejectionError) Error() string {
	if e.UnitID != "" {
		return fmt.Sprintf("%s: %s (unit=%s)", e.Code, e.Message, e.UnitID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRejected reports whether err is (or wraps) a RejectionError.
func IsRejected(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

// RejectionCodeOf returns the code of a wrapped RejectionError, or "" if err
// is not a rejection.
func RejectionCodeOf(err error) RejectionCode {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func reject(code RejectionCode, unitID, format string, args ...any) *RejectionError {
	return &RejectionError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		UnitID:  unitID,
	}
}
