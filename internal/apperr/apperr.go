// Package apperr defines the typed failures reported by flight operations.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so transports can map it to a status code.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidState
	KindValidation
	KindGeofence
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid_state"
	case KindValidation:
		return "validation"
	case KindGeofence:
		return "geofence_violation"
	case KindConflict:
		return "concurrency_conflict"
	}
	return "unknown"
}

// Error is a failure of a flight operation. Rule names the violated check.
type Error struct {
	Kind  Kind
	Rule  string
	Msg   string
	Zones []string
}

func (e *Error) Error() string {
	if e.Rule == "" {
		return e.Msg
	}
	return e.Rule + ": " + e.Msg
}

func newErr(k Kind, rule, format string, args ...any) *Error {
	return &Error{Kind: k, Rule: rule, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a reference that does not resolve.
func NotFound(what string, id any) *Error {
	return newErr(KindNotFound, "not_found", "%s %v not found", what, id)
}

// Forbidden reports a role, ownership or organization mismatch.
func Forbidden(rule, format string, args ...any) *Error {
	return newErr(KindForbidden, rule, format, args...)
}

// InvalidState reports a transition that is illegal from the current state.
func InvalidState(format string, args ...any) *Error {
	return newErr(KindInvalidState, "wrong_state", format, args...)
}

// Validation reports malformed input.
func Validation(rule, format string, args ...any) *Error {
	return newErr(KindValidation, rule, format, args...)
}

// GeofenceViolation reports a path crossing the named active zones.
func GeofenceViolation(zones []string) *Error {
	e := newErr(KindGeofence, "geofence_breach", "flight plan intersects with no-fly zones: %s", strings.Join(zones, ", "))
	e.Zones = zones
	return e
}

// Conflict reports a lost race against a concurrent transition.
func Conflict(format string, args ...any) *Error {
	return newErr(KindConflict, "concurrency_conflict", format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
