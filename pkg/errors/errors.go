package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Scheduling error kinds.
var (
	ErrInvalidRange           = New("INVALID_RANGE", http.StatusBadRequest, "invalid time range")
	ErrInvalidFormat          = New("INVALID_FORMAT", http.StatusBadRequest, "invalid date or time format")
	ErrOverlappingWindow      = New("OVERLAPPING_WINDOW", http.StatusConflict, "availability window overlaps an existing window")
	ErrOverlappingTimeOff     = New("OVERLAPPING_TIME_OFF", http.StatusConflict, "time-off overlaps an existing time-off")
	ErrOverlappingLeave       = New("OVERLAPPING_LEAVE", http.StatusConflict, "leave overlaps an existing leave")
	ErrOutsideAvailability    = New("OUTSIDE_AVAILABILITY", http.StatusBadRequest, "time must fall inside tutor availability")
	ErrNoAvailability         = New("NO_AVAILABILITY", http.StatusBadRequest, "tutor is not available on this day")
	ErrTimeOffConflict        = New("TIME_OFF_CONFLICT", http.StatusConflict, "selected time overlaps tutor time-off")
	ErrOnLeave                = New("ON_LEAVE", http.StatusConflict, "tutor is on leave on the selected date")
	ErrSessionOverlap         = New("SESSION_OVERLAP", http.StatusConflict, "tutor already has a session at this time")
	ErrSessionConflict        = New("SESSION_CONFLICT", http.StatusConflict, "a booked session falls inside this time")
	ErrHasActiveSessions      = New("HAS_ACTIVE_SESSIONS", http.StatusConflict, "cancel existing sessions before taking leave")
	ErrPastTime               = New("PAST_TIME", http.StatusBadRequest, "time must be in the future")
	ErrInsufficientNotice     = New("INSUFFICIENT_NOTICE", http.StatusBadRequest, "not enough notice before the session starts")
	ErrInvalidStateTransition = New("INVALID_STATE_TRANSITION", http.StatusBadRequest, "session cannot move to the requested state")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Internal wraps an unexpected storage or IO failure.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// HasCode reports whether err carries the code of kind.
func HasCode(err error, kind *Error) bool {
	var e *Error
	if !errors.As(err, &e) || kind == nil {
		return false
	}
	return e.Code == kind.Code
}
