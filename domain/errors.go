package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeInvalid         ErrorCode = "INVALID"
	ErrCodeInvalidShare    ErrorCode = "INVALID_SHARE"
	ErrCodeVersionConflict ErrorCode = "VERSION_CONFLICT"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal        ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
	Details map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on code and message so sentinel values survive wrapping with details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound    = NewError(ErrCodeNotFound, "task not found")
	ErrShareNotFound   = NewError(ErrCodeNotFound, "share not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	ErrAccessDenied    = NewError(ErrCodeForbidden, "access denied")
	ErrVersionConflict = NewError(ErrCodeVersionConflict, "task has been modified by another user")
	ErrSelfShare       = NewError(ErrCodeInvalidShare, "cannot share a task with its owner")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
)

// NewAccessDenied reports that the caller may not perform action on the task.
func NewAccessDenied(action Action, taskID string) *Error {
	return &Error{
		Code:    ErrCodeForbidden,
		Message: ErrAccessDenied.Message,
		Details: map[string]string{
			"action":  string(action),
			"task_id": taskID,
		},
	}
}

// NewVersionConflict reports a stale expected version. A negative expected
// value means the caller supplied none and lost the store-level race.
func NewVersionConflict(taskID string, expected, current int) *Error {
	details := map[string]string{"task_id": taskID}
	if expected >= 0 {
		details["expected_version"] = strconv.Itoa(expected)
	}
	if current > 0 {
		details["current_version"] = strconv.Itoa(current)
	}
	return &Error{
		Code:    ErrCodeVersionConflict,
		Message: ErrVersionConflict.Message,
		Details: details,
	}
}

// Invalid builds a validation error for a single field.
func Invalid(field, reason string) *Error {
	return &Error{
		Code:    ErrCodeInvalid,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Details: map[string]string{"field": field},
	}
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
