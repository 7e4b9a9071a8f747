// Package apperrors defines the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a stable, machine-readable error code.
type ErrorCode string

const (
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	ErrCodeContentNotFound  ErrorCode = "CONTENT_NOT_FOUND"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInvalidAction    ErrorCode = "INVALID_ACTION"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeTransientFailure ErrorCode = "TRANSIENT_STORE_FAILURE"
	ErrCodeUnavailable      ErrorCode = "UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// Is matches on code, so errors.Is(err, ErrUserNotFound) holds for any user-not-found error.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthorized     = &StandardError{Code: ErrCodeUnauthorized}
	ErrUserNotFound     = &StandardError{Code: ErrCodeUserNotFound}
	ErrContentNotFound  = &StandardError{Code: ErrCodeContentNotFound}
	ErrNotFound         = &StandardError{Code: ErrCodeNotFound}
	ErrInvalidAction    = &StandardError{Code: ErrCodeInvalidAction}
	ErrInvalidInput     = &StandardError{Code: ErrCodeInvalidInput}
	ErrTransientFailure = &StandardError{Code: ErrCodeTransientFailure}
	ErrUnavailable      = &StandardError{Code: ErrCodeUnavailable}
)

// NewUnauthorizedError is returned when a tier is too low for the requested action or content.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Tier too low for this operation",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserNotFoundError creates a non-retryable missing-user error.
func NewUserNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserNotFound,
		Message:   "User not found",
		Details:   fmt.Sprintf("userId: %s", userID),
		Metadata:  map[string]interface{}{"user_id": userID},
		Timestamp: time.Now().UTC(),
	}
}

// NewContentNotFoundError creates a non-retryable missing-content error.
func NewContentNotFoundError(contentID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeContentNotFound,
		Message:   "Content not found",
		Details:   fmt.Sprintf("contentId: %s", contentID),
		Metadata:  map[string]interface{}{"content_id": contentID},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError covers any other missing entity (notification, story, template).
func NewNotFoundError(entity, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", entity),
		Details:   fmt.Sprintf("id: %s", id),
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidActionError is a policy violation: the action kind is not in the action table.
func NewInvalidActionError(action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidAction,
		Message:   "Unsupported action",
		Details:   fmt.Sprintf("action: %q", action),
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransientError wraps a store or network failure. Safe to retry.
func NewTransientError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransientFailure,
		Message:   "Store operation failed",
		Details:   fmt.Sprintf("op: %s, error: %v", op, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUnavailableError reports an optional collaborator that is not configured.
func NewUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnavailable,
		Message:   "Service unavailable",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// Wrap passes StandardErrors through and turns anything else into a transient failure.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StandardError
	if errors.As(err, &se) {
		return err
	}
	return NewTransientError(op, err)
}

// IsRetryable reports whether err (or anything it wraps) is a retryable StandardError.
func IsRetryable(err error) bool {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// CodeOf returns the code of the first StandardError in the chain, or "" when there is none.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
