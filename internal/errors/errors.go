// Package errors defines the structured application error used across the
// data, service and HTTP layers, plus the mapping from database errors.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode is the category of an AppError. HTTP handlers map it to a status.
type ErrorCode string

const (
	ErrCodeNotFound    ErrorCode = "not_found"
	ErrCodeConflict    ErrorCode = "conflict"
	ErrCodeValidation  ErrorCode = "validation"
	ErrCodeForeignKey  ErrorCode = "foreign_key"
	ErrCodeUnavailable ErrorCode = "unavailable" // dependency unreachable or not configured
	ErrCodeInternal    ErrorCode = "internal"
	ErrCodeTimeout     ErrorCode = "timeout"
	ErrCodeCanceled    ErrorCode = "canceled"
)

// AppError carries a user-facing Message (French) and an optional Cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field names the offending column for validation and conflict errors.
	Field string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another *AppError by code, so sentinel AppErrors work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Cause == nil && t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// NotFound creates a NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Unavailable creates an Unavailable error.
func Unavailable(message string) *AppError {
	return &AppError{Code: ErrCodeUnavailable, Message: message}
}

// Wrap attaches code and message to err. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// GetCode returns the code of the first AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	if appErr, ok := asAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// GetField returns the offending field, or "".
func GetField(err error) string {
	if appErr, ok := asAppError(err); ok {
		return appErr.Field
	}
	return ""
}

// IsAppError reports whether err carries an AppError with the given code.
func IsAppError(err error, code ErrorCode) bool { return GetCode(err) == code && code != "" }

func IsNotFound(err error) bool    { return IsAppError(err, ErrCodeNotFound) }
func IsConflict(err error) bool    { return IsAppError(err, ErrCodeConflict) }
func IsUnavailable(err error) bool { return IsAppError(err, ErrCodeUnavailable) }

// PublicMessage returns the AppError message safe to show to a user, or fallback.
func PublicMessage(err error, fallback string) string {
	if appErr, ok := asAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
