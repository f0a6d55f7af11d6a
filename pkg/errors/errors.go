package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	ErrCodeNotConfigured      ErrorCode = "NOT_CONFIGURED"
	ErrCodeTransportRejected  ErrorCode = "TRANSPORT_REJECTED"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsValidation checks if error is a ValidationError
func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

// IsStorageUnavailable checks if error is StorageUnavailable
func IsStorageUnavailable(err error) bool {
	return CodeOf(err) == ErrCodeStorageUnavailable
}

// IsNotConfigured checks if error is NotConfigured
func IsNotConfigured(err error) bool {
	return CodeOf(err) == ErrCodeNotConfigured
}

// IsTransportRejected checks if error is TransportRejected
func IsTransportRejected(err error) bool {
	return CodeOf(err) == ErrCodeTransportRejected
}

// IsNotFound checks if error is NotFound
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsUnauthorized checks if error is Unauthorized
func IsUnauthorized(err error) bool {
	return CodeOf(err) == ErrCodeUnauthorized
}
