// Package errors defines common error types for the library.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the library.
const (
	CodeUnknown             = "UNKNOWN_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeConfigError         = "CONFIG_ERROR"
	CodeStrategyUnavailable = "STRATEGY_UNAVAILABLE"
	CodeIntrospectionError  = "INTROSPECTION_ERROR"
)

// AppError represents a library error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrInvalidInput        = New(CodeInvalidInput, "invalid input")
	ErrConfigError         = New(CodeConfigError, "configuration error")
	ErrStrategyUnavailable = New(CodeStrategyUnavailable, "sizing strategy unavailable")
	ErrIntrospectionError  = New(CodeIntrospectionError, "introspection error")
)

// IsInvalidInput checks if the error is an invalid input error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfigError checks if the error is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigError)
}

// IsStrategyUnavailable checks if the error is a strategy availability error.
func IsStrategyUnavailable(err error) bool {
	return errors.Is(err, ErrStrategyUnavailable)
}

// IsIntrospectionError checks if the error is an introspection error.
func IsIntrospectionError(err error) bool {
	return errors.Is(err, ErrIntrospectionError)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
