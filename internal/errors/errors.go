package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the error code if it's an AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// IsCode reports whether err carries the given condition code anywhere in
// its chain.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	if appErr.Code == code {
		return true
	}
	return IsCode(appErr.Cause, code)
}

// Condition codes for the analysis pipeline. The pipeline codes are
// recoverable per-unit conditions, not fatal errors: the sweep logs them
// and continues with the next unit.
const (
	CodeDataInsufficient      = "DATA_INSUFFICIENT"
	CodeDegenerateDistance    = "DEGENERATE_DISTANCE"
	CodeOrdinationUnavailable = "ORDINATION_UNAVAILABLE"
	CodeGroupTestUnavailable  = "GROUP_TEST_UNAVAILABLE"
	CodeConfigInvalid         = "CONFIG_INVALID"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeInternalError         = "INTERNAL_ERROR"
)

// Common error constructors
func DataInsufficient(message string) *AppError {
	return New(CodeDataInsufficient, message)
}

func DataInsufficientf(format string, args ...interface{}) *AppError {
	return New(CodeDataInsufficient, fmt.Sprintf(format, args...))
}

func DegenerateDistance(message string) *AppError {
	return New(CodeDegenerateDistance, message)
}

func OrdinationUnavailable(message string) *AppError {
	return New(CodeOrdinationUnavailable, message)
}

func GroupTestUnavailable(message string) *AppError {
	return New(CodeGroupTestUnavailable, message)
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func InvalidInputf(format string, args ...interface{}) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf(format, args...))
}
