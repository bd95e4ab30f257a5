package errors

import (
	stderrors "errors"
	"fmt"

	"leavingrate/domain/core"
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
		Code:    CodeFor(err),
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

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// CodeFor maps domain sentinel errors to error codes
func CodeFor(err error) string {
	switch {
	case stderrors.Is(err, core.ErrMissingColumns):
		return CodeMissingColumns
	case stderrors.Is(err, core.ErrEmptyInput):
		return CodeEmptyInput
	case stderrors.Is(err, core.ErrNoValidRows):
		return CodeNoValidRows
	case stderrors.Is(err, core.ErrUnreadableInput):
		return CodeUnreadableInput
	case stderrors.Is(err, core.ErrInputError):
		return CodeInvalidInput
	case stderrors.Is(err, core.ErrInsufficientData):
		return CodeInsufficientData
	default:
		return CodeInternalError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeMissingColumns   = "MISSING_COLUMNS"
	CodeEmptyInput       = "EMPTY_INPUT"
	CodeNoValidRows      = "NO_VALID_ROWS"
	CodeUnreadableInput  = "UNREADABLE_INPUT"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeOutputError      = "OUTPUT_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// InputError wraps a per-session input failure, keeping the sentinel
// reachable through errors.Is and the code derived from it
func InputError(path string, cause error) *AppError {
	return &AppError{
		Code:    CodeFor(cause),
		Message: fmt.Sprintf("session %s", path),
		Cause:   cause,
	}
}

// OutputError wraps a failure writing a result file
func OutputError(name string, cause error) *AppError {
	return &AppError{
		Code:    CodeOutputError,
		Message: fmt.Sprintf("failed to write %s", name),
		Cause:   cause,
	}
}
