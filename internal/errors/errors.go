// Package errors carries coded application errors across layer boundaries.
// Domain sentinel errors stay in domain/core; this package wraps them with
// the codes transports map onto status lines and error envelopes.
package errors

import (
	"errors"
	"fmt"
)

// AppError is a structured application error
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

// Error codes surfaced at the boundary
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeSourceError      = "SOURCE_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

// New creates an AppError with a code and message
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap adds context to an error, preserving an existing code
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	code := CodeInternalError
	var app *AppError
	if errors.As(err, &app) {
		code = app.Code
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf adds formatted context to an error
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode stamps a code onto an error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var app *AppError
	if errors.As(err, &app) {
		return &AppError{Code: code, Message: app.Message, Cause: app.Cause}
	}
	return &AppError{Code: code, Message: err.Error(), Cause: err}
}

// CodeOf extracts the code, or INTERNAL_ERROR for plain errors
func CodeOf(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return CodeInternalError
}

// Constructors for the common cases

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

func InsufficientData(message string) *AppError {
	return New(CodeInsufficientData, message)
}

func SourceError(source string, cause error) *AppError {
	return &AppError{
		Code:    CodeSourceError,
		Message: fmt.Sprintf("%s read failed", source),
		Cause:   cause,
	}
}
