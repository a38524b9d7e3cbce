package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrMedicationNotFound = fmt.Errorf("%w: medication", ErrNotFound)

	// Validation errors
	ErrInvalidParameters = errors.New("invalid pharmacokinetic parameters")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidRange      = errors.New("invalid therapeutic range")
	ErrInvalidWindow     = errors.New("invalid analysis window")

	// Data sufficiency errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerateSeries = errors.New("degenerate series")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, reason)
}

func NewParameterError(medicationID ID, parameter string) error {
	return fmt.Errorf("%w: medication %s has non-physical %s", ErrInvalidParameters, medicationID, parameter)
}

func NewInsufficientDataError(what string, have, want int) error {
	return fmt.Errorf("%w: %s has %d samples, need %d", ErrInsufficientData, what, have, want)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidParameters) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidWindow)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrDegenerateSeries)
}
