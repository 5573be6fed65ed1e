package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrOutsideHours = errors.New("booking outside operating hours")
	ErrConflict     = errors.New("time slot already booked")
	ErrGateway      = errors.New("payment gateway error")
	ErrIDExhausted  = errors.New("could not allocate booking id")
	ErrNotFound     = errors.New("booking not found")
)

// ConflictError names the booking that blocks the requested range.
type ConflictError struct {
	Existing string
	Start    string
	Hours    int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicts with booking %s at %s for %dh", e.Existing, e.Start, e.Hours)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// FieldErrors carries field-level validation messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string { return "validation failed" }

func (e FieldErrors) Unwrap() error { return ErrValidation }
