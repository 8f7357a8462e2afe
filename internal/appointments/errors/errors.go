package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	ErrTimeConflict = errors.New("appointment time conflicts with an existing appointment")

	ErrOutsideAvailability = errors.New("requested time falls outside the employee's availability")

	ErrInvalidTransition = errors.New("invalid appointment status transition")
)
