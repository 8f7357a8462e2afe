package errors

import "errors"

var (
	ErrNotFound = errors.New("roster entry not found")

	ErrInvalidID = errors.New("invalid roster entry ID format")

	ErrSlotOverlap = errors.New("weekly slot overlaps an existing slot for this employee and weekday")

	ErrDuplicateException = errors.New("an exception already exists for this employee and date")
)
