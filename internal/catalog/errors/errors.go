package errors

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")

	ErrServiceNotFound = errors.New("service not found")

	ErrInvalidID = errors.New("invalid catalog ID format")
)
