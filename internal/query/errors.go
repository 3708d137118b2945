package query

import "errors"

var (
	// ErrColumnNotFound is returned when an option names a column the record does not have.
	ErrColumnNotFound = errors.New("column not found")
	// ErrUnsupportedOperator is returned for operators outside the supported set.
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrInvalidOptions is returned by ParseValues for malformed parameters.
	ErrInvalidOptions = errors.New("invalid query options")
)
