package rnaprep

import "errors"

var (
	// ErrDataShape is returned when filtering leaves a table with no genes or
	// no samples.
	ErrDataShape = errors.New("rnaprep: no rows or columns remain")

	// ErrConfig is returned for invalid or contradictory configuration, such as
	// an unrecognized normalization method.
	ErrConfig = errors.New("rnaprep: invalid configuration")

	// ErrInvalidTable is returned when input data violates the CountTable
	// invariants.
	ErrInvalidTable = errors.New("rnaprep: invalid table")
)
