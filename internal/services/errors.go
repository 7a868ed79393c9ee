package services

import "errors"

// Service errors
var (
	// ErrNoDataset is returned when a query runs without a loaded dataset.
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrColumnNotFound is returned for a path or query column the dataset lacks.
	ErrColumnNotFound = errors.New("column not found")

	// ErrNoSource is returned when neither a plan nor a source file is configured.
	ErrNoSource = errors.New("no plan or source configured")

	// ErrInvalidInput marks requests that fail validation.
	ErrInvalidInput = errors.New("invalid input")
)
