package store

import "errors"

// Predefined errors for the store layer.
var (
	// ErrNotFound indicates that a requested feedback record does not exist.
	ErrNotFound = errors.New("feedback not found")
)
