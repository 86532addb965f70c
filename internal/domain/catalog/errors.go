package catalog

import "errors"

var (
	// ErrTractateNotFound indicates the tractate doesn't exist.
	ErrTractateNotFound = errors.New("tractate not found")
	// ErrPageNotFound indicates the page doesn't exist.
	ErrPageNotFound = errors.New("page not found")
	// ErrInvalidInput indicates invalid catalog input.
	ErrInvalidInput = errors.New("invalid catalog input")
)
