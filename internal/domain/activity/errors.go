package activity

import "errors"

var (
	// ErrInvalidInput indicates an entry or query that cannot be served.
	ErrInvalidInput = errors.New("invalid activity input")
)
