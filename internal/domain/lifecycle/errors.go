package lifecycle

import "errors"

var (
	// ErrInvalidTransition indicates the page is not in the state the transition requires.
	ErrInvalidTransition = errors.New("invalid page state transition")
	// ErrPageNotFound indicates the page doesn't exist.
	ErrPageNotFound = errors.New("page not found")
	// ErrInvalidInput indicates a malformed request (missing actor, empty batch, ...).
	ErrInvalidInput = errors.New("invalid lifecycle input")
	// ErrDraftingDisabled indicates a draft operation while drafting mode is off.
	ErrDraftingDisabled = errors.New("drafting is disabled")
)
