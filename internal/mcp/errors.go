package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
)

const codeInternal = "INTERNAL"

// ErrUnauthenticated indicates a transition without a signed-in user.
var ErrUnauthenticated = errors.New("unauthenticated")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return &APIError{Code: "INVALID_TRANSITION", Message: err.Error(), RecoveryHint: "Re-read the page with get_page; someone else may hold it"}
	case errors.Is(err, lifecycle.ErrPageNotFound), errors.Is(err, catalog.ErrPageNotFound):
		return &APIError{Code: "PAGE_NOT_FOUND", Message: "page not found", RecoveryHint: "Use list_pages to find page IDs"}
	case errors.Is(err, catalog.ErrTractateNotFound):
		return &APIError{Code: "TRACTATE_NOT_FOUND", Message: "tractate not found", RecoveryHint: "Use list_tractates to find tractate IDs"}
	case errors.Is(err, lifecycle.ErrInvalidInput), errors.Is(err, catalog.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, ErrUnauthenticated):
		return &APIError{Code: "UNAUTHENTICATED", Message: "sign in required", RecoveryHint: "Send a session token as a bearer token"}
	default:
		return nil
	}
}

func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if mapped := MapError(err); mapped != nil {
		return mapped
	}
	return &APIError{Code: codeInternal, Message: "internal error"}
}
