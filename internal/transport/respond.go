package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/domain/user"
)

// Error codes returned in error bodies.
const (
	CodeInvalidTransition = "invalid_transition"
	CodeNotFound          = "not_found"
	CodeInvalidInput      = "invalid_input"
	CodeDraftingDisabled  = "drafting_disabled"
	CodeUnauthenticated   = "unauthenticated"
	CodeInternal          = "internal"
)

// maxBodyBytes bounds request bodies; a full bulk claim of uuids fits easily.
const maxBodyBytes = 1 << 20

// ErrorBody is the JSON error payload. Page carries the authoritative page
// state after a rejected transition so clients can reconcile.
type ErrorBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Page    *catalog.Page `json:"page,omitempty"`
}

// MapError maps domain errors to an HTTP status and error code.
func MapError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, user.ErrSessionInvalid):
		return http.StatusUnauthorized, CodeUnauthenticated
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return http.StatusConflict, CodeInvalidTransition
	case errors.Is(err, lifecycle.ErrPageNotFound),
		errors.Is(err, catalog.ErrPageNotFound),
		errors.Is(err, catalog.ErrTractateNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, lifecycle.ErrDraftingDisabled):
		return http.StatusBadRequest, CodeDraftingDisabled
	case errors.Is(err, lifecycle.ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, CodeInvalidInput
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeJSON decodes a bounded request body, rejecting unknown fields.
func decodeJSON(body io.Reader, out any) error {
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return badRequest("parse body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// errorBody builds the payload for err. Internal errors never leak details.
func errorBody(err error) (int, ErrorBody) {
	status, code := MapError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return status, ErrorBody{Code: code, Message: msg}
}
