package transport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/domain/user"
)

var validate = validator.New()

type pagesQuery struct {
	Tractate string
	Statuses []string `validate:"dive,oneof=available drafted taken completed"`
	User     string
	Limit    int `validate:"gte=0,lte=1000"`
	Offset   int `validate:"gte=0"`
}

type logQuery struct {
	Limit int `validate:"gte=0,lte=500"`
}

// BulkClaimRequest is the body of POST /api/pages/claim.
type BulkClaimRequest struct {
	PageIDs []string `json:"page_ids" validate:"required,min=1,dive,required"`
}

// ClaimFailure is one page a bulk claim could not take.
type ClaimFailure struct {
	PageID  string        `json:"page_id"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Page    *catalog.Page `json:"page,omitempty"`
}

// BulkClaimResponse reports per-page outcomes; successes persist regardless
// of failures.
type BulkClaimResponse struct {
	Claimed []catalog.Page `json:"claimed"`
	Failed  []ClaimFailure `json:"failed"`
}

// MeResponse is the signed-in user with their progress.
type MeResponse struct {
	User     *user.User            `json:"user"`
	Progress *catalog.UserProgress `json:"progress"`
}

func (s *Server) handleListTractates(w http.ResponseWriter, r *http.Request) {
	tractates, err := s.catalog.ListTractates(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tractates)
}

func (s *Server) handleTractatePages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.catalog.ListPages(r.Context(), catalog.ListPagesOptions{TractateID: chi.URLParam(r, "id")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	q, err := parsePagesQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := catalog.ListPagesOptions{TractateID: q.Tractate, Limit: q.Limit, Offset: q.Offset}
	for _, st := range q.Statuses {
		opts.Statuses = append(opts.Statuses, catalog.PageStatus(st))
	}
	switch q.User {
	case "":
	case "me":
		u, ok := UserFromContext(r.Context())
		if !ok {
			s.writeError(w, r, ErrUnauthorized)
			return
		}
		opts.ClaimedBy = &u.ID
	default:
		userID := q.User
		opts.ClaimedBy = &userID
	}

	pages, err := s.catalog.ListPages(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func parsePagesQuery(r *http.Request) (pagesQuery, error) {
	values := r.URL.Query()
	q := pagesQuery{
		Tractate: values.Get("tractate"),
		User:     values.Get("user"),
	}
	for _, raw := range values["status"] {
		for _, st := range strings.Split(raw, ",") {
			if st = strings.TrimSpace(st); st != "" {
				q.Statuses = append(q.Statuses, st)
			}
		}
	}
	var err error
	if q.Limit, err = intParam(values.Get("limit")); err != nil {
		return q, err
	}
	if q.Offset, err = intParam(values.Get("offset")); err != nil {
		return q, err
	}
	if err := validate.Struct(q); err != nil {
		return q, badRequest("%v", err)
	}
	return q, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%q is not a number", raw)
	}
	return n, nil
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.catalog.GetPage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.PageStats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	var q logQuery
	var err error
	if q.Limit, err = intParam(r.URL.Query().Get("limit")); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validate.Struct(q); err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}
	entries, err := s.activity.Recent(r.Context(), q.Limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	progress, err := s.catalog.UserProgress(r.Context(), u.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{User: u, Progress: progress})
}

func (s *Server) handleMyPages(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	progress, err := s.catalog.UserProgress(r.Context(), u.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress.Pages)
}

func (s *Server) handleTransition(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		actor := lifecycle.Actor{ID: u.ID, Name: u.Name}
		pageID := chi.URLParam(r, "id")

		var (
			page *catalog.Page
			err  error
		)
		switch op {
		case lifecycle.OpClaim:
			page, err = s.lifecycle.Claim(r.Context(), actor, pageID)
		case lifecycle.OpReturn:
			page, err = s.lifecycle.Return(r.Context(), actor, pageID)
		case lifecycle.OpComplete:
			page, err = s.lifecycle.Complete(r.Context(), actor, pageID)
		case lifecycle.OpDraft:
			page, err = s.lifecycle.Draft(r.Context(), actor, pageID)
		}
		if err != nil {
			s.writeTransitionError(w, r, pageID, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// writeTransitionError attaches the page's current state to a conflict so
// the caller can replace its optimistic copy.
func (s *Server) writeTransitionError(w http.ResponseWriter, r *http.Request, pageID string, err error) {
	status, body := errorBody(err)
	if status == http.StatusInternalServerError {
		s.writeError(w, r, err)
		return
	}
	if errors.Is(err, lifecycle.ErrInvalidTransition) {
		if current, getErr := s.catalog.GetPage(r.Context(), pageID); getErr == nil {
			body.Page = current
		}
	}
	writeJSON(w, status, body)
}

func (s *Server) handleBulkClaim(w http.ResponseWriter, r *http.Request) {
	var req BulkClaimRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}

	u, _ := UserFromContext(r.Context())
	result, err := s.lifecycle.BulkClaim(r.Context(), lifecycle.Actor{ID: u.ID, Name: u.Name}, req.PageIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := BulkClaimResponse{
		Claimed: result.Claimed,
		Failed:  make([]ClaimFailure, 0, len(result.Failed)),
	}
	if resp.Claimed == nil {
		resp.Claimed = []catalog.Page{}
	}
	for _, f := range result.Failed {
		_, body := errorBody(f.Err)
		resp.Failed = append(resp.Failed, ClaimFailure{
			PageID:  f.PageID,
			Code:    body.Code,
			Message: body.Message,
			Page:    f.Page,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
