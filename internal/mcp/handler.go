package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/domain/user"
)

// Handler dispatches MCP tool calls.
type Handler struct {
	catalog   CatalogService
	lifecycle LifecycleService
	stats     StatsService
	activity  ActivityService
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services) *Handler {
	return &Handler{
		catalog:   services.Catalog,
		lifecycle: services.Lifecycle,
		stats:     services.Stats,
		activity:  services.Activity,
	}
}

// Handle dispatches a tool call to domain services. actor may be nil for
// read-only tools.
func (h *Handler) Handle(ctx context.Context, actor *user.User, method string, params json.RawMessage) (any, error) {
	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}

	switch method {
	case "list_tractates":
		return h.catalog.ListTractates(ctx)
	case "list_pages":
		var req ListPagesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		pages, err := h.catalog.ListPages(ctx, catalog.ListPagesOptions{
			TractateID: req.TractateID,
			Statuses:   req.Statuses,
			Limit:      req.Limit,
			Offset:     req.Offset,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return toPageResponses(pages, actorID), nil
	case "get_page":
		var req PageParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		page, err := h.catalog.GetPage(ctx, req.PageID)
		if err != nil {
			return nil, mapError(err)
		}
		return toPageResponse(*page, actorID), nil
	case "claim_page", "return_page", "complete_page":
		var req PageParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if actor == nil {
			return nil, mapError(ErrUnauthenticated)
		}
		page, err := h.transition(ctx, method, toActor(actor), req.PageID)
		if err != nil {
			return nil, mapError(err)
		}
		return toPageResponse(*page, actorID), nil
	case "claim_pages":
		var req ClaimPagesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if actor == nil {
			return nil, mapError(ErrUnauthenticated)
		}
		result, err := h.lifecycle.BulkClaim(ctx, toActor(actor), req.PageIDs)
		if err != nil {
			return nil, mapError(err)
		}
		resp := ClaimPagesResponse{
			Claimed: toPageResponses(result.Claimed, actorID),
			Failed:  make([]ClaimFailureResponse, 0, len(result.Failed)),
		}
		for _, f := range result.Failed {
			apiErr := toAPIError(f.Err)
			failure := ClaimFailureResponse{PageID: f.PageID, Code: apiErr.Code, Message: apiErr.Message}
			if f.Page != nil {
				page := toPageResponse(*f.Page, actorID)
				failure.Page = &page
			}
			resp.Failed = append(resp.Failed, failure)
		}
		return resp, nil
	case "get_stats":
		return h.stats.PageStats(ctx)
	case "recent_activity":
		var req RecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.activity.Recent(ctx, req.Limit)
	case "my_pages":
		if actor == nil {
			return nil, mapError(ErrUnauthenticated)
		}
		progress, err := h.catalog.UserProgress(ctx, actor.ID)
		if err != nil {
			return nil, mapError(err)
		}
		return MyPagesResponse{
			InProgress: progress.InProgress,
			Completed:  progress.Completed,
			Total:      progress.Total,
			Percent:    progress.Percent,
			Pages:      toPageResponses(progress.Pages, actorID),
		}, nil
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func (h *Handler) transition(ctx context.Context, method string, actor lifecycle.Actor, pageID string) (*catalog.Page, error) {
	switch method {
	case "claim_page":
		return h.lifecycle.Claim(ctx, actor, pageID)
	case "return_page":
		return h.lifecycle.Return(ctx, actor, pageID)
	default:
		return h.lifecycle.Complete(ctx, actor, pageID)
	}
}

func toActor(u *user.User) lifecycle.Actor {
	return lifecycle.Actor{ID: u.ID, Name: u.Name}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
