package mcp

import (
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

type ListPagesParams struct {
	TractateID string               `json:"tractate_id,omitempty"`
	Statuses   []catalog.PageStatus `json:"statuses,omitempty"`
	Limit      int                  `json:"limit,omitempty"`
	Offset     int                  `json:"offset,omitempty"`
}

type PageParams struct {
	PageID string `json:"page_id"`
}

type ClaimPagesParams struct {
	PageIDs []string `json:"page_ids"`
}

type RecentActivityParams struct {
	Limit int `json:"limit,omitempty"`
}

// PageResponse is the compact page view returned by tools.
type PageResponse struct {
	ID            string             `json:"id"`
	Tractate      string             `json:"tractate"`
	Label         string             `json:"label"`
	Index         int                `json:"index"`
	Status        catalog.PageStatus `json:"status"`
	ClaimedByName string             `json:"claimed_by_name,omitempty"`
	Mine          bool               `json:"mine,omitempty"`
}

type ClaimFailureResponse struct {
	PageID  string        `json:"page_id"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Page    *PageResponse `json:"page,omitempty"`
}

type ClaimPagesResponse struct {
	Claimed []PageResponse         `json:"claimed"`
	Failed  []ClaimFailureResponse `json:"failed"`
}

type MyPagesResponse struct {
	InProgress int            `json:"in_progress"`
	Completed  int            `json:"completed"`
	Total      int            `json:"total"`
	Percent    float64        `json:"percent"`
	Pages      []PageResponse `json:"pages"`
}

func toPageResponse(p catalog.Page, actorID string) PageResponse {
	resp := PageResponse{
		ID:       p.ID,
		Tractate: p.TractateName,
		Label:    p.Label,
		Index:    p.Index,
		Status:   p.Status,
		Mine:     actorID != "" && p.ClaimedByUser(actorID),
	}
	if p.ClaimedByName != nil {
		resp.ClaimedByName = *p.ClaimedByName
	}
	return resp
}

func toPageResponses(pages []catalog.Page, actorID string) []PageResponse {
	out := make([]PageResponse, 0, len(pages))
	for _, p := range pages {
		out = append(out, toPageResponse(p, actorID))
	}
	return out
}
