package mcp

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/domain/stats"
	"github.com/rpggio/dafmemorial/internal/domain/user"
	"github.com/stretchr/testify/require"
)

type catalogStub struct {
	listTractatesFn func(context.Context) ([]catalog.TractateSummary, error)
	listPagesFn     func(context.Context, catalog.ListPagesOptions) ([]catalog.Page, error)
	getPageFn       func(context.Context, string) (*catalog.Page, error)
	progressFn      func(context.Context, string) (*catalog.UserProgress, error)
}

func (c catalogStub) ListTractates(ctx context.Context) ([]catalog.TractateSummary, error) {
	return c.listTractatesFn(ctx)
}
func (c catalogStub) ListPages(ctx context.Context, opts catalog.ListPagesOptions) ([]catalog.Page, error) {
	return c.listPagesFn(ctx, opts)
}
func (c catalogStub) GetPage(ctx context.Context, id string) (*catalog.Page, error) {
	return c.getPageFn(ctx, id)
}
func (c catalogStub) UserProgress(ctx context.Context, userID string) (*catalog.UserProgress, error) {
	return c.progressFn(ctx, userID)
}

type lifecycleStub struct {
	claimFn    func(context.Context, lifecycle.Actor, string) (*catalog.Page, error)
	returnFn   func(context.Context, lifecycle.Actor, string) (*catalog.Page, error)
	completeFn func(context.Context, lifecycle.Actor, string) (*catalog.Page, error)
	bulkFn     func(context.Context, lifecycle.Actor, []string) (*lifecycle.BulkResult, error)
}

func (l lifecycleStub) Claim(ctx context.Context, actor lifecycle.Actor, id string) (*catalog.Page, error) {
	return l.claimFn(ctx, actor, id)
}
func (l lifecycleStub) Return(ctx context.Context, actor lifecycle.Actor, id string) (*catalog.Page, error) {
	return l.returnFn(ctx, actor, id)
}
func (l lifecycleStub) Complete(ctx context.Context, actor lifecycle.Actor, id string) (*catalog.Page, error) {
	return l.completeFn(ctx, actor, id)
}
func (l lifecycleStub) BulkClaim(ctx context.Context, actor lifecycle.Actor, ids []string) (*lifecycle.BulkResult, error) {
	return l.bulkFn(ctx, actor, ids)
}

type statsStub struct {
	fn func(context.Context) (*stats.PageStats, error)
}

func (s statsStub) PageStats(ctx context.Context) (*stats.PageStats, error) { return s.fn(ctx) }

type activityStub struct {
	fn func(context.Context, int) ([]activity.LogEntry, error)
}

func (a activityStub) Recent(ctx context.Context, limit int) ([]activity.LogEntry, error) {
	return a.fn(ctx, limit)
}

func strPtr(s string) *string { return &s }

func takenBy(id, userID, name string) *catalog.Page {
	return &catalog.Page{
		ID:            id,
		TractateName:  "ברכות",
		Label:         "ב׳",
		Status:        catalog.StatusTaken,
		ClaimedBy:     strPtr(userID),
		ClaimedByName: strPtr(name),
	}
}

func TestHandler_ClaimPage(t *testing.T) {
	var gotActor lifecycle.Actor
	h := NewHandler(Services{
		Lifecycle: lifecycleStub{claimFn: func(_ context.Context, actor lifecycle.Actor, id string) (*catalog.Page, error) {
			gotActor = actor
			return takenBy(id, actor.ID, actor.Name), nil
		}},
	})

	result, err := h.Handle(context.Background(), &user.User{ID: "u1", Name: "Alice"}, "claim_page", json.RawMessage(`{"page_id":"p1"}`))
	require.NoError(t, err)
	page := result.(PageResponse)
	require.Equal(t, "p1", page.ID)
	require.True(t, page.Mine)
	require.Equal(t, "Alice", page.ClaimedByName)
	require.Equal(t, lifecycle.Actor{ID: "u1", Name: "Alice"}, gotActor)
}

func TestHandler_TransitionRequiresActor(t *testing.T) {
	h := NewHandler(Services{})
	_, err := h.Handle(context.Background(), nil, "complete_page", json.RawMessage(`{"page_id":"p1"}`))
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "UNAUTHENTICATED", apiErr.Code)
}

func TestHandler_InvalidTransitionMapped(t *testing.T) {
	h := NewHandler(Services{
		Lifecycle: lifecycleStub{returnFn: func(context.Context, lifecycle.Actor, string) (*catalog.Page, error) {
			return nil, lifecycle.ErrInvalidTransition
		}},
	})
	_, err := h.Handle(context.Background(), &user.User{ID: "u1"}, "return_page", json.RawMessage(`{"page_id":"p1"}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_TRANSITION", apiErr.Code)
}

func TestHandler_ClaimPagesReportsFailures(t *testing.T) {
	h := NewHandler(Services{
		Lifecycle: lifecycleStub{bulkFn: func(_ context.Context, actor lifecycle.Actor, ids []string) (*lifecycle.BulkResult, error) {
			require.Equal(t, []string{"p1", "p2"}, ids)
			return &lifecycle.BulkResult{
				Claimed: []catalog.Page{*takenBy("p1", actor.ID, actor.Name)},
				Failed: []lifecycle.ClaimFailure{{
					PageID: "p2",
					Err:    lifecycle.ErrInvalidTransition,
					Page:   takenBy("p2", "u2", "Bob"),
				}},
			}, nil
		}},
	})

	result, err := h.Handle(context.Background(), &user.User{ID: "u1", Name: "Alice"}, "claim_pages", json.RawMessage(`{"page_ids":["p1","p2"]}`))
	require.NoError(t, err)
	resp := result.(ClaimPagesResponse)
	require.Len(t, resp.Claimed, 1)
	require.Len(t, resp.Failed, 1)
	require.Equal(t, "INVALID_TRANSITION", resp.Failed[0].Code)
	require.Equal(t, "Bob", resp.Failed[0].Page.ClaimedByName)
	require.False(t, resp.Failed[0].Page.Mine)
}

func TestHandler_ListPagesPassesFilters(t *testing.T) {
	h := NewHandler(Services{
		Catalog: catalogStub{listPagesFn: func(_ context.Context, opts catalog.ListPagesOptions) ([]catalog.Page, error) {
			require.Equal(t, "t1", opts.TractateID)
			require.Equal(t, []catalog.PageStatus{catalog.StatusAvailable}, opts.Statuses)
			require.Equal(t, 10, opts.Limit)
			return []catalog.Page{{ID: "p1", Status: catalog.StatusAvailable}}, nil
		}},
	})

	result, err := h.Handle(context.Background(), nil, "list_pages", json.RawMessage(`{"tractate_id":"t1","statuses":["available"],"limit":10}`))
	require.NoError(t, err)
	require.Len(t, result.([]PageResponse), 1)
}

func TestHandler_BadArguments(t *testing.T) {
	h := NewHandler(Services{})
	_, err := h.Handle(context.Background(), nil, "get_page", json.RawMessage(`{"page_id":42}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestHandler_UnknownMethod(t *testing.T) {
	h := NewHandler(Services{})
	_, err := h.Handle(context.Background(), nil, "delete_everything", nil)
	require.Error(t, err)
}

func connectTestClient(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := NewServer(cfg)

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })
	return clientSession
}

func toolText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_ToolsOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	actor := &user.User{ID: "u1", Name: "Alice"}

	cs := connectTestClient(t, Config{
		TransportMode: "stdio",
		Actor:         actor,
		Services: Services{
			Stats: statsStub{fn: func(context.Context) (*stats.PageStats, error) {
				return &stats.PageStats{Completed: 3, Taken: 2, Total: 10, Available: 5}, nil
			}},
			Lifecycle: lifecycleStub{claimFn: func(_ context.Context, a lifecycle.Actor, id string) (*catalog.Page, error) {
				if id == "gone" {
					return nil, lifecycle.ErrInvalidTransition
				}
				return takenBy(id, a.ID, a.Name), nil
			}},
			Activity: activityStub{fn: func(_ context.Context, limit int) ([]activity.LogEntry, error) {
				require.Equal(t, 0, limit)
				return []activity.LogEntry{{ID: "l1", Message: "Alice took on the study of page ב׳ of tractate ברכות!", Visible: true}}, nil
			}},
		},
	})

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, def := range buildToolCatalog() {
		require.True(t, names[def.Name], "tool %s not registered", def.Name)
	}

	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: "get_stats"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	var got stats.PageStats
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &got))
	require.Equal(t, 5, got.Available)

	res, err = cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: "claim_page", Arguments: map[string]any{"page_id": "p1"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	var page PageResponse
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &page))
	require.True(t, page.Mine)

	res, err = cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: "claim_page", Arguments: map[string]any{"page_id": "gone"}})
	require.NoError(t, err)
	require.True(t, res.IsError)
	var apiErr APIError
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &apiErr))
	require.Equal(t, "INVALID_TRANSITION", apiErr.Code)

	res, err = cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: "recent_activity"})
	require.NoError(t, err)
	require.Contains(t, toolText(t, res), "took on the study")
}
