package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/domain/stats"
	"github.com/rpggio/dafmemorial/internal/domain/user"
)

// CatalogService defines catalog queries needed by MCP.
type CatalogService interface {
	ListTractates(ctx context.Context) ([]catalog.TractateSummary, error)
	ListPages(ctx context.Context, opts catalog.ListPagesOptions) ([]catalog.Page, error)
	GetPage(ctx context.Context, id string) (*catalog.Page, error)
	UserProgress(ctx context.Context, userID string) (*catalog.UserProgress, error)
}

// LifecycleService defines page transitions needed by MCP.
type LifecycleService interface {
	Claim(ctx context.Context, actor lifecycle.Actor, pageID string) (*catalog.Page, error)
	Return(ctx context.Context, actor lifecycle.Actor, pageID string) (*catalog.Page, error)
	Complete(ctx context.Context, actor lifecycle.Actor, pageID string) (*catalog.Page, error)
	BulkClaim(ctx context.Context, actor lifecycle.Actor, pageIDs []string) (*lifecycle.BulkResult, error)
}

// StatsService defines the stats query needed by MCP.
type StatsService interface {
	PageStats(ctx context.Context) (*stats.PageStats, error)
}

// ActivityService defines activity log reads needed by MCP.
type ActivityService interface {
	Recent(ctx context.Context, limit int) ([]activity.LogEntry, error)
}

// SessionResolver resolves the user behind a bearer session token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*user.User, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Catalog   CatalogService
	Lifecycle LifecycleService
	Stats     StatsService
	Activity  ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      SessionResolver
	TransportMode string // "stdio" or "http"
	// Actor acts for every call in stdio mode.
	Actor  *user.User
	Logger *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "daf-memorial",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio mode acts as the configured user; HTTP mode requires a session token.
	if cfg.TransportMode == "stdio" {
		server.AddReceivingMiddleware(fixedActorMiddleware(cfg.Actor))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services), cfg.Logger)

	return server
}

// registerTools exposes every catalog entry through the handler.
func registerTools(server *sdkmcp.Server, handler *Handler, logger *slog.Logger) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args []byte
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, getActor(ctx), name, args)
			if err != nil {
				apiErr := toAPIError(err)
				if apiErr.Code == codeInternal && logger != nil {
					logger.Error("mcp tool failed", "tool", name, "error", err)
				}
				return toolResult(apiErr, true), nil
			}
			return toolResult(result, false), nil
		})
	}
}

func toolResult(payload any, isError bool) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: formatPayload(payload)}},
		IsError: isError,
	}
}
