package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/dafmemorial/internal/domain/user"
)

type contextKey int

const (
	actorKey contextKey = iota
)

// getActor extracts the calling user from context.
func getActor(ctx context.Context) *user.User {
	v, _ := ctx.Value(actorKey).(*user.User)
	return v
}

// withActor returns a context carrying the calling user.
func withActor(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, actorKey, u)
}

// authMiddleware implements bearer session authentication as MCP middleware.
// Tool calls without a valid token still reach read-only tools; transitions
// reject a missing actor in the handler.
func authMiddleware(resolver SessionResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method != "tools/call" || resolver == nil {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return next(ctx, method, req)
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return next(ctx, method, req)
			}

			u, err := resolver.Resolve(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}

			return next(withActor(ctx, u), method, req)
		}
	}
}

// fixedActorMiddleware injects the configured user for local stdio use.
func fixedActorMiddleware(actor *user.User) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if actor != nil {
				ctx = withActor(ctx, actor)
			}
			return next(ctx, method, req)
		}
	}
}
