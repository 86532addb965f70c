package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/user"
	"github.com/rpggio/dafmemorial/internal/mcp"
	"github.com/rpggio/dafmemorial/internal/transport"
	"github.com/spf13/cobra"
)

const sessionSweepInterval = time.Hour

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seed, err := catalog.LoadSeed(a.cfg.DB.SeedPath)
	if err != nil {
		return err
	}
	if _, err := a.seeder.Seed(ctx, seed); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	services := mcp.Services{
		Catalog:   a.catalog,
		Lifecycle: a.lifecycle,
		Stats:     a.stats,
		Activity:  a.activity,
	}

	if a.cfg.Transport.Mode == "stdio" {
		actor, err := a.users.SignIn(ctx, user.Identity{Name: a.cfg.MCP.ActorName, Email: a.cfg.MCP.ActorEmail})
		if err != nil {
			return fmt.Errorf("resolve mcp actor: %w", err)
		}
		mcpServer := mcp.NewServer(mcp.Config{
			Services:      services,
			TransportMode: "stdio",
			Actor:         actor,
			Logger:        a.logger,
		})
		return runStdioMode(ctx, a.logger, mcpServer, actor)
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      a.users,
		TransportMode: "http",
		Logger:        a.logger,
	})
	return runHTTPMode(ctx, a, mcpServer)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server, actor *user.User) error {
	logger.Info("starting stdio transport", "user_id", actor.ID)

	// Run blocks until stdin closes or ctx is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, a *app, mcpServer *sdkmcp.Server) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)

	deps := transport.Deps{
		Catalog:       a.catalog,
		Lifecycle:     a.lifecycle,
		Stats:         a.stats,
		Activity:      a.activity,
		Users:         a.users,
		MCP:           mcpHandler,
		Metrics:       promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
		Observer:      a.metrics,
		SecureCookies: a.cfg.Auth.SecureCookies,
		Logger:        a.logger,
	}
	if oauth := a.cfg.Auth.OAuth; oauth.Enabled() {
		deps.OAuth = transport.NewOAuthHandler(transport.OAuthOptions{
			ClientID:      oauth.ClientID,
			ClientSecret:  oauth.ClientSecret,
			RedirectURL:   oauth.RedirectURL,
			UserInfoURL:   oauth.UserInfoURL,
			SecureCookies: a.cfg.Auth.SecureCookies,
		}, a.users, a.logger)
	} else {
		a.logger.Warn("oauth not configured, sign-in routes disabled")
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sweepSessions(ctx, a)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", addr, "drafting", a.cfg.Lifecycle.Drafting)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	return shutdown(a.logger, httpServer)
}

func shutdown(logger *slog.Logger, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// sweepSessions deletes expired sessions until ctx is done.
func sweepSessions(ctx context.Context, a *app) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sessions.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				a.logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				a.logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
