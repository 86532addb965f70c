package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/domain/stats"
)

// CatalogService defines the catalog queries the API serves.
type CatalogService interface {
	ListTractates(ctx context.Context) ([]catalog.TractateSummary, error)
	ListPages(ctx context.Context, opts catalog.ListPagesOptions) ([]catalog.Page, error)
	GetPage(ctx context.Context, id string) (*catalog.Page, error)
	UserProgress(ctx context.Context, userID string) (*catalog.UserProgress, error)
}

// LifecycleService defines the page transitions the API exposes.
type LifecycleService interface {
	Claim(ctx context.Context, actor lifecycle.Actor, pageID string) (*catalog.Page, error)
	Return(ctx context.Context, actor lifecycle.Actor, pageID string) (*catalog.Page, error)
	Complete(ctx context.Context, actor lifecycle.Actor, pageID string) (*catalog.Page, error)
	Draft(ctx context.Context, actor lifecycle.Actor, pageID string) (*catalog.Page, error)
	BulkClaim(ctx context.Context, actor lifecycle.Actor, pageIDs []string) (*lifecycle.BulkResult, error)
}

type StatsService interface {
	PageStats(ctx context.Context) (*stats.PageStats, error)
}

type ActivityService interface {
	Recent(ctx context.Context, limit int) ([]activity.LogEntry, error)
}

// RequestObserver records served requests by route pattern.
type RequestObserver interface {
	ObserveRequest(method, route string, code int)
}

// Deps wires the HTTP server. Nil optional handlers leave their routes unmounted.
type Deps struct {
	Catalog   CatalogService
	Lifecycle LifecycleService
	Stats     StatsService
	Activity  ActivityService
	Users     UserService

	OAuth    *OAuthHandler
	MCP      http.Handler
	Metrics  http.Handler
	Observer RequestObserver

	SecureCookies bool
	Logger        *slog.Logger
}

// Server holds the REST handlers.
type Server struct {
	catalog   CatalogService
	lifecycle LifecycleService
	stats     StatsService
	activity  ActivityService
	logger    *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if deps.Observer != nil {
		r.Use(metricsMiddleware(deps.Observer))
	}

	srv := &Server{
		catalog:   deps.Catalog,
		lifecycle: deps.Lifecycle,
		stats:     deps.Stats,
		activity:  deps.Activity,
		logger:    deps.Logger,
	}

	r.Get("/health", srv.handleHealth)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	if deps.MCP != nil {
		r.Handle("/mcp", deps.MCP)
	}

	r.Route("/auth", func(r chi.Router) {
		if deps.OAuth != nil {
			r.Get("/login", deps.OAuth.Login)
			r.Get("/callback", deps.OAuth.Callback)
		}
		if deps.Users != nil {
			r.Post("/logout", Logout(deps.Users, deps.SecureCookies))
		}
	})

	var resolver SessionResolver
	if deps.Users != nil {
		resolver = deps.Users
	}
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(resolver))

		r.Get("/tractates", srv.handleListTractates)
		r.Get("/tractates/{id}/pages", srv.handleTractatePages)
		r.Get("/pages", srv.handleListPages)
		r.Get("/pages/{id}", srv.handleGetPage)
		r.Get("/stats", srv.handleStats)
		r.Get("/log", srv.handleLog)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/me", srv.handleMe)
			r.Get("/me/pages", srv.handleMyPages)
			r.Post("/pages/claim", srv.handleBulkClaim)
			r.Post("/pages/{id}/claim", srv.handleTransition(lifecycle.OpClaim))
			r.Post("/pages/{id}/return", srv.handleTransition(lifecycle.OpReturn))
			r.Post("/pages/{id}/complete", srv.handleTransition(lifecycle.OpComplete))
			r.Post("/pages/{id}/draft", srv.handleTransition(lifecycle.OpDraft))
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorBody(err)
	if status == http.StatusInternalServerError && s.logger != nil {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, body)
}

func metricsMiddleware(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}
			obs.ObserveRequest(r.Method, route, code)
		})
	}
}
