package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/domain/stats"
	"github.com/rpggio/dafmemorial/internal/domain/user"
	"github.com/rpggio/dafmemorial/internal/observability"
	"github.com/rpggio/dafmemorial/internal/sqlite"
	"github.com/rpggio/dafmemorial/internal/transport"
	"github.com/stretchr/testify/require"
)

// SmallSeed is a two-tractate catalog: ברכות with 3 pages and שבת with 2.
const SmallSeed = `
Zraim:
  ברכות: 4
Moed:
  שבת: 3
`

// Options tweaks the server under test.
type Options struct {
	Drafting bool
	MaxBulk  int
	// Seed replaces SmallSeed.
	Seed string
}

// TestServer is the full HTTP stack over an in-memory database.
type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	Registry  *prometheus.Registry
	Catalog   *catalog.Service
	Lifecycle *lifecycle.Service
	Activity  *activity.Service
	Users     *user.Service
}

// New starts a seeded server and registers cleanup on t.
func New(t *testing.T, opts Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	tractateRepo := sqlite.NewTractateRepository(db)
	pageRepo := sqlite.NewPageRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)

	seedYAML := opts.Seed
	if seedYAML == "" {
		seedYAML = SmallSeed
	}
	seed, err := catalog.ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	_, err = catalog.NewSeeder(pageRepo, nil).Seed(context.Background(), seed)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	activitySvc := activity.NewService(activityRepo, nil, activity.DefaultListLimit)
	lifecycleSvc := lifecycle.NewService(pageRepo, activitySvc, nil,
		lifecycle.WithDrafting(opts.Drafting),
		lifecycle.WithMaxBulk(opts.MaxBulk),
		lifecycle.WithRecorder(metrics),
	)
	catalogSvc := catalog.NewService(tractateRepo, pageRepo, nil)
	userSvc := user.NewService(userRepo, sessionRepo, nil, 0)

	server := httptest.NewServer(transport.NewServer(transport.Deps{
		Catalog:   catalogSvc,
		Lifecycle: lifecycleSvc,
		Stats:     stats.NewAggregator(pageRepo, nil, opts.Drafting),
		Activity:  activitySvc,
		Users:     userSvc,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Observer:  metrics,
	}))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:    server,
		DB:        db,
		Registry:  registry,
		Catalog:   catalogSvc,
		Lifecycle: lifecycleSvc,
		Activity:  activitySvc,
		Users:     userSvc,
	}
}

// SignIn creates (or refreshes) a user and returns a bearer session token.
func (ts *TestServer) SignIn(t *testing.T, name, email string) (*user.User, string) {
	t.Helper()
	ctx := context.Background()
	u, err := ts.Users.SignIn(ctx, user.Identity{Name: name, Email: email})
	require.NoError(t, err)
	token, _, err := ts.Users.StartSession(ctx, u.ID)
	require.NoError(t, err)
	return u, token
}

// PageIDs returns every page ID in catalog order.
func (ts *TestServer) PageIDs(t *testing.T) []string {
	t.Helper()
	pages, err := ts.Catalog.ListPages(context.Background(), catalog.ListPagesOptions{})
	require.NoError(t, err)
	ids := make([]string, 0, len(pages))
	for _, p := range pages {
		ids = append(ids, p.ID)
	}
	return ids
}
