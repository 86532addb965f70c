package integration_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rpggio/dafmemorial/internal/domain/activity"
	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/domain/lifecycle"
	"github.com/rpggio/dafmemorial/internal/domain/stats"
	"github.com/rpggio/dafmemorial/internal/domain/user"
	"github.com/rpggio/dafmemorial/internal/sqlite"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db       *sqlite.DB
	pageRepo *sqlite.PageRepository

	catalogSvc   *catalog.Service
	lifecycleSvc *lifecycle.Service
	activitySvc  *activity.Service
	statsAgg     *stats.Aggregator
	userSvc      *user.Service
}

func newTestEnv(t *testing.T, drafting bool) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	pageRepo := sqlite.NewPageRepository(db)
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil, 0)

	_, err = catalog.NewSeeder(pageRepo, nil).Seed(context.Background(), catalog.DefaultSeed())
	require.NoError(t, err)

	return &testEnv{
		db:           db,
		pageRepo:     pageRepo,
		catalogSvc:   catalog.NewService(sqlite.NewTractateRepository(db), pageRepo, nil),
		lifecycleSvc: lifecycle.NewService(pageRepo, activitySvc, nil, lifecycle.WithDrafting(drafting)),
		activitySvc:  activitySvc,
		statsAgg:     stats.NewAggregator(pageRepo, nil, drafting),
		userSvc:      user.NewService(sqlite.NewUserRepository(db), sqlite.NewSessionRepository(db), nil, 0),
	}
}

func (e *testEnv) signIn(t *testing.T, name string) lifecycle.Actor {
	t.Helper()
	u, err := e.userSvc.SignIn(context.Background(), user.Identity{Name: name, Email: strings.ToLower(name) + "@example.com"})
	require.NoError(t, err)
	return lifecycle.Actor{ID: u.ID, Name: u.Name}
}

func (e *testEnv) firstPages(t *testing.T, n int) []catalog.Page {
	t.Helper()
	pages, err := e.catalogSvc.ListPages(context.Background(), catalog.ListPagesOptions{Limit: n})
	require.NoError(t, err)
	require.Len(t, pages, n)
	return pages
}

func (e *testEnv) requireStatsConsistent(t *testing.T) *stats.PageStats {
	t.Helper()
	st, err := e.statsAgg.PageStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, st.Total-st.Taken-st.Completed-st.Drafted, st.Available)
	return st
}

func TestIntegration_SeededCatalog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)

	st := env.requireStatsConsistent(t)
	require.Equal(t, 2696, st.Total)
	require.Equal(t, 2696, st.Available)

	tractates, err := env.catalogSvc.ListTractates(ctx)
	require.NoError(t, err)
	require.Len(t, tractates, 37)
	require.Equal(t, "ברכות", tractates[0].Name)
	require.Equal(t, catalog.SederZraim, tractates[0].Seder)
	require.Equal(t, 63, tractates[0].Counts.Total)

	pages, err := env.catalogSvc.ListPages(ctx, catalog.ListPagesOptions{TractateID: tractates[0].ID})
	require.NoError(t, err)
	require.Len(t, pages, 63)
	require.Equal(t, "ב׳", pages[0].Label)
	require.Equal(t, "ט״ו", pages[13].Label)
	require.Equal(t, "ס״ד", pages[62].Label)

	// Seeding again is a no-op.
	result, err := catalog.NewSeeder(env.pageRepo, nil).Seed(ctx, catalog.DefaultSeed())
	require.NoError(t, err)
	require.False(t, result.Created)
}

func TestIntegration_ConcurrentClaimsOneWinner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	page := env.firstPages(t, 1)[0]

	const contenders = 12
	actors := make([]lifecycle.Actor, contenders)
	for i := range actors {
		actors[i] = env.signIn(t, fmt.Sprintf("User%d", i))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		rejected int
	)
	for _, actor := range actors {
		wg.Add(1)
		go func(actor lifecycle.Actor) {
			defer wg.Done()
			_, err := env.lifecycleSvc.Claim(ctx, actor, page.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, lifecycle.ErrInvalidTransition):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(actor)
	}
	wg.Wait()

	require.Equal(t, 1, winners)
	require.Equal(t, contenders-1, rejected)

	entries, err := env.activitySvc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	st := env.requireStatsConsistent(t)
	require.Equal(t, 1, st.Taken)
}

func TestIntegration_LifecycleAndLog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	alice := env.signIn(t, "Alice")
	bob := env.signIn(t, "Bob")
	page := env.firstPages(t, 1)[0]

	_, err := env.lifecycleSvc.Claim(ctx, alice, page.ID)
	require.NoError(t, err)

	_, err = env.lifecycleSvc.Complete(ctx, bob, page.ID)
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	_, err = env.lifecycleSvc.Return(ctx, alice, page.ID)
	require.NoError(t, err)
	stored, err := env.catalogSvc.GetPage(ctx, page.ID)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusAvailable, stored.Status)
	require.Nil(t, stored.ClaimedBy)
	require.Nil(t, stored.ClaimedAt)

	_, err = env.lifecycleSvc.Claim(ctx, bob, page.ID)
	require.NoError(t, err)
	done, err := env.lifecycleSvc.Complete(ctx, bob, page.ID)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusCompleted, done.Status)

	stored, err = env.catalogSvc.GetPage(ctx, page.ID)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusCompleted, stored.Status)
	require.Equal(t, bob.ID, *stored.ClaimedBy)
	require.Equal(t, "Bob", *stored.ClaimedByName)
	require.NotNil(t, stored.ClaimedAt)

	_, err = env.lifecycleSvc.Claim(ctx, alice, page.ID)
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	entries, err := env.activitySvc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Bob took on the study of page ב׳ of tractate ברכות!", entries[0].Message)
	require.Equal(t, "Alice took on the study of page ב׳ of tractate ברכות!", entries[1].Message)

	st := env.requireStatsConsistent(t)
	require.Equal(t, 1, st.Completed)
	require.Equal(t, 0, st.Taken)
}

func TestIntegration_BulkClaimPartial(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	alice := env.signIn(t, "Alice")
	bob := env.signIn(t, "Bob")
	pages := env.firstPages(t, 4)

	_, err := env.lifecycleSvc.Claim(ctx, bob, pages[2].ID)
	require.NoError(t, err)

	ids := []string{pages[0].ID, pages[1].ID, pages[2].ID, pages[3].ID, pages[0].ID}
	result, err := env.lifecycleSvc.BulkClaim(ctx, alice, ids)
	require.NoError(t, err)
	require.Len(t, result.Claimed, 3)
	require.Len(t, result.Failed, 1)
	require.Equal(t, pages[2].ID, result.Failed[0].PageID)
	require.ErrorIs(t, result.Failed[0].Err, lifecycle.ErrInvalidTransition)
	require.Equal(t, bob.ID, *result.Failed[0].Page.ClaimedBy)

	progress, err := env.catalogSvc.UserProgress(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, 3, progress.InProgress)

	entries, err := env.activitySvc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	st := env.requireStatsConsistent(t)
	require.Equal(t, 4, st.Taken)
}

func TestIntegration_LogFailureDoesNotFailClaim(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	alice := env.signIn(t, "Alice")
	page := env.firstPages(t, 1)[0]

	_, err := env.db.Exec(`DROP TABLE log_entries`)
	require.NoError(t, err)

	claimed, err := env.lifecycleSvc.Claim(ctx, alice, page.ID)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusTaken, claimed.Status)

	stored, err := env.catalogSvc.GetPage(ctx, page.ID)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusTaken, stored.Status)
}

func TestIntegration_DraftingMode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	alice := env.signIn(t, "Alice")
	bob := env.signIn(t, "Bob")
	pages := env.firstPages(t, 2)

	drafted, err := env.lifecycleSvc.Draft(ctx, alice, pages[0].ID)
	require.NoError(t, err)
	require.Equal(t, catalog.StatusDrafted, drafted.Status)
	require.Nil(t, drafted.ClaimedAt)

	_, err = env.lifecycleSvc.Claim(ctx, bob, pages[0].ID)
	require.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	st := env.requireStatsConsistent(t)
	require.Equal(t, 1, st.Drafted)

	_, err = env.lifecycleSvc.Claim(ctx, alice, pages[0].ID)
	require.NoError(t, err)

	_, err = env.lifecycleSvc.Draft(ctx, bob, pages[1].ID)
	require.NoError(t, err)
	_, err = env.lifecycleSvc.Return(ctx, bob, pages[1].ID)
	require.NoError(t, err)

	entries, err := env.activitySvc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].Message, "Alice")

	st = env.requireStatsConsistent(t)
	require.Equal(t, 0, st.Drafted)
	require.Equal(t, 1, st.Taken)
}

func TestIntegration_SignInAndSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)

	first, err := env.userSvc.SignIn(ctx, user.Identity{Name: "", Email: "Alice@Example.com"})
	require.NoError(t, err)
	require.Equal(t, user.UnknownName, first.Name)

	second, err := env.userSvc.SignIn(ctx, user.Identity{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Alice", second.Name)

	token, _, err := env.userSvc.StartSession(ctx, second.ID)
	require.NoError(t, err)
	resolved, err := env.userSvc.Resolve(ctx, token)
	require.NoError(t, err)
	require.Equal(t, second.ID, resolved.ID)

	require.NoError(t, env.userSvc.EndSession(ctx, token))
	_, err = env.userSvc.Resolve(ctx, token)
	require.ErrorIs(t, err, user.ErrSessionInvalid)
}
