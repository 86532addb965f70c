package catalog_test

import (
	"context"
	"testing"

	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/repository"
	"github.com/rpggio/dafmemorial/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_GetPage_NotFound(t *testing.T) {
	ctx := context.Background()
	pages := &mocks.PageRepository{}
	pages.On("Get", ctx, "nope").Return(nil, repository.ErrNotFound)

	svc := catalog.NewService(&mocks.TractateRepository{}, pages, nil)
	_, err := svc.GetPage(ctx, "nope")
	require.ErrorIs(t, err, catalog.ErrPageNotFound)

	_, err = svc.GetPage(ctx, " ")
	require.ErrorIs(t, err, catalog.ErrInvalidInput)
}

func TestCatalogService_ListPages_ValidatesFilters(t *testing.T) {
	ctx := context.Background()
	tractates := &mocks.TractateRepository{}
	pages := &mocks.PageRepository{}
	svc := catalog.NewService(tractates, pages, nil)

	_, err := svc.ListPages(ctx, catalog.ListPagesOptions{Statuses: []catalog.PageStatus{"lost"}})
	require.ErrorIs(t, err, catalog.ErrInvalidInput)

	_, err = svc.ListPages(ctx, catalog.ListPagesOptions{Limit: -1})
	require.ErrorIs(t, err, catalog.ErrInvalidInput)

	tractates.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)
	_, err = svc.ListPages(ctx, catalog.ListPagesOptions{TractateID: "missing"})
	require.ErrorIs(t, err, catalog.ErrTractateNotFound)
	pages.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestCatalogService_ListPages_ByTractate(t *testing.T) {
	ctx := context.Background()
	tractates := &mocks.TractateRepository{}
	pages := &mocks.PageRepository{}
	opts := catalog.ListPagesOptions{TractateID: "t1", Statuses: []catalog.PageStatus{catalog.StatusAvailable}}

	tractates.On("Get", ctx, "t1").Return(&catalog.Tractate{ID: "t1"}, nil)
	pages.On("List", ctx, opts).Return([]catalog.Page{{ID: "p1"}, {ID: "p2"}}, nil)

	svc := catalog.NewService(tractates, pages, nil)
	list, err := svc.ListPages(ctx, opts)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestCatalogService_UserProgress(t *testing.T) {
	ctx := context.Background()
	pages := &mocks.PageRepository{}
	userID := "u1"
	pages.On("List", ctx, catalog.ListPagesOptions{ClaimedBy: &userID}).Return([]catalog.Page{
		{ID: "p1", Status: catalog.StatusTaken},
		{ID: "p2", Status: catalog.StatusCompleted},
		{ID: "p3", Status: catalog.StatusCompleted},
		{ID: "p4", Status: catalog.StatusTaken},
	}, nil)

	svc := catalog.NewService(&mocks.TractateRepository{}, pages, nil)
	progress, err := svc.UserProgress(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 4, progress.Total)
	require.Equal(t, 2, progress.Completed)
	require.Equal(t, 2, progress.InProgress)
	require.InDelta(t, 50.0, progress.Percent, 0.001)
}

func TestCatalogService_UserProgress_NoPages(t *testing.T) {
	ctx := context.Background()
	pages := &mocks.PageRepository{}
	userID := "u1"
	pages.On("List", ctx, catalog.ListPagesOptions{ClaimedBy: &userID}).Return(nil, nil)

	svc := catalog.NewService(&mocks.TractateRepository{}, pages, nil)
	progress, err := svc.UserProgress(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, progress.Pages)
	require.Zero(t, progress.Percent)
}

func TestParseSeder(t *testing.T) {
	s, err := catalog.ParseSeder("nezikin")
	require.NoError(t, err)
	require.Equal(t, catalog.SederNezikin, s)

	s, err = catalog.ParseSeder("טהרות")
	require.NoError(t, err)
	require.Equal(t, catalog.SederTaharot, s)

	_, err = catalog.ParseSeder("Avot")
	require.ErrorIs(t, err, catalog.ErrInvalidInput)
}
