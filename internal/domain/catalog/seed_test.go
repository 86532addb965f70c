package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/dafmemorial/internal/domain/catalog"
	"github.com/rpggio/dafmemorial/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed_Totals(t *testing.T) {
	seed := catalog.DefaultSeed()
	require.Equal(t, 2696, seed.PageCount())
	require.Len(t, seed, 6)

	tractates := 0
	for _, group := range seed {
		tractates += len(group.Tractates)
	}
	require.Equal(t, 37, tractates)
	require.Equal(t, catalog.SederZraim, seed[0].Seder)
	require.Equal(t, "ברכות", seed[0].Tractates[0].Name)
	require.Equal(t, 64, seed[0].Tractates[0].LastDaf)
}

func TestParseSeed_KeepsOrder(t *testing.T) {
	seed, err := catalog.ParseSeed([]byte(`
Moed:
  שבת: 4
  עירובין: 3
זרעים:
  ברכות: 2
`))
	require.NoError(t, err)
	require.Len(t, seed, 2)
	require.Equal(t, catalog.SederMoed, seed[0].Seder)
	require.Equal(t, "שבת", seed[0].Tractates[0].Name)
	require.Equal(t, "עירובין", seed[0].Tractates[1].Name)
	require.Equal(t, catalog.SederZraim, seed[1].Seder)
	require.Equal(t, 3+2+1, seed.PageCount())
}

func TestParseSeed_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown seder": "Avot:\n  x: 3\n",
		"last daf 1":    "Moed:\n  x: 1\n",
		"duplicate":     "Moed:\n  x: 3\nNashim:\n  x: 4\n",
		"not a mapping": "- Moed\n",
		"empty":         "{}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.ParseSeed([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestSeeder_BuildsCatalog(t *testing.T) {
	ctx := context.Background()
	store := &mocks.PageRepository{}
	seed, err := catalog.ParseSeed([]byte("Zraim:\n  ברכות: 4\nMoed:\n  שבת: 3\n"))
	require.NoError(t, err)

	var gotTractates []catalog.Tractate
	var gotPages []catalog.Page
	store.On("CountPages", ctx, (*catalog.PageStatus)(nil)).Return(0, nil)
	store.On("ReplaceCatalog", ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotTractates = args.Get(1).([]catalog.Tractate)
			gotPages = args.Get(2).([]catalog.Page)
		}).
		Return(nil)

	result, err := catalog.NewSeeder(store, nil).Seed(ctx, seed)
	require.NoError(t, err)
	require.True(t, result.Created)
	require.Equal(t, 2, result.Tractates)
	require.Equal(t, 5, result.Pages)

	require.Len(t, gotTractates, 2)
	require.Equal(t, 0, gotTractates[0].Position)
	require.Equal(t, catalog.SederMoed, gotTractates[1].Seder)

	require.Len(t, gotPages, 5)
	labels := make([]string, 0, len(gotPages))
	for _, p := range gotPages {
		require.Equal(t, catalog.StatusAvailable, p.Status)
		require.Nil(t, p.ClaimedBy)
		labels = append(labels, p.Label)
	}
	require.Equal(t, []string{"ב׳", "ג׳", "ד׳", "ב׳", "ג׳"}, labels)
	require.Equal(t, gotTractates[1].ID, gotPages[3].TractateID)
	require.Equal(t, 0, gotPages[3].Index)
}

func TestSeeder_SkipsWhenCountMatches(t *testing.T) {
	ctx := context.Background()
	store := &mocks.PageRepository{}
	store.On("CountPages", ctx, (*catalog.PageStatus)(nil)).Return(2696, nil)

	result, err := catalog.NewSeeder(store, nil).Seed(ctx, catalog.DefaultSeed())
	require.NoError(t, err)
	require.False(t, result.Created)
	store.AssertNotCalled(t, "ReplaceCatalog", mock.Anything, mock.Anything, mock.Anything)
}

func TestSeeder_CountFailure(t *testing.T) {
	ctx := context.Background()
	store := &mocks.PageRepository{}
	store.On("CountPages", ctx, (*catalog.PageStatus)(nil)).Return(0, errors.New("boom"))

	_, err := catalog.NewSeeder(store, nil).Seed(ctx, catalog.DefaultSeed())
	require.Error(t, err)
}
