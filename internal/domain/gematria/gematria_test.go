package gematria_test

import (
	"testing"

	"github.com/rpggio/dafmemorial/internal/domain/gematria"
	"github.com/stretchr/testify/require"
)

func TestNumber(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{1, "א׳"},
		{2, "ב׳"},
		{10, "י׳"},
		{11, "י״א"},
		{15, "ט״ו"},
		{16, "ט״ז"},
		{17, "י״ז"},
		{20, "כ׳"},
		{64, "ס״ד"},
		{100, "ק׳"},
		{115, "קט״ו"},
		{116, "קט״ז"},
		{157, "קנ״ז"},
		{176, "קע״ו"},
		{215, "רט״ו"},
		{216, "רט״ז"},
		{400, "ת׳"},
		{515, "תקט״ו"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, gematria.Number(tc.n), "n=%d", tc.n)
	}
}

func TestNumber_NonPositive(t *testing.T) {
	require.Equal(t, "", gematria.Number(0))
	require.Equal(t, "", gematria.Number(-3))
}

func TestDafLabel_StartsAtBet(t *testing.T) {
	require.Equal(t, "ב׳", gematria.DafLabel(0))
	require.Equal(t, "ט״ו", gematria.DafLabel(13))
	require.Equal(t, "קע״ו", gematria.DafLabel(174))
}

func TestNumber_Deterministic(t *testing.T) {
	for n := 1; n < 500; n++ {
		label := gematria.Number(n)
		require.NotEmpty(t, label, "n=%d", n)
		require.Equal(t, label, gematria.Number(n))
	}
}
