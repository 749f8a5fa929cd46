package key

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNew_Valid(t *testing.T) {
	nk, err := New("arcanum", "magma_core")
	require.NoError(t, err)
	require.Equal(t, "arcanum", nk.Namespace())
	require.Equal(t, "magma_core", nk.Key())
	require.Equal(t, "arcanum:magma_core", nk.String())
	require.Equal(t, "arcanum.magma_core", nk.ConfigPath())
	require.True(t, nk.IsValid())
}

func TestNew_Invalid(t *testing.T) {
	cases := []struct {
		name      string
		namespace string
		key       string
	}{
		{"empty namespace", "", "magma_core"},
		{"empty key", "arcanum", ""},
		{"uppercase", "Arcanum", "magma_core"},
		{"space", "arcanum", "magma core"},
		{"colon in segment", "arca:num", "magma_core"},
		{"dot in segment", "arcanum", "magma.core"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.namespace, tc.key)
			require.Error(t, err)
		})
	}
}

func TestParse(t *testing.T) {
	nk, err := Parse("arcanum:frost_lantern")
	require.NoError(t, err)
	require.Equal(t, "arcanum", nk.Namespace())
	require.Equal(t, "frost_lantern", nk.Key())

	_, err = Parse("no-separator")
	require.Error(t, err)

	_, err = Parse("arcanum:")
	require.Error(t, err)
}

func TestMustNew_PanicsOnInvalid(t *testing.T) {
	require.Panics(t, func() { MustNew("", "x") })
}

func TestKey_ParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		namespace := rapid.StringMatching(`[a-z0-9_-]{1,16}`).Draw(t, "namespace")
		k := rapid.StringMatching(`[a-z0-9_-]{1,16}`).Draw(t, "key")

		nk, err := New(namespace, k)
		require.NoError(t, err)

		parsed, err := Parse(nk.String())
		require.NoError(t, err)
		require.Equal(t, nk, parsed)
	})
}
