package champions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftwatch/agent/internal/model"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Kai'Sa":     "kaisa",
		"Lee Sin":    "leesin",
		"Dr. Mundo":  "drmundo",
		"Aatrox":     "aatrox",
		"MonkeyKing": "monkeyking",
	}
	for in, want := range cases {
		require.Equal(t, want, Normalize(in), "normalise(%q)", in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Kai'Sa", "Lee Sin", "Dr. Mundo", "wukong", ""}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		require.Equal(t, once, twice, "normalise(normalise(%q))", in)
	}
}

func TestMonkeyKingExportsWukong(t *testing.T) {
	registry, err := New()
	require.NoError(t, err)

	champ, ok := registry.Lookup(62)
	require.True(t, ok)
	require.Equal(t, "wukong", champ.CanonicalName)
}

func TestLookupByName(t *testing.T) {
	registry, err := New()
	require.NoError(t, err)

	champ, ok := registry.LookupByName("kaisa")
	require.True(t, ok)
	require.Equal(t, 145, champ.ID)
}

func TestBestLaneTieBreaksByRowAscending(t *testing.T) {
	registry := &Registry{}
	registry.current.Store(&snapshot{byID: map[int]model.Champion{
		1: {
			ID:            1,
			CanonicalName: "tied",
			LaneAptitude: map[model.Role]uint8{
				model.RoleTop:    50,
				model.RoleJungle: 50,
			},
		},
	}})

	lane, ok := registry.BestLane(1)
	require.True(t, ok)
	require.Equal(t, model.RoleTop, lane, "top (row 0) should win a tie over jungle (row 1)")
}

func TestBestLaneUnknownWithoutAptitude(t *testing.T) {
	registry := &Registry{}
	registry.current.Store(&snapshot{byID: map[int]model.Champion{
		1: {ID: 1, CanonicalName: "noaptitude"},
	}})

	_, ok := registry.BestLane(1)
	require.False(t, ok)
}
