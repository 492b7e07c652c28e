package role

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftwatch/agent/internal/champions"
	"github.com/draftwatch/agent/internal/model"
)

func TestInferUsesAptitudeWhenLaneOpen(t *testing.T) {
	reg, err := champions.New()
	require.NoError(t, err)

	lane := Infer(reg, 86, 1, model.Roles[:]) // Garen, top aptitude 90
	require.Equal(t, model.RoleTop, lane)
}

func TestInferFallsBackToFirstOpenWithoutAptitude(t *testing.T) {
	reg, err := champions.New()
	require.NoError(t, err)

	lane := Infer(reg, 999999, 1, []model.Role{model.RoleJungle, model.RoleSupport})
	require.Equal(t, model.RoleJungle, lane)
}

func TestInferReturnsUnknownWhenNoLanesOpen(t *testing.T) {
	reg, err := champions.New()
	require.NoError(t, err)

	lane := Infer(reg, 86, 1, nil)
	require.Equal(t, model.RoleUnknown, lane)
}

func TestPickOrderBreaksAptitudeTies(t *testing.T) {
	reg, err := champions.New()
	require.NoError(t, err)

	// Jinx (222) only carries a bottom aptitude score; jungle and support
	// are both unscored (tied at zero), so the tie-break falls entirely to
	// pick-order preference.
	early := Infer(reg, 222, 1, []model.Role{model.RoleJungle, model.RoleSupport})
	require.Equal(t, model.RoleJungle, early, "early picks should tie-break toward solo lanes")

	late := Infer(reg, 222, 5, []model.Role{model.RoleJungle, model.RoleSupport})
	require.Equal(t, model.RoleSupport, late, "late picks should tie-break toward support")
}

func TestOpenLanesReportsUnoccupiedRows(t *testing.T) {
	var rows [5]*model.Pick
	rows[0] = &model.Pick{ChampionID: 1}
	open := OpenLanes(rows)
	require.NotContains(t, open, model.RoleTop)
	require.Contains(t, open, model.RoleJungle)
}
