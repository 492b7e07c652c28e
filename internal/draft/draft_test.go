package draft

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftwatch/agent/internal/champions"
	"github.com/draftwatch/agent/internal/events"
	"github.com/draftwatch/agent/internal/model"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	reg, err := champions.New()
	require.NoError(t, err)
	return New("session-1", reg)
}

func TestAllyHoverPlacesPickByAssignedPosition(t *testing.T) {
	m := newTestModel(t)
	snap := &events.ChampSelectSnapshot{
		LocalPlayerCellID: 0,
		MyTeam: []events.SessionTeamMember{
			{CellID: 0, ChampionPickIntent: 103, AssignedPosition: "middle"},
		},
	}
	pickEvents := m.Apply(snap)
	require.Len(t, pickEvents, 1)
	require.Equal(t, model.EventHover, pickEvents[0].Kind)

	local := m.State().LocalPick()
	require.NotNil(t, local)
	require.Equal(t, 103, local.ChampionID)
	require.Equal(t, model.RoleMiddle, local.AssignedLane)
	require.Same(t, local, m.State().Allies[2])
}

func TestNoDataLossOnEmptySubsequentSnapshot(t *testing.T) {
	m := newTestModel(t)
	m.Apply(&events.ChampSelectSnapshot{
		MyTeam: []events.SessionTeamMember{{CellID: 0, ChampionID: 103, AssignedPosition: "middle"}},
	})
	m.Apply(&events.ChampSelectSnapshot{})

	local := m.State().LocalPick()
	require.NotNil(t, local)
	require.Equal(t, 103, local.ChampionID)
}

func TestEnemyPlacedByBestLaneAptitude(t *testing.T) {
	m := newTestModel(t)
	m.Apply(&events.ChampSelectSnapshot{
		TheirTeam: []events.SessionTeamMember{{CellID: 5, ChampionID: 86}}, // Garen, top aptitude
	})
	require.NotNil(t, m.State().Enemies[0])
	require.Equal(t, 86, m.State().Enemies[0].ChampionID)
}

func TestApplyingSameSnapshotTwiceIsIdempotent(t *testing.T) {
	m := newTestModel(t)
	snap := &events.ChampSelectSnapshot{
		MyTeam: []events.SessionTeamMember{{CellID: 0, ChampionID: 103, AssignedPosition: "middle"}},
	}
	m.Apply(snap)
	before := *m.State().LocalPick()
	m.Apply(snap)
	after := *m.State().LocalPick()
	require.Equal(t, before, after)
}

func TestActionCompletionEmitsPickThenLockIn(t *testing.T) {
	m := newTestModel(t)
	m.Apply(&events.ChampSelectSnapshot{
		MyTeam: []events.SessionTeamMember{{CellID: 0, ChampionID: 0, ChampionPickIntent: 103, AssignedPosition: "middle"}},
	})

	picked := m.Apply(&events.ChampSelectSnapshot{
		MyTeam: []events.SessionTeamMember{{CellID: 0, ChampionID: 103, AssignedPosition: "middle"}},
		Actions: [][]events.SessionAction{{
			{ActorCellID: 0, ChampionID: 103, Type: "pick", Completed: true, IsInProgress: true},
		}},
	})
	require.Condition(t, func() bool {
		for _, e := range picked {
			if e.Kind == model.EventPick {
				return true
			}
		}
		return false
	})

	lockedIn := m.Apply(&events.ChampSelectSnapshot{
		MyTeam: []events.SessionTeamMember{{CellID: 0, ChampionID: 103, AssignedPosition: "middle"}},
		Actions: [][]events.SessionAction{{
			{ActorCellID: 0, ChampionID: 103, Type: "pick", Completed: true, IsInProgress: false},
		}},
	})
	require.Condition(t, func() bool {
		for _, e := range lockedIn {
			if e.Kind == model.EventLockIn {
				return true
			}
		}
		return false
	})
}

func TestResetClearsStateForNewSession(t *testing.T) {
	m := newTestModel(t)
	m.Apply(&events.ChampSelectSnapshot{
		MyTeam: []events.SessionTeamMember{{CellID: 0, ChampionID: 103, AssignedPosition: "middle"}},
	})
	m.Reset("session-2")
	require.Nil(t, m.State().LocalPick())
	require.Equal(t, "session-2", m.State().SessionID)
}

func TestPickOrderCountsPlacementsPerTeam(t *testing.T) {
	m := newTestModel(t)
	m.Apply(&events.ChampSelectSnapshot{
		MyTeam: []events.SessionTeamMember{
			{CellID: 0, ChampionID: 103, AssignedPosition: "middle"},
			{CellID: 1, ChampionID: 86, AssignedPosition: "top"},
		},
		TheirTeam: []events.SessionTeamMember{
			{CellID: 5, ChampionID: 41, AssignedPosition: "top"},
		},
	})

	require.Equal(t, 1, m.State().Allies[2].PickOrder) // Ahri, first ally placed
	require.Equal(t, 2, m.State().Allies[0].PickOrder) // Garen, second ally placed
	require.Equal(t, 1, m.State().Enemies[0].PickOrder) // first (and only) enemy placed
}

func TestPendingEnemyHoverReturnsUncommittedEnemyChampion(t *testing.T) {
	m := newTestModel(t)
	require.Nil(t, m.PendingEnemyHover(), "no enemy data yet")

	m.Apply(&events.ChampSelectSnapshot{
		TheirTeam: []events.SessionTeamMember{{CellID: 5, ChampionPickIntent: 41, AssignedPosition: "top"}},
	})

	pending := m.PendingEnemyHover()
	require.NotNil(t, pending)
	require.Equal(t, 41, pending.ChampionID)
	require.False(t, pending.Completed)
}

func TestPendingEnemyHoverNilOnceCompleted(t *testing.T) {
	m := newTestModel(t)
	m.Apply(&events.ChampSelectSnapshot{
		TheirTeam: []events.SessionTeamMember{{CellID: 5, ChampionID: 41, AssignedPosition: "top"}},
		Actions: [][]events.SessionAction{{
			{ActorCellID: 5, ChampionID: 41, Type: "pick", Completed: true, IsInProgress: true},
		}},
	})
	require.Nil(t, m.PendingEnemyHover(), "a completed pick is no longer pending")
}

func TestChampionNeverAppearsTwice(t *testing.T) {
	m := newTestModel(t)
	m.Apply(&events.ChampSelectSnapshot{
		MyTeam:    []events.SessionTeamMember{{CellID: 0, ChampionID: 103, AssignedPosition: "middle"}},
		TheirTeam: []events.SessionTeamMember{{CellID: 5, ChampionID: 103}},
	})
	require.False(t, m.State().Enemies[0] != nil && m.State().Enemies[0].ChampionID == 103)
}
