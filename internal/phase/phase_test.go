package phase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/draftwatch/agent/internal/model"
)

func TestIdleToChampSelectMintsSession(t *testing.T) {
	m := New()
	tr := m.Apply(model.PhaseChampSelect)
	require.Equal(t, model.StateChampSelect, tr.State)
	require.True(t, tr.IsNewSession)
	require.NotEmpty(t, tr.SessionID)
}

func TestRepeatedChampSelectDoesNotRemintSession(t *testing.T) {
	m := New()
	first := m.Apply(model.PhaseChampSelect)
	second := m.Apply(model.PhaseChampSelect)
	require.False(t, second.IsNewSession)
	require.Equal(t, first.SessionID, second.SessionID)
}

func TestChampSelectToInGameBumpsEpoch(t *testing.T) {
	m := New()
	m.Apply(model.PhaseChampSelect)
	before := m.phaseEpoch
	tr := m.Apply(model.PhaseInProgress)
	require.Equal(t, model.StateInGame, tr.State)
	require.Equal(t, before+1, tr.PhaseEpoch)
}

func TestQueuePhasesCollapseToInQueue(t *testing.T) {
	m := New()
	for _, p := range []model.Phase{model.PhaseLobby, model.PhaseMatchmaking, model.PhaseReadyCheck} {
		tr := m.Apply(p)
		require.Equal(t, model.StateInQueue, tr.State)
	}
}

func TestUnknownPhaseMapsToIdle(t *testing.T) {
	m := New()
	tr := m.Apply(model.Phase("SomeBrandNewPhase"))
	require.Equal(t, model.StateIdle, tr.State)
}

func TestSessionRetainedThroughPostGameThenClearedOnIdle(t *testing.T) {
	m := New()
	first := m.Apply(model.PhaseChampSelect)
	postGame := m.Apply(model.PhasePostGame)
	require.Equal(t, first.SessionID, postGame.SessionID, "PostGame retains the session for the grace window")

	idle := m.Apply(model.PhaseNone)
	require.Empty(t, idle.SessionID)
}

func TestNewSessionMintedAfterFreshIdleChampSelectCycle(t *testing.T) {
	m := New()
	first := m.Apply(model.PhaseChampSelect)
	m.Apply(model.PhasePostGame)
	m.Apply(model.PhaseNone)
	second := m.Apply(model.PhaseChampSelect)
	require.True(t, second.IsNewSession)
	require.NotEqual(t, first.SessionID, second.SessionID)
}
