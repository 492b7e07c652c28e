// Package phase implements the agent's own lifecycle state machine (spec
// §4.4), derived from the sequence of gameflow phases the client reports.
// Several raw phases collapse into a single State, and the machine mints a
// session id whenever a new champ-select begins.
package phase

import (
	"github.com/google/uuid"

	"github.com/draftwatch/agent/internal/model"
)

// Transition is the result of feeding one PhaseChanged event to the machine.
type Transition struct {
	State       model.State
	SessionID   string
	IsNewSession bool // true exactly on the transition that minted SessionID
	PhaseEpoch  int   // bumps on every ChampSelect -> InGame transition
}

// Machine tracks the agent's current State across a sequence of raw phase
// reports. Not safe for concurrent use; callers serialize access (the
// supervisor owns the single event-processing goroutine).
type Machine struct {
	state      model.State
	sessionID  string
	phaseEpoch int
}

// New returns a Machine starting at StateIdle with no active session.
func New() *Machine {
	return &Machine{state: model.StateIdle}
}

// phaseToState collapses the client's raw phases into the agent's own
// states: Lobby/Matchmaking/ReadyCheck all mean "queued, not yet drafting".
var phaseToState = map[model.Phase]model.State{
	model.PhaseNone:        model.StateIdle,
	model.PhaseLobby:       model.StateInQueue,
	model.PhaseMatchmaking: model.StateInQueue,
	model.PhaseReadyCheck:  model.StateInQueue,
	model.PhaseChampSelect: model.StateChampSelect,
	model.PhaseInProgress:  model.StateInGame,
	model.PhasePostGame:    model.StatePostGame,
}

// Apply advances the machine on a new raw phase report and returns the
// resulting Transition.
func (m *Machine) Apply(raw model.Phase) Transition {
	next, ok := phaseToState[raw]
	if !ok {
		next = model.StateIdle
	}

	isNewSession := false
	if next == model.StateChampSelect && m.state != model.StateChampSelect {
		m.sessionID = uuid.NewString()
		isNewSession = true
	}
	if m.state == model.StateChampSelect && next == model.StateInGame {
		m.phaseEpoch++
	}
	// PostGame retains the session for the grace window; only the
	// subsequent transition to Idle drops it (spec §4.4).
	if next == model.StateIdle {
		m.sessionID = ""
	}

	m.state = next
	return Transition{
		State:        m.state,
		SessionID:    m.sessionID,
		IsNewSession: isNewSession,
		PhaseEpoch:   m.phaseEpoch,
	}
}

// State returns the machine's current state without advancing it.
func (m *Machine) State() model.State { return m.state }

// SessionID returns the current session id, or "" if no draft is active.
func (m *Machine) SessionID() string { return m.sessionID }

// PhaseEpoch returns the current phase_epoch counter (spec §3), bumped on
// every ChampSelect -> InGame transition.
func (m *Machine) PhaseEpoch() int { return m.phaseEpoch }

// Resync reinitialises the machine after a reconnect (spec §5): the agent
// may have missed phase transitions while disconnected, so the supervisor
// feeds the freshly-fetched current phase back in as if seen for the first
// time, preserving IsNewSession semantics only when it truly is one.
func (m *Machine) Resync(raw model.Phase) Transition {
	return m.Apply(raw)
}
